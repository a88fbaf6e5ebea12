package settings

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
	"strings"

	"github.com/arthur-debert/nmm/pkg/envelope"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/logging"
	"github.com/arthur-debert/nmm/pkg/wire"
)

// Store maps dotted keys to their value pairs. It is flat: the dots only
// matter to pkg/hierarchy. Setting a key that exists replaces it.
type Store struct {
	values map[string]Pair
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]Pair)}
}

// FromMap builds a store holding a copy of m.
func FromMap(m map[string]Pair) *Store {
	s := &Store{values: make(map[string]Pair, len(m))}
	for k, v := range m {
		s.values[k] = v
	}
	return s
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.values) }

// Get returns the pair stored under key.
func (s *Store) Get(key string) (Pair, bool) {
	p, ok := s.values[key]
	return p, ok
}

// Set stores pair under key, replacing any previous pair.
func (s *Store) Set(key string, pair Pair) {
	if s.values == nil {
		s.values = make(map[string]Pair)
	}
	s.values[key] = pair
}

// Delete removes key.
func (s *Store) Delete(key string) {
	delete(s.values, key)
}

// Keys returns every key in lexicographic order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns every entry ordered by key.
func (s *Store) Entries() []Entry {
	entries := make([]Entry, 0, len(s.values))
	for _, k := range s.Keys() {
		entries = append(entries, Entry{Key: k, Pair: s.values[k]})
	}
	return entries
}

// WithPrefix returns the entries whose key starts with prefix, ordered by key.
func (s *Store) WithPrefix(prefix string) []Entry {
	var entries []Entry
	for _, e := range s.Entries() {
		if strings.HasPrefix(e.Key, prefix) {
			entries = append(entries, e)
		}
	}
	return entries
}

// Filter returns a new store with only the entries whose key is in keys.
func (s *Store) Filter(keys map[string]struct{}) *Store {
	out := NewStore()
	for k, v := range s.values {
		if _, ok := keys[k]; ok {
			out.values[k] = v
		}
	}
	return out
}

// Merge copies every entry of other into s, overwriting existing keys.
func (s *Store) Merge(other *Store) {
	for k, v := range other.values {
		s.Set(k, v)
	}
}

// Clone returns an independent copy.
func (s *Store) Clone() *Store {
	return FromMap(s.values)
}

// Map returns a copy of the underlying mapping.
func (s *Store) Map() map[string]Pair {
	m := make(map[string]Pair, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// Load reads a settings file of fileSize bytes: an envelope around a
// big endian entry count followed by entries up to the end of the payload.
// The parsed count must match the declared one.
func Load(r io.Reader, fileSize int64, c envelope.Compressor) (*Store, error) {
	logger := logging.GetLogger("settings")

	payload, err := envelope.Decompress(r, fileSize, c)
	if err != nil {
		return nil, errors.Context(err, "decompressing settings")
	}

	body := bytes.NewReader(payload)
	wr := wire.NewReader(body)

	expected, err := wr.Uint64(binary.BigEndian)
	if err != nil {
		return nil, errors.Context(err, "reading expected entry count")
	}

	store := NewStore()
	var parsed uint64
	for body.Len() > 0 {
		entry, err := ReadEntry(wr)
		if err != nil {
			return nil, errors.Wrapf(err, errors.RootCode(err), "loading setting number %d", parsed).
				WithDetail("offset", wr.Consumed())
		}
		parsed++
		store.values[entry.Key] = entry.Pair
	}

	if parsed != expected {
		return nil, errors.Newf(errors.ErrEntryCountMismatch,
			"expected %d settings but there were %d", expected, parsed).
			WithDetail("expected", expected).
			WithDetail("actual", parsed)
	}

	logger.Debug().Uint64("entries", parsed).Int("payload_size", len(payload)).Msg("Loaded settings")
	return store, nil
}

// Save writes s as a settings file. Entries are written in key order so the
// same store always produces the same bytes.
func Save(w io.Writer, s *Store, c envelope.Compressor) error {
	payload, err := Encode(s)
	if err != nil {
		return err
	}
	if err := envelope.Compress(w, payload, c); err != nil {
		return errors.Context(err, "compressing settings")
	}
	logger := logging.GetLogger("settings")
	logger.Debug().Int("entries", s.Len()).Msg("Saved settings")
	return nil
}

// Encode returns the uncompressed payload for s: the count and the entries.
func Encode(s *Store) ([]byte, error) {
	var buf bytes.Buffer
	ww := wire.NewWriter(&buf)
	if err := ww.Uint64(binary.BigEndian, uint64(s.Len())); err != nil {
		return nil, errors.Context(err, "writing number of settings")
	}
	for _, e := range s.Entries() {
		if err := WriteEntry(ww, e); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
