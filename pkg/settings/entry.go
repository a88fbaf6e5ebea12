package settings

import (
	"encoding/binary"

	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/wire"
)

// Entry is one keyed setting as laid out on the wire:
//
//	[u32 BE key length][key][u32 BE current tag][u32 BE next tag][current][next]
//
// The same layout is used inside the settings file and inside pack files.
type Entry struct {
	Key  string
	Pair Pair
}

// ReadEntry decodes one entry.
func ReadEntry(r *wire.Reader) (Entry, error) {
	key, err := r.String32(binary.BigEndian)
	if err != nil {
		return Entry{}, errors.Context(err, "reading key")
	}

	currentTag, err := r.Uint32(binary.BigEndian)
	if err != nil {
		return Entry{}, errors.Context(err, "reading setting %q current type", key)
	}
	nextTag, err := r.Uint32(binary.BigEndian)
	if err != nil {
		return Entry{}, errors.Context(err, "reading setting %q next type", key)
	}

	current, err := DecodeValue(r, currentTag)
	if err != nil {
		return Entry{}, errors.Context(err, "reading setting %q current value", key)
	}
	next, err := DecodeValue(r, nextTag)
	if err != nil {
		return Entry{}, errors.Context(err, "reading setting %q next value", key)
	}

	return Entry{Key: key, Pair: Pair{Current: current, Next: next}}, nil
}

// WriteEntry encodes one entry.
func WriteEntry(w *wire.Writer, e Entry) error {
	if err := w.String32(binary.BigEndian, e.Key); err != nil {
		return errors.Context(err, "writing setting %q key", e.Key)
	}
	if err := w.Uint32(binary.BigEndian, TypeTag(e.Pair.Current)); err != nil {
		return errors.Context(err, "writing setting %q current type", e.Key)
	}
	if err := w.Uint32(binary.BigEndian, TypeTag(e.Pair.Next)); err != nil {
		return errors.Context(err, "writing setting %q next type", e.Key)
	}
	if err := EncodeValue(w, e.Pair.Current); err != nil {
		return errors.Context(err, "writing setting %q current value", e.Key)
	}
	if err := EncodeValue(w, e.Pair.Next); err != nil {
		return errors.Context(err, "writing setting %q next value", e.Key)
	}
	return nil
}
