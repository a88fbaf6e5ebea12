// Package backup keeps compressed copies of game files before nmm
// overwrites them.
//
// A backup is stored as <hash>.<name>.zst where hash is the hex BLAKE3
// digest of the uncompressed content and name is the base name of the file
// it came from. Backing up content that is already stored only refreshes
// that backup's timestamp. Per file name, only the newest Keep backups are
// retained.
package backup

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/filesystem"
	"github.com/arthur-debert/nmm/pkg/logging"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

const suffix = ".zst"

// IDLength is how many hex digits of the hash are shown as a backup id.
const IDLength = 12

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("backup: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("backup: zstd decoder initialization failed: " + err.Error())
	}
}

// Entry describes one stored backup.
type Entry struct {
	Hash     string
	Name     string
	FileName string
	Size     int64
	Time     time.Time
}

// ID returns the short form of the hash used on the command line.
func (e Entry) ID() string {
	if len(e.Hash) > IDLength {
		return e.Hash[:IDLength]
	}
	return e.Hash
}

// Store is a backup directory.
type Store struct {
	fs   afero.Fs
	dir  string
	keep int
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now as the source of backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store in dir keeping at most keep backups per file name.
// keep <= 0 keeps everything.
func New(fs afero.Fs, dir string, keep int, opts ...Option) *Store {
	s := &Store{fs: fs, dir: dir, keep: keep, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the backup directory.
func (s *Store) Dir() string { return s.dir }

// Hash returns the hex BLAKE3 digest of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Snapshot backs up the file at path. It returns nil without error when the
// file does not exist yet.
func (s *Store) Snapshot(path string) (*Entry, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "reading %s for backup", path)
	}
	return s.Add(filepath.Base(path), data)
}

// Add stores data as a backup of the file called name.
func (s *Store) Add(name string, data []byte) (*Entry, error) {
	logger := logging.GetLogger("backup")

	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, errors.Newf(errors.ErrInvalidInput, "invalid backup name %q", name)
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "creating backup directory %s", s.dir)
	}

	hash := Hash(data)
	fileName := hash + "." + name + suffix
	path := filepath.Join(s.dir, fileName)
	now := s.now()

	if filesystem.Exists(s.fs, path) {
		if err := s.fs.Chtimes(path, now, now); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileWrite, "refreshing backup %s", path)
		}
		logger.Debug().Str("name", name).Str("hash", hash).Msg("Content already backed up")
	} else {
		compressed := encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
		if err := filesystem.WriteFileAtomic(s.fs, path, compressed, 0644); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileWrite, "writing backup %s", path)
		}
		if err := s.fs.Chtimes(path, now, now); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileWrite, "timestamping backup %s", path)
		}
		logger.Info().
			Str("name", name).
			Str("hash", hash).
			Int("size", len(data)).
			Int("stored_size", len(compressed)).
			Msg("Backed up file")
	}

	if err := s.prune(name); err != nil {
		return nil, err
	}

	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "reading backup %s", path)
	}
	return &Entry{Hash: hash, Name: name, FileName: fileName, Size: info.Size(), Time: info.ModTime()}, nil
}

// List returns every backup, newest first.
func (s *Store) List() ([]Entry, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "listing backups in %s", s.dir)
	}

	var entries []Entry
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		hash, name, ok := parseFileName(info.Name())
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Hash:     hash,
			Name:     name,
			FileName: info.Name(),
			Size:     info.Size(),
			Time:     info.ModTime(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Time.Equal(entries[j].Time) {
			return entries[i].Time.After(entries[j].Time)
		}
		return entries[i].FileName < entries[j].FileName
	})
	return entries, nil
}

func parseFileName(fileName string) (hash, name string, ok bool) {
	if !strings.HasSuffix(fileName, suffix) {
		return "", "", false
	}
	stem := strings.TrimSuffix(fileName, suffix)
	dot := strings.IndexByte(stem, '.')
	if dot <= 0 || dot == len(stem)-1 {
		return "", "", false
	}
	hash, name = stem[:dot], stem[dot+1:]
	if _, err := hex.DecodeString(hash); err != nil {
		return "", "", false
	}
	return hash, name, true
}

// Find returns the backup whose hash starts with id. The prefix must be
// unique.
func (s *Store) Find(id string) (Entry, error) {
	id = strings.ToLower(id)
	if id == "" {
		return Entry{}, errors.New(errors.ErrInvalidInput, "empty backup id")
	}
	entries, err := s.List()
	if err != nil {
		return Entry{}, err
	}
	var found []Entry
	for _, e := range entries {
		if strings.HasPrefix(e.Hash, id) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return Entry{}, errors.Newf(errors.ErrNotFound, "no backup matches %q", id)
	case 1:
		return found[0], nil
	default:
		// The same content backed up from two files is still one payload.
		for _, e := range found[1:] {
			if e.Hash != found[0].Hash {
				return Entry{}, errors.Newf(errors.ErrInvalidInput, "backup id %q is ambiguous", id).
					WithDetail("matches", len(found))
			}
		}
		return found[0], nil
	}
}

// Read returns the uncompressed content of a backup.
func (s *Store) Read(e Entry) ([]byte, error) {
	path := filepath.Join(s.dir, e.FileName)
	compressed, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileNotFound, "opening backup %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "opening backup %s", path)
	}
	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDecompressionFailed, "decompressing backup %s", path)
	}
	if Hash(data) != e.Hash {
		return nil, errors.Newf(errors.ErrDecompressionFailed, "backup %s does not match its hash", path)
	}
	return data, nil
}

// Restore writes the backup e to target, backing up whatever target holds
// first.
func (s *Store) Restore(e Entry, target string) error {
	data, err := s.Read(e)
	if err != nil {
		return err
	}
	if _, err := s.Snapshot(target); err != nil {
		return errors.Context(err, "backing up %s before restore", target)
	}
	if err := filesystem.WriteFileAtomic(s.fs, target, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "restoring %s", target)
	}
	logger := logging.GetLogger("backup")
	logger.Info().Str("hash", e.Hash).Str("target", target).Msg("Restored backup")
	return nil
}

func (s *Store) prune(name string) error {
	if s.keep <= 0 {
		return nil
	}
	entries, err := s.List()
	if err != nil {
		return err
	}
	logger := logging.GetLogger("backup")
	kept := 0
	for _, e := range entries {
		if e.Name != name {
			continue
		}
		kept++
		if kept <= s.keep {
			continue
		}
		if err := s.fs.Remove(filepath.Join(s.dir, e.FileName)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrFileWrite, "pruning backup %s", e.FileName)
		}
		logger.Debug().Str("file", e.FileName).Msg("Pruned old backup")
	}
	return nil
}
