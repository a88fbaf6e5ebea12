// Package packstore keeps mod packs as individual files in one directory.
package packstore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/filesystem"
	"github.com/arthur-debert/nmm/pkg/logging"
	"github.com/arthur-debert/nmm/pkg/modpack"
	"github.com/spf13/afero"
)

// DefaultExtension is used when none is configured.
const DefaultExtension = ".nmmpack"

// Store is a directory of pack files.
type Store struct {
	fs  afero.Fs
	dir string
	ext string
}

// New returns a store rooted at dir. Only files ending in ext are packs.
func New(fs afero.Fs, dir, ext string) *Store {
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Store{fs: fs, dir: dir, ext: ext}
}

// Dir returns the directory holding the packs.
func (s *Store) Dir() string { return s.dir }

// Failure records a pack file that could not be loaded.
type Failure struct {
	FileName string
	Err      error
}

// List loads every pack in the directory, ordered by name then file name.
// Files that fail to load are reported separately instead of aborting the
// listing. A missing directory holds no packs.
func (s *Store) List() ([]*modpack.Pack, []Failure, error) {
	logger := logging.GetLogger("packstore")

	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, errors.Wrapf(err, errors.ErrFileAccess, "listing packs in %s", s.dir)
	}

	var packs []*modpack.Pack
	var failures []Failure
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), s.ext) {
			continue
		}
		p, err := s.Load(entry.Name())
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable pack")
			failures = append(failures, Failure{FileName: entry.Name(), Err: err})
			continue
		}
		packs = append(packs, p)
	}

	sort.SliceStable(packs, func(i, j int) bool {
		if packs[i].Name != packs[j].Name {
			return packs[i].Name < packs[j].Name
		}
		return packs[i].FileName < packs[j].FileName
	})
	logger.Debug().Str("dir", s.dir).Int("packs", len(packs)).Int("failures", len(failures)).Msg("Listed packs")
	return packs, failures, nil
}

// Path returns the full path of a pack file name.
func (s *Store) Path(fileName string) string {
	return filepath.Join(s.dir, fileName)
}

// Load reads one pack by file name. A path with a directory component is
// read as given.
func (s *Store) Load(fileName string) (*modpack.Pack, error) {
	path := fileName
	if filepath.Base(fileName) == fileName {
		path = s.Path(fileName)
	}

	f, err := s.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileNotFound, "opening pack %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "opening pack %s", path)
	}
	defer func() { _ = f.Close() }()

	p, err := modpack.Load(f, filepath.Base(path))
	if err != nil {
		return nil, errors.Context(err, "reading pack file %s", path)
	}
	return p, nil
}

// Save writes p with the given inclusion set. When p has no file name one
// is derived from its name that does not collide with an existing pack;
// p.FileName is updated. The written file name is returned.
func (s *Store) Save(p *modpack.Pack, inclusion map[string]struct{}) (string, error) {
	if p.FileName == "" {
		name, err := s.freeName(Slug(p.Name))
		if err != nil {
			return "", err
		}
		p.FileName = name
	}

	var buf bytes.Buffer
	if err := p.Save(&buf, inclusion); err != nil {
		return "", err
	}

	path := s.Path(p.FileName)
	if err := filesystem.WriteFileAtomic(s.fs, path, buf.Bytes(), 0644); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileWrite, "writing pack %s", path)
	}
	logger := logging.GetLogger("packstore")
	logger.Info().Str("pack", p.Name).Str("path", path).Msg("Saved pack")
	return p.FileName, nil
}

// Create saves p under a new file name and fails if a pack with the same
// name already exists.
func (s *Store) Create(p *modpack.Pack, inclusion map[string]struct{}) (string, error) {
	packs, _, err := s.List()
	if err != nil {
		return "", err
	}
	for _, existing := range packs {
		if existing.Name == p.Name {
			return "", errors.Newf(errors.ErrAlreadyExists, "a pack named %q already exists", p.Name).
				WithDetail("file", existing.FileName)
		}
	}
	p.FileName = ""
	return s.Save(p, inclusion)
}

// Delete removes a pack file.
func (s *Store) Delete(fileName string) error {
	path := s.Path(fileName)
	if err := s.fs.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrFileNotFound, "removing pack %s", path)
		}
		return errors.Wrapf(err, errors.ErrFileWrite, "removing pack %s", path)
	}
	return nil
}

func (s *Store) freeName(base string) (string, error) {
	for i := 1; i < 10000; i++ {
		name := base + s.ext
		if i > 1 {
			name = fmt.Sprintf("%s-%d%s", base, i, s.ext)
		}
		if !filesystem.Exists(s.fs, s.Path(name)) {
			return name, nil
		}
	}
	return "", errors.Newf(errors.ErrAlreadyExists, "no free file name for pack %s", base)
}

// Slug turns a pack name into a file name stem: lower case letters and
// digits separated by single dashes.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "pack"
	}
	return b.String()
}
