package settings

import (
	"bytes"
	"os"

	"github.com/arthur-debert/nmm/pkg/envelope"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/filesystem"
	"github.com/spf13/afero"
)

// GameCompressor is the codec the game uses for mod_settings.bin. The
// envelope does not record which codec produced it, so the game's file is
// always read and written with this one.
var GameCompressor envelope.Compressor = envelope.FastLZ

// LoadFile reads the settings file at path.
func LoadFile(fsys afero.Fs, path string, c envelope.Compressor) (*Store, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileNotFound, "opening mod settings %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "opening mod settings %s", path)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "getting metadata for mod settings %s", path)
	}

	store, err := Load(f, info.Size(), c)
	if err != nil {
		return nil, errors.Context(err, "loading mod settings %s", path)
	}
	return store, nil
}

// SaveFile replaces the settings file at path with s.
func SaveFile(fsys afero.Fs, path string, s *Store, c envelope.Compressor) error {
	var buf bytes.Buffer
	if err := Save(&buf, s, c); err != nil {
		return errors.Context(err, "saving mod settings %s", path)
	}
	if err := filesystem.WriteFileAtomic(fsys, path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "writing mod settings %s", path)
	}
	return nil
}
