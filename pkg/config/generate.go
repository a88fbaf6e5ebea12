package config

import (
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/filesystem"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Marshal renders the resolved configuration as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to marshal configuration")
	}
	return data, nil
}

// WriteUserConfig writes cfg to path as TOML. An existing file is only
// replaced when force is set.
func WriteUserConfig(fsys afero.Fs, path string, cfg *Config, force bool) error {
	if !force && filesystem.Exists(fsys, path) {
		return errors.Newf(errors.ErrAlreadyExists, "config file %s already exists", path).
			WithDetail("path", path)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := filesystem.WriteFileAtomic(fsys, path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write config file %s", path)
	}
	return nil
}
