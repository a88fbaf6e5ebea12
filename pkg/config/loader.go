package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/nmm/pkg/envelope"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/logging"
	"github.com/arthur-debert/nmm/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "NMM_"

// Options controls Load.
type Options struct {
	// File is an explicit config file. It must exist when set; the default
	// user file is optional.
	File string
	// Overrides are flattened keys ("noita.save_dir") applied last.
	Overrides map[string]interface{}
	// Paths supplies default directories. Defaults to paths.New().
	Paths paths.Paths
	// Fs holds the user config file and is searched when detecting the
	// save directory. Nil reads the config file from disk and disables
	// detection.
	Fs afero.Fs
}

// Load resolves the configuration from all layers.
func Load(opts Options) (*Config, error) {
	logger := logging.GetLogger("config")
	if opts.Paths == nil {
		opts.Paths = paths.New()
	}

	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse embedded defaults")
	}

	// 2. User file
	userFile := opts.File
	explicit := userFile != ""
	if !explicit {
		userFile = opts.Paths.ConfigFile()
	}
	userFile = paths.ExpandHome(userFile)
	provider, err := userFileProvider(opts.Fs, userFile)
	switch {
	case err == nil:
		if err := k.Load(provider, parserFor(userFile)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse config file %s", userFile)
		}
		logger.Debug().Str("file", userFile).Msg("Loaded config file")
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read config file %s", userFile)
	case explicit:
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", userFile)
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment variables")
	}

	// 4. Command line
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := postProcess(&cfg, opts); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// userFileProvider returns a provider for the user config file, or an
// os.IsNotExist error when there is none. Without an Fs the file is read
// from disk by koanf.
func userFileProvider(fsys afero.Fs, path string) (koanf.Provider, error) {
	if fsys == nil {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		return file.Provider(path), nil
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return &rawBytesProvider{bytes: data}, nil
}

// parserFor picks the parser from the file extension. TOML is the default.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// envKey maps NMM_NOITA_SAVE_DIR to noita.save_dir. Only the first
// underscore separates the section, keys keep theirs.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

func postProcess(cfg *Config, opts Options) error {
	cfg.Noita.SaveDir = paths.ExpandHome(cfg.Noita.SaveDir)
	cfg.Noita.ModsDir = paths.ExpandHome(cfg.Noita.ModsDir)
	cfg.Noita.WorkshopDir = paths.ExpandHome(cfg.Noita.WorkshopDir)
	cfg.Noita.ModConfig = paths.ExpandHome(cfg.Noita.ModConfig)
	cfg.Noita.ModSettings = paths.ExpandHome(cfg.Noita.ModSettings)

	if cfg.Noita.SaveDir == "" && opts.Fs != nil {
		if dir, err := paths.FindNoitaSaveDir(opts.Fs); err == nil {
			cfg.Noita.SaveDir = dir
		} else {
			logger := logging.GetLogger("config")
			logger.Debug().Err(err).Msg("Save directory not detected")
		}
	}

	cfg.Packs.Dir = paths.ExpandHome(cfg.Packs.Dir)
	if cfg.Packs.Dir == "" {
		cfg.Packs.Dir = opts.Paths.PacksDir()
	}
	if cfg.Packs.Extension != "" && !strings.HasPrefix(cfg.Packs.Extension, ".") {
		cfg.Packs.Extension = "." + cfg.Packs.Extension
	}

	cfg.Backup.Dir = paths.ExpandHome(cfg.Backup.Dir)
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = opts.Paths.BackupsDir()
	}
	if cfg.Backup.Keep < 0 {
		return errors.Newf(errors.ErrConfigParse, "backup.keep must not be negative, got %d", cfg.Backup.Keep)
	}

	cfg.Settings.Codec = strings.ToLower(cfg.Settings.Codec)
	if _, err := envelope.Lookup(cfg.Settings.Codec); err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, "invalid settings.codec").
			WithDetail("known", envelope.Names())
	}
	return nil
}
