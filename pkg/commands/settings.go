package commands

import (
	"github.com/arthur-debert/nmm/pkg/backup"
	"github.com/arthur-debert/nmm/pkg/envelope"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/filesystem"
	"github.com/arthur-debert/nmm/pkg/hierarchy"
	"github.com/arthur-debert/nmm/pkg/logging"
	"github.com/arthur-debert/nmm/pkg/settings"
	"github.com/spf13/afero"
)

// ListSettingsOptions defines the options for ListSettings.
type ListSettingsOptions struct {
	Env
	// Prefix restricts the listing to keys starting with it.
	Prefix string
}

// ListSettings returns the settings ordered by key.
func ListSettings(opts ListSettingsOptions) ([]settings.Entry, error) {
	store, err := opts.LoadSettings()
	if err != nil {
		return nil, err
	}
	if opts.Prefix == "" {
		return store.Entries(), nil
	}
	return store.WithPrefix(opts.Prefix), nil
}

// GetSetting returns a single setting.
func GetSetting(env Env, key string) (settings.Entry, error) {
	store, err := env.LoadSettings()
	if err != nil {
		return settings.Entry{}, err
	}
	pair, ok := store.Get(key)
	if !ok {
		return settings.Entry{}, errors.Newf(errors.ErrNotFound, "no setting %q", key)
	}
	return settings.Entry{Key: key, Pair: pair}, nil
}

// SettingsTree builds the hierarchy and returns the group at path, or the
// root for an empty path.
func SettingsTree(env Env, path string) (*hierarchy.Group, error) {
	store, err := env.LoadSettings()
	if err != nil {
		return nil, err
	}
	root := hierarchy.Build(store)
	g, ok := root.FindGroup(path)
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "no settings group %q", path)
	}
	return g, nil
}

// UnpackSettings writes the decompressed payload of the settings file to
// out and returns its size.
func UnpackSettings(env Env, out string) (int, error) {
	if err := env.requireSaveDir(); err != nil {
		return 0, err
	}
	path := env.Config.ModSettingsPath()
	data, err := afero.ReadFile(env.Fs, path)
	if err != nil {
		if filesystem.Exists(env.Fs, path) {
			return 0, errors.Wrapf(err, errors.ErrFileAccess, "reading %s", path)
		}
		return 0, errors.Wrapf(err, errors.ErrFileNotFound, "reading %s", path)
	}

	payload, err := envelope.DecompressBytes(data, settings.GameCompressor)
	if err != nil {
		return 0, errors.Context(err, "unpacking %s", path)
	}
	if err := filesystem.WriteFileAtomic(env.Fs, out, payload, 0644); err != nil {
		return 0, errors.Wrapf(err, errors.ErrFileWrite, "writing %s", out)
	}
	logger := logging.GetLogger("commands")
	logger.Info().
		Str("path", path).
		Str("out", out).
		Int("stored_size", len(data)).
		Int("original_size", len(payload)).
		Msg("Unpacked settings")
	return len(payload), nil
}

// ExportSettingsOptions defines the options for ExportSettings.
type ExportSettingsOptions struct {
	Env
	// Out is the archive file to write.
	Out string
	// Prefix restricts the archive to keys starting with it.
	Prefix string
}

// ExportSettingsResult describes a written settings archive.
type ExportSettingsResult struct {
	Path    string
	Codec   string
	Entries int
}

// ExportSettings writes the live settings to an archive in the same layout
// as mod_settings.bin, compressed with the configured archive codec.
func ExportSettings(opts ExportSettingsOptions) (*ExportSettingsResult, error) {
	store, err := opts.LoadSettings()
	if err != nil {
		return nil, err
	}
	if opts.Prefix != "" {
		filtered := settings.NewStore()
		for _, e := range store.WithPrefix(opts.Prefix) {
			filtered.Set(e.Key, e.Pair)
		}
		store = filtered
	}

	codec := opts.Config.ArchiveCompressor()
	if err := settings.SaveFile(opts.Fs, opts.Out, store, codec); err != nil {
		return nil, err
	}
	logger := logging.GetLogger("commands")
	logger.Info().
		Str("out", opts.Out).
		Str("codec", codec.Name()).
		Int("entries", store.Len()).
		Msg("Exported settings")
	return &ExportSettingsResult{Path: opts.Out, Codec: codec.Name(), Entries: store.Len()}, nil
}

// ImportSettingsOptions defines the options for ImportSettings.
type ImportSettingsOptions struct {
	Env
	// In is an archive written by ExportSettings.
	In     string
	DryRun bool
}

// ImportSettingsResult describes what importing an archive changed.
type ImportSettingsResult struct {
	Imported int
	Total    int
	Backups  []backup.Entry
}

// ImportSettings merges an archive into mod_settings.bin, overwriting keys
// that already exist. The archive is read with the configured archive codec;
// the game file is always written with the game's codec.
func ImportSettings(opts ImportSettingsOptions) (*ImportSettingsResult, error) {
	archive, err := settings.LoadFile(opts.Fs, opts.In, opts.Config.ArchiveCompressor())
	if err != nil {
		return nil, errors.Context(err, "reading settings archive")
	}
	store, err := opts.LoadSettings()
	if err != nil {
		if !errors.IsErrorCode(err, errors.ErrFileNotFound) {
			return nil, err
		}
		store = settings.NewStore()
	}
	store.Merge(archive)

	res := &ImportSettingsResult{Imported: archive.Len(), Total: store.Len()}
	if opts.DryRun {
		return res, nil
	}

	path := opts.Config.ModSettingsPath()
	res.Backups, err = opts.snapshot(path)
	if err != nil {
		return nil, errors.Context(err, "backing up before importing %s", opts.In)
	}
	if err := settings.SaveFile(opts.Fs, path, store, settings.GameCompressor); err != nil {
		return nil, err
	}
	logger := logging.GetLogger("commands")
	logger.Info().Str("in", opts.In).Int("imported", res.Imported).Msg("Imported settings")
	return res, nil
}
