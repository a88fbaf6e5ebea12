package commands

import (
	"strings"

	"github.com/arthur-debert/nmm/pkg/backup"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/hierarchy"
	"github.com/arthur-debert/nmm/pkg/logging"
	"github.com/arthur-debert/nmm/pkg/modlist"
	"github.com/arthur-debert/nmm/pkg/modpack"
	"github.com/arthur-debert/nmm/pkg/packstore"
	"github.com/arthur-debert/nmm/pkg/settings"
)

// ListPacksResult holds the readable packs and the files that failed.
type ListPacksResult struct {
	Packs    []*modpack.Pack
	Failures []packstore.Failure
}

// ListPacks reads every pack in the pack directory.
func ListPacks(env Env) (*ListPacksResult, error) {
	packs, failures, err := env.Packs().List()
	if err != nil {
		return nil, err
	}
	logger := logging.GetLogger("commands")
	for _, f := range failures {
		logger.Warn().Str("file", f.FileName).Err(f.Err).Msg("Skipping unreadable pack")
	}
	return &ListPacksResult{Packs: packs, Failures: failures}, nil
}

// ShowPackResult is a pack and the installed mods to compare it with.
type ShowPackResult struct {
	Pack *modpack.Pack
	// Installed is nil when the mod config could not be read.
	Installed map[string]struct{}
}

// ShowPack loads one pack.
func ShowPack(env Env, file string) (*ShowPackResult, error) {
	p, err := env.Packs().Load(file)
	if err != nil {
		return nil, err
	}
	res := &ShowPackResult{Pack: p}
	if mods, err := env.LoadMods(); err == nil {
		res.Installed = mods.Installed()
	} else {
		logger := logging.GetLogger("commands")
		logger.Debug().Err(err).Msg("Mod config unavailable")
	}
	return res, nil
}

// CreatePackOptions defines the options for CreatePack.
type CreatePackOptions struct {
	Env
	Name string
	// Includes are setting keys or group paths exported with the pack.
	Includes []string
	// All exports every setting.
	All bool
	// Mods overrides the mod list. By default the enabled mods are taken
	// from the mod config in load order.
	Mods []string
	// DryRun builds the pack without writing it.
	DryRun bool
}

// CreatePackResult describes a new pack.
type CreatePackResult struct {
	Pack     *modpack.Pack
	FileName string
	// Exported is the number of settings written.
	Exported int
	// Tree is the settings hierarchy with the exported nodes selected.
	Tree *hierarchy.Group
}

// CreatePack snapshots the current settings and mods into a new pack.
func CreatePack(opts CreatePackOptions) (*CreatePackResult, error) {
	logger := logging.GetLogger("commands")
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, errors.New(errors.ErrInvalidInput, "a pack needs a name")
	}

	store, err := opts.LoadSettings()
	if err != nil {
		if !errors.IsErrorCode(err, errors.ErrFileNotFound) || opts.All || len(opts.Includes) > 0 {
			return nil, err
		}
		store = settings.NewStore()
	}

	root := hierarchy.Build(store)
	if opts.All {
		root.ToggleSubtree(true)
	}
	for _, path := range opts.Includes {
		if !root.Select(path, true) {
			return nil, errors.Newf(errors.ErrNotFound, "no setting or group %q", path)
		}
	}
	inclusion := root.InclusionSet()

	mods := opts.Mods
	if mods == nil {
		list, err := opts.LoadMods()
		if err != nil {
			return nil, errors.Context(err, "reading enabled mods")
		}
		mods = list.EnabledIDs()
	}

	p := modpack.New(name, "", mods, store.Filter(inclusion))
	res := &CreatePackResult{Pack: p, Exported: p.Settings.Len(), Tree: root}
	if opts.DryRun {
		return res, nil
	}
	fileName, err := opts.Packs().Create(p, inclusion)
	if err != nil {
		return nil, err
	}
	res.FileName = fileName
	logger.Info().Str("pack", name).Str("file", fileName).Int("mods", len(mods)).Int("settings", len(inclusion)).Msg("Created pack")
	return res, nil
}

// ApplyPackOptions defines the options for ApplyPack.
type ApplyPackOptions struct {
	Env
	File   string
	DryRun bool
}

// ApplyPackResult describes what applying a pack changed.
type ApplyPackResult struct {
	Pack    *modpack.Pack
	Result  modpack.ApplyResult
	Mods    []modlist.Mod
	Missing []string
	Backups []backup.Entry
}

// ApplyPack applies a pack to the game's mod config and settings. The
// previous files are backed up first unless backups are disabled.
func ApplyPack(opts ApplyPackOptions) (*ApplyPackResult, error) {
	logger := logging.GetLogger("commands")
	done := logging.LogOperationStart(logger, "apply pack")
	defer done()

	p, err := opts.Packs().Load(opts.File)
	if err != nil {
		return nil, err
	}
	list, err := opts.LoadMods()
	if err != nil {
		return nil, err
	}
	store, err := opts.LoadSettings()
	if err != nil {
		if !errors.IsErrorCode(err, errors.ErrFileNotFound) {
			return nil, err
		}
		logger.Info().Msg("No settings file yet, starting empty")
		store = settings.NewStore()
	}

	res := &ApplyPackResult{
		Pack:    p,
		Result:  p.Apply(store, list.Mods),
		Mods:    list.Mods,
		Missing: p.MissingMods(list.Installed()),
	}
	if opts.DryRun {
		return res, nil
	}

	cfg := opts.Config
	res.Backups, err = opts.snapshot(cfg.ModSettingsPath(), cfg.ModConfigPath())
	if err != nil {
		return nil, errors.Context(err, "backing up before applying %s", p.Name)
	}
	if err := settings.SaveFile(opts.Fs, cfg.ModSettingsPath(), store, settings.GameCompressor); err != nil {
		return nil, err
	}
	if err := modlist.Save(opts.Fs, cfg.ModConfigPath(), list); err != nil {
		return nil, err
	}
	logger.Info().
		Str("pack", p.Name).
		Int("enabled", len(res.Result.Enabled)).
		Int("settings", res.Result.Settings).
		Msg("Applied pack")
	return res, nil
}

// DeletePack removes a pack file.
func DeletePack(env Env, file string) error {
	return env.Packs().Delete(file)
}
