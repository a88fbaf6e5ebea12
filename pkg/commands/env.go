// Package commands implements nmm's operations on top of the domain
// packages. Each operation takes an options struct carrying the resolved
// configuration and a filesystem, and returns plain results for the CLI
// to render.
package commands

import (
	"github.com/arthur-debert/nmm/pkg/backup"
	"github.com/arthur-debert/nmm/pkg/config"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/modlist"
	"github.com/arthur-debert/nmm/pkg/packstore"
	"github.com/arthur-debert/nmm/pkg/settings"
	"github.com/spf13/afero"
)

// Env is shared by every operation.
type Env struct {
	Fs     afero.Fs
	Config *config.Config
}

// Packs returns the configured pack store.
func (e Env) Packs() *packstore.Store {
	return packstore.New(e.Fs, e.Config.Packs.Dir, e.Config.Packs.Extension)
}

// Backups returns the backup store, or nil when backups are disabled.
func (e Env) Backups() *backup.Store {
	if !e.Config.Backup.Enabled {
		return nil
	}
	return backup.New(e.Fs, e.Config.Backup.Dir, e.Config.Backup.Keep)
}

func (e Env) requireSaveDir() error {
	if e.Config.Noita.SaveDir == "" && (e.Config.Noita.ModConfig == "" || e.Config.Noita.ModSettings == "") {
		return errors.New(errors.ErrInvalidInput, "the Noita save directory is not known, set noita.save_dir or pass --save-dir")
	}
	return nil
}

// LoadSettings reads mod_settings.bin.
func (e Env) LoadSettings() (*settings.Store, error) {
	if err := e.requireSaveDir(); err != nil {
		return nil, err
	}
	return settings.LoadFile(e.Fs, e.Config.ModSettingsPath(), settings.GameCompressor)
}

// LoadMods reads mod_config.xml and resolves each mod's kind.
func (e Env) LoadMods() (*modlist.List, error) {
	if err := e.requireSaveDir(); err != nil {
		return nil, err
	}
	l, err := modlist.Load(e.Fs, e.Config.ModConfigPath())
	if err != nil {
		return nil, err
	}
	if err := modlist.ResolveKinds(e.Fs, e.Config.Noita.ModsDir, e.Config.Noita.WorkshopDir, l); err != nil {
		return nil, err
	}
	return l, nil
}

// snapshot backs up the game files before they are overwritten.
func (e Env) snapshot(paths ...string) ([]backup.Entry, error) {
	store := e.Backups()
	if store == nil {
		return nil, nil
	}
	var taken []backup.Entry
	for _, p := range paths {
		entry, err := store.Snapshot(p)
		if err != nil {
			return taken, err
		}
		if entry != nil {
			taken = append(taken, *entry)
		}
	}
	return taken, nil
}
