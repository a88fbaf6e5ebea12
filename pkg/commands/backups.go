package commands

import (
	"path/filepath"

	"github.com/arthur-debert/nmm/pkg/backup"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/paths"
)

func (e Env) requireBackups() (*backup.Store, error) {
	store := e.Backups()
	if store == nil {
		return nil, errors.New(errors.ErrInvalidInput, "backups are disabled, set backup.enabled")
	}
	return store, nil
}

// ListBackups returns stored backups, newest first.
func ListBackups(env Env) ([]backup.Entry, error) {
	store, err := env.requireBackups()
	if err != nil {
		return nil, err
	}
	return store.List()
}

// RestoreBackupResult names what was restored where.
type RestoreBackupResult struct {
	Entry  backup.Entry
	Target string
}

// RestoreBackup writes the backup whose id starts with id back to the game
// file it was taken from.
func RestoreBackup(env Env, id string) (*RestoreBackupResult, error) {
	store, err := env.requireBackups()
	if err != nil {
		return nil, err
	}
	entry, err := store.Find(id)
	if err != nil {
		return nil, err
	}
	if err := env.requireSaveDir(); err != nil {
		return nil, err
	}

	var target string
	switch entry.Name {
	case paths.ModSettingsFile, filepath.Base(env.Config.ModSettingsPath()):
		target = env.Config.ModSettingsPath()
	case paths.ModConfigFile, filepath.Base(env.Config.ModConfigPath()):
		target = env.Config.ModConfigPath()
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "backup %s is of %s, which nmm does not manage", entry.ID(), entry.Name)
	}

	if err := store.Restore(entry, target); err != nil {
		return nil, err
	}
	return &RestoreBackupResult{Entry: entry, Target: target}, nil
}
