package testutil

import (
	"path/filepath"

	"github.com/arthur-debert/nmm/pkg/paths"
)

// Paths is a paths.Paths with every directory below Root.
type Paths struct {
	Root string
}

var _ paths.Paths = Paths{}

// NewPaths returns Paths rooted at dir.
func NewPaths(dir string) Paths { return Paths{Root: dir} }

func (p Paths) DataDir() string   { return filepath.Join(p.Root, "data") }
func (p Paths) ConfigDir() string { return filepath.Join(p.Root, "config") }
func (p Paths) StateDir() string  { return filepath.Join(p.Root, "state") }

// ConfigFile returns the user config file location.
func (p Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir(), paths.ConfigFileName)
}

func (p Paths) PacksDir() string   { return filepath.Join(p.DataDir(), paths.PacksDirName) }
func (p Paths) BackupsDir() string { return filepath.Join(p.DataDir(), paths.BackupsDirName) }

// LogFilePath returns the log file location.
func (p Paths) LogFilePath() string {
	return filepath.Join(p.StateDir(), paths.LogFileName)
}
