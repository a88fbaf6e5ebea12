package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/spf13/afero"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for nmm
	EnvDataDir = "NMM_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for nmm
	EnvConfigDir = "NMM_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for nmm
	EnvStateDir = "NMM_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Fixed names below the XDG directories. User-configurable locations
// belong in pkg/config.
const (
	AppDirName     = "nmm"
	ConfigFileName = "config.toml"
	PacksDirName   = "packs"
	BackupsDirName = "backups"
	LogFileName    = "nmm.log"

	// NoitaAppID is Noita's Steam application id.
	NoitaAppID = "881100"

	// ModConfigFile and ModSettingsFile are the game's file names inside
	// the save directory.
	ModConfigFile   = "mod_config.xml"
	ModSettingsFile = "mod_settings.bin"
)

// Paths provides centralized path management for nmm
type Paths interface {
	DataDir() string
	ConfigDir() string
	StateDir() string
	ConfigFile() string
	PacksDir() string
	BackupsDir() string
	LogFilePath() string
}

type paths struct {
	xdgData   string
	xdgConfig string
	xdgState  string
}

// New creates a Paths instance from the environment.
func New() Paths {
	p := &paths{}
	p.xdgData = fromEnv(EnvDataDir, xdg.DataHome)
	p.xdgConfig = fromEnv(EnvConfigDir, xdg.ConfigHome)
	p.xdgState = fromEnv(EnvStateDir, xdg.StateHome)
	return p
}

// fromEnv returns the expanded override in env, or base/nmm.
func fromEnv(env, base string) string {
	if dir := os.Getenv(env); dir != "" {
		return expandHome(dir)
	}
	return filepath.Join(base, AppDirName)
}

// DataDir returns the XDG data directory for nmm
func (p *paths) DataDir() string { return p.xdgData }

// ConfigDir returns the XDG config directory for nmm
func (p *paths) ConfigDir() string { return p.xdgConfig }

// StateDir returns the XDG state directory for nmm
func (p *paths) StateDir() string { return p.xdgState }

// ConfigFile returns the user configuration file
func (p *paths) ConfigFile() string { return filepath.Join(p.xdgConfig, ConfigFileName) }

// PacksDir returns the default pack directory
func (p *paths) PacksDir() string { return filepath.Join(p.xdgData, PacksDirName) }

// BackupsDir returns the default backup directory
func (p *paths) BackupsDir() string { return filepath.Join(p.xdgData, BackupsDirName) }

// LogFilePath returns the path to the nmm log file
func (p *paths) LogFilePath() string { return filepath.Join(p.xdgState, LogFileName) }

// expandHome expands ~ to the home directory
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := GetHomeDirectory()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the user's home)
	return path
}

// ExpandHome expands a leading ~ in path.
func ExpandHome(path string) string {
	return expandHome(path)
}

// GetHomeDirectory returns the user's home directory with proper error handling
func GetHomeDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if home := os.Getenv(EnvHome); home != "" {
			return home, nil
		}
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to get home directory")
	}
	return homeDir, nil
}

// NoitaSaveDirCandidates lists where the game keeps save00 on goos, most
// likely first. On Linux the game runs under Proton, so the Windows layout
// sits inside the Steam compatibility prefix.
func NoitaSaveDirCandidates(goos, home string) []string {
	windowsSave := filepath.Join("AppData", "LocalLow", "Nolla_Games_Noita", "save00")
	switch goos {
	case "windows":
		return []string{filepath.Join(home, windowsSave)}
	case "darwin":
		return []string{
			filepath.Join(home, "Library", "Application Support", "Steam", "steamapps", "compatdata",
				NoitaAppID, "pfx", "drive_c", "users", "steamuser", windowsSave),
		}
	default:
		prefix := filepath.Join("steamapps", "compatdata", NoitaAppID, "pfx", "drive_c", "users", "steamuser")
		return []string{
			filepath.Join(home, ".local", "share", "Steam", prefix, windowsSave),
			filepath.Join(home, ".steam", "steam", prefix, windowsSave),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam", prefix, windowsSave),
		}
	}
}

// FindNoitaSaveDir returns the first candidate save directory that holds a
// mod_config.xml.
func FindNoitaSaveDir(fsys afero.Fs) (string, error) {
	home, err := GetHomeDirectory()
	if err != nil {
		return "", err
	}
	return findSaveDir(fsys, NoitaSaveDirCandidates(runtime.GOOS, home))
}

func findSaveDir(fsys afero.Fs, candidates []string) (string, error) {
	for _, dir := range candidates {
		if _, err := fsys.Stat(filepath.Join(dir, ModConfigFile)); err == nil {
			return dir, nil
		}
	}
	return "", errors.New(errors.ErrNotFound, "could not find the Noita save directory, set noita.save_dir").
		WithDetail("candidates", candidates)
}
