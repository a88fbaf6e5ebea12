package config

import (
	"path/filepath"

	"github.com/arthur-debert/nmm/pkg/envelope"
	"github.com/arthur-debert/nmm/pkg/paths"
)

// Config is the fully resolved nmm configuration.
type Config struct {
	Noita    Noita    `koanf:"noita" toml:"noita"`
	Packs    Packs    `koanf:"packs" toml:"packs"`
	Settings Settings `koanf:"settings" toml:"settings"`
	Backup   Backup   `koanf:"backup" toml:"backup"`
}

// Noita locates the game's files.
type Noita struct {
	SaveDir     string `koanf:"save_dir" toml:"save_dir"`
	ModsDir     string `koanf:"mods_dir" toml:"mods_dir"`
	WorkshopDir string `koanf:"workshop_dir" toml:"workshop_dir"`
	ModConfig   string `koanf:"mod_config" toml:"mod_config"`
	ModSettings string `koanf:"mod_settings" toml:"mod_settings"`
}

// Packs configures the pack store.
type Packs struct {
	Dir       string `koanf:"dir" toml:"dir"`
	Extension string `koanf:"extension" toml:"extension"`
}

// Settings configures how mod_settings.bin is written.
type Settings struct {
	Codec string `koanf:"codec" toml:"codec"`
}

// Backup configures snapshots taken before nmm overwrites game files.
type Backup struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	Keep    int    `koanf:"keep" toml:"keep"`
}

// ModConfigPath returns the mod_config.xml location.
func (c *Config) ModConfigPath() string {
	return c.savePath(c.Noita.ModConfig, paths.ModConfigFile)
}

// ModSettingsPath returns the mod_settings.bin location.
func (c *Config) ModSettingsPath() string {
	return c.savePath(c.Noita.ModSettings, paths.ModSettingsFile)
}

func (c *Config) savePath(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Noita.SaveDir, name)
}

// ArchiveCompressor returns the codec for settings archives exported by
// nmm. Load has already validated the name. The game's own mod_settings.bin
// does not use it.
func (c *Config) ArchiveCompressor() envelope.Compressor {
	comp, err := envelope.Lookup(c.Settings.Codec)
	if err != nil {
		return envelope.FastLZ
	}
	return comp
}
