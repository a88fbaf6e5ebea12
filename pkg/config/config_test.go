package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/nmm/pkg/envelope"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUserFile(t *testing.T, p testutil.Paths, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(p.ConfigDir(), 0755))
	require.NoError(t, os.WriteFile(p.ConfigFile(), []byte(content), 0644))
}

func TestLoadDefaults(t *testing.T) {
	testutil.ClearEnv(t)
	p := testutil.NewPaths(t.TempDir())

	cfg, err := Load(Options{Paths: p})
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Noita.SaveDir)
	assert.Equal(t, p.PacksDir(), cfg.Packs.Dir)
	assert.Equal(t, ".nmmpack", cfg.Packs.Extension)
	assert.Equal(t, "fastlz", cfg.Settings.Codec)
	assert.True(t, cfg.Backup.Enabled)
	assert.Equal(t, p.BackupsDir(), cfg.Backup.Dir)
	assert.Equal(t, 20, cfg.Backup.Keep)
	assert.Equal(t, envelope.FastLZ, cfg.ArchiveCompressor())
}

func TestLoadLayering(t *testing.T) {
	testutil.ClearEnv(t)
	p := testutil.NewPaths(t.TempDir())
	writeUserFile(t, p, `
[noita]
save_dir = "/games/save00"

[packs]
extension = "pack"

[settings]
codec = "LZ4"

[backup]
keep = 3
`)

	t.Run("user file", func(t *testing.T) {
		cfg, err := Load(Options{Paths: p})
		require.NoError(t, err)
		assert.Equal(t, "/games/save00", cfg.Noita.SaveDir)
		assert.Equal(t, ".pack", cfg.Packs.Extension)
		assert.Equal(t, "lz4", cfg.Settings.Codec)
		assert.Equal(t, envelope.LZ4, cfg.ArchiveCompressor())
		assert.Equal(t, 3, cfg.Backup.Keep)
	})

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv("NMM_NOITA_SAVE_DIR", "/env/save00")
		t.Setenv("NMM_BACKUP_KEEP", "7")
		t.Setenv("NMM_BACKUP_ENABLED", "false")
		cfg, err := Load(Options{Paths: p})
		require.NoError(t, err)
		assert.Equal(t, "/env/save00", cfg.Noita.SaveDir)
		assert.Equal(t, 7, cfg.Backup.Keep)
		assert.False(t, cfg.Backup.Enabled)
	})

	t.Run("overrides beat env", func(t *testing.T) {
		t.Setenv("NMM_NOITA_SAVE_DIR", "/env/save00")
		cfg, err := Load(Options{
			Paths:     p,
			Overrides: map[string]interface{}{"noita.save_dir": "/flag/save00"},
		})
		require.NoError(t, err)
		assert.Equal(t, "/flag/save00", cfg.Noita.SaveDir)
	})
}

func TestLoadExplicitFile(t *testing.T) {
	testutil.ClearEnv(t)
	p := testutil.NewPaths(t.TempDir())

	_, err := Load(Options{Paths: p, File: filepath.Join(p.Root, "missing.toml")})
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfigLoad, errors.GetErrorCode(err))

	custom := filepath.Join(p.Root, "custom.toml")
	require.NoError(t, os.WriteFile(custom, []byte("[packs]\ndir = \"/p\"\n"), 0644))
	cfg, err := Load(Options{Paths: p, File: custom})
	require.NoError(t, err)
	assert.Equal(t, "/p", cfg.Packs.Dir)
}

func TestLoadYAMLFile(t *testing.T) {
	testutil.ClearEnv(t)
	p := testutil.NewPaths(t.TempDir())
	custom := filepath.Join(p.Root, "nmm.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("settings:\n  codec: lz4\nbackup:\n  enabled: false\n"), 0644))

	cfg, err := Load(Options{Paths: p, File: custom})
	require.NoError(t, err)
	assert.Equal(t, "lz4", cfg.Settings.Codec)
	assert.False(t, cfg.Backup.Enabled)
}

func TestLoadFromInjectedFs(t *testing.T) {
	testutil.ClearEnv(t)
	p := testutil.NewPaths("/home/player")
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, p.ConfigFile(), []byte(`
[noita]
save_dir = "/games/save00"

[settings]
codec = "lz4"
`), 0644))

	cfg, err := Load(Options{Paths: p, Fs: fsys})
	require.NoError(t, err)
	assert.Equal(t, "/games/save00", cfg.Noita.SaveDir)
	assert.Equal(t, "lz4", cfg.Settings.Codec)

	require.NoError(t, afero.WriteFile(fsys, "/etc/nmm.yml", []byte("backup:\n  keep: 4\n"), 0644))
	cfg, err = Load(Options{Paths: p, Fs: fsys, File: "/etc/nmm.yml"})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Backup.Keep)

	_, err = Load(Options{Paths: p, Fs: fsys, File: "/etc/missing.toml"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfigLoad, errors.GetErrorCode(err))

	require.NoError(t, afero.WriteFile(fsys, p.ConfigFile(), []byte("[noita\n"), 0644))
	_, err = Load(Options{Paths: p, Fs: fsys})
	assert.Equal(t, errors.ErrConfigParse, errors.GetErrorCode(err))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown codec", "[settings]\ncodec = \"zip\"\n"},
		{"negative keep", "[backup]\nkeep = -1\n"},
		{"broken toml", "[noita\nsave_dir = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.ClearEnv(t)
			p := testutil.NewPaths(t.TempDir())
			writeUserFile(t, p, tt.content)

			_, err := Load(Options{Paths: p})
			require.Error(t, err)
			assert.Equal(t, errors.ErrConfigParse, errors.GetErrorCode(err))
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "noita.save_dir", envKey("NMM_NOITA_SAVE_DIR"))
	assert.Equal(t, "settings.codec", envKey("NMM_SETTINGS_CODEC"))
	assert.Equal(t, "backup.keep", envKey("NMM_BACKUP_KEEP"))
}

func TestGamePaths(t *testing.T) {
	cfg := &Config{Noita: Noita{SaveDir: "/s"}}
	assert.Equal(t, "/s/mod_config.xml", cfg.ModConfigPath())
	assert.Equal(t, "/s/mod_settings.bin", cfg.ModSettingsPath())

	cfg.Noita.ModConfig = "mods.xml"
	cfg.Noita.ModSettings = "/elsewhere/ms.bin"
	assert.Equal(t, "/s/mods.xml", cfg.ModConfigPath())
	assert.Equal(t, "/elsewhere/ms.bin", cfg.ModSettingsPath())
}

func TestMarshal(t *testing.T) {
	testutil.ClearEnv(t)
	cfg, err := Load(Options{Paths: testutil.NewPaths(t.TempDir())})
	require.NoError(t, err)

	data, err := Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[settings]")
	assert.Contains(t, string(data), "codec = 'fastlz'")
}

func TestWriteUserConfig(t *testing.T) {
	testutil.ClearEnv(t)
	p := testutil.NewPaths(t.TempDir())
	cfg, err := Load(Options{Paths: p, Overrides: map[string]interface{}{"noita.save_dir": "/games/save00"}})
	require.NoError(t, err)

	fsys := afero.NewMemMapFs()
	path := "/cfg/nmm/config.toml"

	require.NoError(t, WriteUserConfig(fsys, path, cfg, false))
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "save_dir = '/games/save00'")

	err = WriteUserConfig(fsys, path, cfg, false)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))

	require.NoError(t, afero.WriteFile(fsys, path, []byte("old"), 0644))
	require.NoError(t, WriteUserConfig(fsys, path, cfg, true))
	data, err = afero.ReadFile(fsys, path)
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(data))

	// The written file loads back to the same configuration.
	require.NoError(t, os.MkdirAll(p.ConfigDir(), 0755))
	require.NoError(t, os.WriteFile(p.ConfigFile(), data, 0644))
	again, err := Load(Options{Paths: p})
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}
