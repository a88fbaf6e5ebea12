package testutil

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/nmm/pkg/envelope"
	"github.com/arthur-debert/nmm/pkg/modlist"
	"github.com/arthur-debert/nmm/pkg/paths"
	"github.com/arthur-debert/nmm/pkg/settings"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// SaveBuilder sets up a save directory holding mod_config.xml and
// mod_settings.bin.
type SaveBuilder struct {
	t     *testing.T
	fs    afero.Fs
	dir   string
	codec envelope.Compressor
	mods  []modlist.Mod
	store *settings.Store

	noSettings bool
	installed  map[string]string
	modsDir    string
}

// NewSave starts a save in dir on fs.
func NewSave(t *testing.T, fs afero.Fs, dir string) *SaveBuilder {
	return &SaveBuilder{
		t:         t,
		fs:        fs,
		dir:       dir,
		codec:     envelope.FastLZ,
		store:     settings.NewStore(),
		installed: map[string]string{},
	}
}

// WithMod appends a mod to the mod list.
func (b *SaveBuilder) WithMod(id string, enabled bool) *SaveBuilder {
	b.mods = append(b.mods, modlist.Mod{ID: id, Enabled: enabled})
	return b
}

// WithWorkshopMod appends a mod subscribed through the Steam workshop.
func (b *SaveBuilder) WithWorkshopMod(id, workshopID string, enabled bool) *SaveBuilder {
	b.mods = append(b.mods, modlist.Mod{ID: id, Enabled: enabled, WorkshopID: workshopID})
	return b
}

// WithSetting stores a setting whose current and next values are both v.
func (b *SaveBuilder) WithSetting(key string, v settings.Value) *SaveBuilder {
	return b.WithPair(key, v, v)
}

// WithPair stores a setting with distinct current and next values.
func (b *SaveBuilder) WithPair(key string, current, next settings.Value) *SaveBuilder {
	b.store.Set(key, settings.Pair{Current: current, Next: next})
	return b
}

// WithStore copies every entry of s into the save.
func (b *SaveBuilder) WithStore(s *settings.Store) *SaveBuilder {
	b.store.Merge(s)
	return b
}

// WithCodec selects the compressor for mod_settings.bin.
func (b *SaveBuilder) WithCodec(c envelope.Compressor) *SaveBuilder {
	b.codec = c
	return b
}

// WithoutSettings skips writing mod_settings.bin.
func (b *SaveBuilder) WithoutSettings() *SaveBuilder {
	b.noSettings = true
	return b
}

// WithInstalled writes <modsDir>/<id>/mod.xml with the given body, which
// decides the mod's kind.
func (b *SaveBuilder) WithInstalled(modsDir, id, modXML string) *SaveBuilder {
	b.modsDir = modsDir
	b.installed[id] = modXML
	return b
}

// Store returns a copy of the settings the save holds.
func (b *SaveBuilder) Store() *settings.Store { return b.store.Clone() }

// Write creates the files and returns the save directory.
func (b *SaveBuilder) Write() string {
	b.t.Helper()

	l := modlist.New()
	l.Mods = append(l.Mods, b.mods...)
	require.NoError(b.t, modlist.Save(b.fs, filepath.Join(b.dir, paths.ModConfigFile), l))

	if !b.noSettings {
		require.NoError(b.t, settings.SaveFile(b.fs, filepath.Join(b.dir, paths.ModSettingsFile), b.store, b.codec))
	}
	for id, body := range b.installed {
		modDir := filepath.Join(b.modsDir, id)
		require.NoError(b.t, b.fs.MkdirAll(modDir, 0755))
		require.NoError(b.t, afero.WriteFile(b.fs, filepath.Join(modDir, "mod.xml"), []byte(body), 0644))
	}
	return b.dir
}
