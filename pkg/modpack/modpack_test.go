// pkg/modpack/modpack_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: In-memory buffers
// PURPOSE: Pack file layout, schema versioning and apply semantics

package modpack_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/hierarchy"
	"github.com/arthur-debert/nmm/pkg/modlist"
	"github.com/arthur-debert/nmm/pkg/modpack"
	"github.com/arthur-debert/nmm/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStore() *settings.Store {
	return settings.FromMap(map[string]settings.Pair{
		"alpha.speed":   {Current: settings.Number(2), Next: settings.Number(3)},
		"alpha.enabled": {Current: settings.Bool(true), Next: settings.Bool(true)},
		"beta.name":     {Current: settings.String("b"), Next: settings.None()},
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	pack := modpack.New("Speedrun", "speedrun.nmmpack", []string{"alpha", "beta"}, sampleStore())
	inclusion := map[string]struct{}{"alpha.speed": {}, "beta.name": {}, "not.there": {}}

	var buf bytes.Buffer
	require.NoError(t, pack.Save(&buf, inclusion))

	loaded, err := modpack.Load(&buf, "copy.nmmpack")
	require.NoError(t, err)
	assert.Equal(t, "Speedrun", loaded.Name)
	assert.Equal(t, "copy.nmmpack", loaded.FileName)
	assert.Equal(t, []string{"alpha", "beta"}, loaded.Mods)
	assert.Equal(t, []string{"alpha.speed", "beta.name"}, loaded.Settings.Keys())
	assert.Equal(t, pack.Included(inclusion).Map(), loaded.Settings.Map())
}

func TestSaveLayout(t *testing.T) {
	pack := modpack.New("P", "", []string{"m"}, sampleStore())

	var buf bytes.Buffer
	require.NoError(t, pack.Save(&buf, nil))

	want := []byte{
		0, 0, 0, 0, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0, 0, 0, 'P',
		1, 0, 0, 0, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0, 0, 0, 'm',
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	assert.Equal(t, want, buf.Bytes())
}

func TestSaveCountMatchesFilteredEntries(t *testing.T) {
	store := sampleStore()
	root := hierarchy.Build(store)
	alpha, ok := root.FindGroup("alpha")
	require.True(t, ok)
	alpha.ToggleSubtree(true)

	pack := modpack.New("P", "", nil, store)
	var buf bytes.Buffer
	require.NoError(t, pack.Save(&buf, root.InclusionSet()))

	data := buf.Bytes()
	// version, name length, name, mod count
	offset := 8 + 8 + 1 + 8
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(data[offset:offset+8]))

	loaded, err := modpack.Load(bytes.NewReader(data), "")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Settings.Len())
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	for _, version := range []uint64{1, 2, 1 << 40} {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, version))
		buf.WriteString("name and mods that must not be read")
		rest := buf.Len() - 8

		r := bytes.NewReader(buf.Bytes())
		_, err := modpack.Load(r, "future.nmmpack")
		require.Error(t, err)
		assert.Equal(t, errors.ErrUnsupportedSchemaVersion, errors.GetErrorCode(err))
		assert.Equal(t, rest, r.Len(), "nothing after the version may be consumed")
	}
}

func TestLoadErrors(t *testing.T) {
	var valid bytes.Buffer
	require.NoError(t, modpack.New("name", "", []string{"a", "b"}, sampleStore()).
		Save(&valid, map[string]struct{}{"alpha.speed": {}}))
	full := valid.Bytes()

	tests := []struct {
		name  string
		input []byte
		code  errors.ErrorCode
	}{
		{"empty", nil, errors.ErrShortRead},
		{"truncated_version", full[:5], errors.ErrShortRead},
		{"truncated_name", full[:12], errors.ErrShortRead},
		{"truncated_mods", full[:30], errors.ErrShortRead},
		{"truncated_settings", full[:len(full)-3], errors.ErrShortRead},
		{"huge_mod_count", append(append([]byte{}, full[:20]...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f), errors.ErrShortRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := modpack.Load(bytes.NewReader(tt.input), "")
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetErrorCode(err))
		})
	}
}

func TestLoadReportsBadSetting(t *testing.T) {
	var buf bytes.Buffer
	w := func(v interface{}) { require.NoError(t, binary.Write(&buf, binary.LittleEndian, v)) }
	w(uint64(0))
	w(uint64(1))
	buf.WriteString("p")
	w(uint64(0))
	w(uint64(1))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(1)))
	buf.WriteString("k")
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(0)))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(7)))

	_, err := modpack.Load(&buf, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidTypeID, errors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "loading pack p")
	assert.Contains(t, err.Error(), `setting "k" next value`)
}

func TestApply(t *testing.T) {
	mods := []modlist.Mod{
		{ID: "A", Enabled: false},
		{ID: "B", Enabled: true},
		{ID: "C", Enabled: false},
	}
	store := settings.NewStore()
	pack := modpack.New("P", "", []string{"C", "A"}, nil)

	result := pack.Apply(store, mods)

	byID := map[string]modlist.Mod{}
	var enabledOrder []string
	for _, m := range mods {
		byID[m.ID] = m
		if m.IsEnabled() {
			enabledOrder = append(enabledOrder, m.ID)
		}
	}
	assert.True(t, byID["A"].Enabled)
	assert.False(t, byID["B"].Enabled)
	assert.True(t, byID["C"].Enabled)
	assert.Equal(t, []string{"C", "A"}, enabledOrder)
	assert.Equal(t, "B", mods[1].ID, "disabled mods keep their slot")
	assert.Equal(t, []string{"B"}, result.Disabled)
	assert.ElementsMatch(t, []string{"A", "C"}, result.Enabled)
}

func TestApplyLeavesNonNormalModsAlone(t *testing.T) {
	mods := []modlist.Mod{
		{ID: "lang", Kind: modlist.KindTranslation, Enabled: true},
		{ID: "x", Enabled: true},
		{ID: "mode", Kind: modlist.KindGamemode},
		{ID: "y"},
		{ID: "z", Enabled: true},
	}
	pack := modpack.New("P", "", []string{"z", "mode", "y", "x", "missing"}, nil)

	pack.Apply(nil, mods)

	ids := make([]string, len(mods))
	for i, m := range mods {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"lang", "z", "mode", "y", "x"}, ids)
	assert.True(t, mods[0].Enabled, "translation flag is not touched")
	assert.False(t, mods[2].Enabled)
	assert.True(t, mods[1].Enabled && mods[3].Enabled && mods[4].Enabled)
}

func TestApplyMergesSettings(t *testing.T) {
	store := settings.FromMap(map[string]settings.Pair{
		"alpha.speed": {Current: settings.Number(100)},
		"keep.me":     {Current: settings.Bool(false)},
	})
	pack := modpack.New("P", "", nil, sampleStore())

	result := pack.Apply(store, nil)

	assert.Equal(t, 3, result.Settings)
	assert.Equal(t, 4, store.Len())
	got, _ := store.Get("alpha.speed")
	assert.Equal(t, settings.Number(2), got.Current)
	_, ok := store.Get("keep.me")
	assert.True(t, ok)
}

func TestMissingMods(t *testing.T) {
	pack := modpack.New("P", "", []string{"a", "b", "c"}, nil)
	installed := map[string]struct{}{"b": {}}
	assert.Equal(t, []string{"a", "c"}, pack.MissingMods(installed))
	assert.Empty(t, pack.MissingMods(map[string]struct{}{"a": {}, "b": {}, "c": {}}))
}

func TestNewCopiesInputs(t *testing.T) {
	mods := []string{"a"}
	store := sampleStore()
	pack := modpack.New("P", "", mods, store)

	mods[0] = "changed"
	store.Delete("beta.name")

	assert.Equal(t, []string{"a"}, pack.Mods)
	assert.Equal(t, 3, pack.Settings.Len())
}
