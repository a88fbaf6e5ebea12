// Package modpack implements mod packs: a named, ordered list of mod ids plus
// a chosen subset of settings, stored in a small versioned binary file.
//
// Schema version 0 is laid out as
//
//	[u64 LE version][u64 LE len][name]
//	[u64 LE mod count] count x ([u64 LE len][mod id])
//	[u64 LE settings count] count x settings entry
//
// where a settings entry uses the same big endian shape as the game's
// settings file. Pack files are not compressed.
package modpack

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/logging"
	"github.com/arthur-debert/nmm/pkg/modlist"
	"github.com/arthur-debert/nmm/pkg/settings"
	"github.com/arthur-debert/nmm/pkg/wire"
)

// SchemaVersion is the only pack layout this package reads and writes.
const SchemaVersion uint64 = 0

// preallocation cap for counts read from a file that has not been validated
const maxPrealloc = 1024

// Pack is an immutable snapshot once built. FileName is where the pack lives
// on disk and is not part of the file contents.
type Pack struct {
	Name     string
	FileName string
	Mods     []string
	Settings *settings.Store
}

// New builds a pack from live state. mods should be the enabled mods in load
// order; store is captured as is and filtered only when the pack is saved.
func New(name, fileName string, mods []string, store *settings.Store) *Pack {
	if store == nil {
		store = settings.NewStore()
	}
	return &Pack{
		Name:     name,
		FileName: fileName,
		Mods:     append([]string(nil), mods...),
		Settings: store.Clone(),
	}
}

// Load decodes a pack. The version is checked before anything else is read,
// so an unknown version leaves the rest of r untouched.
func Load(r io.Reader, fileName string) (*Pack, error) {
	wr := wire.NewReader(r)

	version, err := wr.Uint64(binary.LittleEndian)
	if err != nil {
		return nil, errors.Context(err, "reading modpack schema version")
	}
	if version != SchemaVersion {
		return nil, errors.Newf(errors.ErrUnsupportedSchemaVersion,
			"attempted to load future modpack schema (v%d)", version).
			WithDetail("version", version).
			WithDetail("file", fileName)
	}

	p, err := loadV0(wr, fileName)
	if err != nil {
		return nil, err
	}
	logger := logging.GetLogger("modpack")
	logger.Debug().
		Str("pack", p.Name).
		Int("mods", len(p.Mods)).
		Int("settings", p.Settings.Len()).
		Msg("Loaded pack")
	return p, nil
}

func loadV0(wr *wire.Reader, fileName string) (*Pack, error) {
	name, err := wr.String64(binary.LittleEndian)
	if err != nil {
		return nil, errors.Context(err, "reading modpack name")
	}

	fail := func(err error, format string, args ...interface{}) error {
		return errors.Context(errors.Context(err, format, args...), "loading pack %s", name)
	}

	modCount, err := wr.Uint64(binary.LittleEndian)
	if err != nil {
		return nil, fail(err, "reading modpack number of mods")
	}
	mods := make([]string, 0, capped(modCount))
	for i := uint64(0); i < modCount; i++ {
		id, err := wr.String64(binary.LittleEndian)
		if err != nil {
			return nil, fail(err, "reading mod name %d", i)
		}
		mods = append(mods, id)
	}

	settingsCount, err := wr.Uint64(binary.LittleEndian)
	if err != nil {
		return nil, fail(err, "reading modpack number of settings")
	}
	store := settings.NewStore()
	for i := uint64(0); i < settingsCount; i++ {
		e, err := settings.ReadEntry(wr)
		if err != nil {
			return nil, fail(err, "loading modpack setting %d", i)
		}
		store.Set(e.Key, e.Pair)
	}

	return &Pack{Name: name, FileName: fileName, Mods: mods, Settings: store}, nil
}

func capped(n uint64) int {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return int(n)
}

// Included returns the settings that Save would write for inclusion.
func (p *Pack) Included(inclusion map[string]struct{}) *settings.Store {
	return p.Settings.Filter(inclusion)
}

// Save writes p keeping only the settings whose key is in inclusion. The
// declared settings count is the number of entries actually written.
func (p *Pack) Save(w io.Writer, inclusion map[string]struct{}) error {
	ww := wire.NewWriter(w)
	fail := func(err error, format string, args ...interface{}) error {
		return errors.Context(errors.Context(err, format, args...), "saving pack %s", p.Name)
	}

	if err := ww.Uint64(binary.LittleEndian, SchemaVersion); err != nil {
		return fail(err, "writing modpack schema version")
	}
	if err := ww.String64(binary.LittleEndian, p.Name); err != nil {
		return fail(err, "writing modpack name")
	}
	if err := ww.Uint64(binary.LittleEndian, uint64(len(p.Mods))); err != nil {
		return fail(err, "writing modpack number of mods")
	}
	for _, id := range p.Mods {
		if err := ww.String64(binary.LittleEndian, id); err != nil {
			return fail(err, "writing mod name %s", id)
		}
	}

	entries := p.Included(inclusion).Entries()
	if err := ww.Uint64(binary.LittleEndian, uint64(len(entries))); err != nil {
		return fail(err, "writing modpack number of settings")
	}
	for _, e := range entries {
		if err := settings.WriteEntry(ww, e); err != nil {
			return fail(err, "saving setting %s", e.Key)
		}
	}

	logger := logging.GetLogger("modpack")

	logger.Debug().
		Str("pack", p.Name).
		Int("mods", len(p.Mods)).
		Int("settings", len(entries)).
		Int64("bytes", ww.Written()).
		Msg("Saved pack")
	return nil
}

// ApplyResult summarizes what Apply changed.
type ApplyResult struct {
	Enabled  []string
	Disabled []string
	// Settings is the number of settings merged into the store.
	Settings int
}

// Apply makes the pack's mod selection and settings live. Every normal mod in
// mods is enabled iff the pack lists it, and the enabled mods are reordered
// among the slots they occupy to follow the pack's order. Mods that end up
// disabled and non-normal mods keep their positions. Pack settings overwrite
// store entries with the same key.
func (p *Pack) Apply(store *settings.Store, mods []modlist.Mod) ApplyResult {
	order := make(map[string]int, len(p.Mods))
	for i, id := range p.Mods {
		if _, seen := order[id]; !seen {
			order[id] = i
		}
	}

	var result ApplyResult
	var slots []int
	var enabled []modlist.Mod
	for i := range mods {
		if !mods[i].HasEnableFlag() {
			continue
		}
		if _, ok := order[mods[i].ID]; ok {
			mods[i].Enabled = true
			slots = append(slots, i)
			enabled = append(enabled, mods[i])
			result.Enabled = append(result.Enabled, mods[i].ID)
		} else {
			if mods[i].Enabled {
				result.Disabled = append(result.Disabled, mods[i].ID)
			}
			mods[i].Enabled = false
		}
	}

	sort.SliceStable(enabled, func(a, b int) bool {
		return order[enabled[a].ID] < order[enabled[b].ID]
	})
	for k, slot := range slots {
		mods[slot] = enabled[k]
	}

	if store != nil {
		store.Merge(p.Settings)
		result.Settings = p.Settings.Len()
	}

	logger := logging.GetLogger("modpack")
	logger.Debug().
		Str("pack", p.Name).
		Int("enabled", len(result.Enabled)).
		Int("disabled", len(result.Disabled)).
		Int("settings", result.Settings).
		Msg("Computed pack changes")
	return result
}

// MissingMods returns the pack's mod ids that are not in installed, in pack
// order.
func (p *Pack) MissingMods(installed map[string]struct{}) []string {
	var missing []string
	for _, id := range p.Mods {
		if _, ok := installed[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
