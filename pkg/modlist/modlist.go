// Package modlist reads and writes the game's mod_config.xml, the ordered
// list of installed mods and their enabled flags.
//
// The file looks like:
//
//	<Mods>
//		<Mod enabled="1" name="some_mod" settings_fold_open="0" workshop_item_id="0" />
//	</Mods>
//
// Only the name and enabled attributes are interpreted. Everything else in the
// document is carried through a load/save cycle untouched, and the position
// of each <Mod> element follows the order of List.Mods.
package modlist

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/filesystem"
	"github.com/arthur-debert/nmm/pkg/logging"
	"github.com/beevik/etree"
	"github.com/spf13/afero"
)

const (
	rootTag = "Mods"
	modTag  = "Mod"

	attrName     = "name"
	attrEnabled  = "enabled"
	attrWorkshop = "workshop_item_id"
)

// Kind distinguishes mods the player can toggle from the ones the game
// manages itself.
type Kind int

const (
	KindNormal Kind = iota
	KindTranslation
	KindGamemode
)

func (k Kind) String() string {
	switch k {
	case KindTranslation:
		return "translation"
	case KindGamemode:
		return "gamemode"
	default:
		return "normal"
	}
}

// Mod is one entry of the list.
type Mod struct {
	ID   string
	Kind Kind
	// Enabled is only meaningful for normal mods.
	Enabled bool
	// WorkshopID is the Steam workshop item, empty for local mods.
	WorkshopID string

	elem *etree.Element
}

// HasEnableFlag reports whether the mod carries a player controlled enabled
// flag.
func (m Mod) HasEnableFlag() bool { return m.Kind == KindNormal }

// IsEnabled reports whether the mod is a normal mod that is switched on.
func (m Mod) IsEnabled() bool { return m.HasEnableFlag() && m.Enabled }

// List is a parsed mod_config.xml.
type List struct {
	Mods []Mod

	doc *etree.Document
}

// New returns an empty list that serializes to a fresh document.
func New() *List {
	doc := etree.NewDocument()
	doc.CreateElement(rootTag)
	return &List{doc: doc}
}

// Parse decodes a mod_config.xml document.
func Parse(data []byte) (*List, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrModConfigParse, "parsing mod config")
	}
	root := doc.SelectElement(rootTag)
	if root == nil {
		return nil, errors.Newf(errors.ErrModConfigParse, "mod config has no <%s> element", rootTag)
	}

	l := &List{doc: doc}
	for i, el := range root.SelectElements(modTag) {
		id := el.SelectAttrValue(attrName, "")
		if id == "" {
			return nil, errors.Newf(errors.ErrModConfigParse, "mod number %d has no %s", i, attrName)
		}
		enabled := el.SelectAttr(attrEnabled)
		if enabled == nil {
			return nil, errors.Newf(errors.ErrModConfigParse, "mod %q has no %s attribute", id, attrEnabled)
		}
		workshop := el.SelectAttrValue(attrWorkshop, "0")
		if workshop == "0" {
			workshop = ""
		}
		l.Mods = append(l.Mods, Mod{ID: id, Enabled: enabled.Value == "1", WorkshopID: workshop, elem: el})
	}
	return l, nil
}

// Load reads and parses the file at path.
func Load(fsys afero.Fs, path string) (*List, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileNotFound, "opening mod config %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "opening mod config %s", path)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, errors.Context(err, "loading mod config %s", path)
	}
	logger := logging.GetLogger("modlist")
	logger.Debug().Str("path", path).Int("mods", len(l.Mods)).Msg("Loaded mod config")
	return l, nil
}

// Bytes serializes the list. Mod elements are rewritten in List.Mods order
// at the positions the original document had them; additional mods go after
// them. Non-normal mods are always written as disabled.
func (l *List) Bytes() ([]byte, error) {
	if l.doc == nil {
		l.doc = etree.NewDocument()
	}
	doc := l.doc
	root := doc.SelectElement(rootTag)
	if root == nil {
		root = doc.CreateElement(rootTag)
	}

	var positions []int
	for _, el := range root.SelectElements(modTag) {
		positions = append(positions, el.Index())
	}
	for _, el := range root.SelectElements(modTag) {
		root.RemoveChild(el)
	}

	for i, m := range l.Mods {
		el := element(m)
		l.Mods[i].elem = el
		if i < len(positions) {
			root.InsertChildAt(positions[i], el)
		} else {
			root.AddChild(el)
		}
	}

	doc.IndentTabs()
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "serializing mod config")
	}
	return buf.Bytes(), nil
}

// element returns the <Mod> element for m. A mod keeps the element it was
// parsed from so unknown attributes survive.
func element(m Mod) *etree.Element {
	el := m.elem
	if el == nil || el.Parent() != nil {
		el = etree.NewElement(modTag)
		if m.elem != nil {
			el = m.elem.Copy()
		}
	}
	if el.SelectAttr(attrEnabled) == nil {
		el.CreateAttr(attrEnabled, "0")
		el.CreateAttr(attrName, m.ID)
		el.CreateAttr("settings_fold_open", "0")
		workshop := m.WorkshopID
		if workshop == "" {
			workshop = "0"
		}
		el.CreateAttr(attrWorkshop, workshop)
	}
	el.CreateAttr(attrName, m.ID)
	enabled := "0"
	if m.IsEnabled() {
		enabled = "1"
	}
	el.CreateAttr(attrEnabled, enabled)
	return el
}

// Save writes the list to path.
func Save(fsys afero.Fs, path string, l *List) error {
	data, err := l.Bytes()
	if err != nil {
		return errors.Context(err, "saving mod config %s", path)
	}
	if err := filesystem.WriteFileAtomic(fsys, path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "writing mod config %s", path)
	}
	logger := logging.GetLogger("modlist")
	logger.Debug().Str("path", path).Int("mods", len(l.Mods)).Msg("Saved mod config")
	return nil
}

// IDs returns every mod id in list order.
func (l *List) IDs() []string {
	ids := make([]string, len(l.Mods))
	for i, m := range l.Mods {
		ids[i] = m.ID
	}
	return ids
}

// EnabledIDs returns the ids of the enabled normal mods in list order.
func (l *List) EnabledIDs() []string {
	var ids []string
	for _, m := range l.Mods {
		if m.IsEnabled() {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Installed returns the set of mod ids present in the list.
func (l *List) Installed() map[string]struct{} {
	set := make(map[string]struct{}, len(l.Mods))
	for _, m := range l.Mods {
		set[m.ID] = struct{}{}
	}
	return set
}

// Find returns the index of the mod with the given id, or -1.
func (l *List) Find(id string) int {
	for i, m := range l.Mods {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// ResolveKinds reads each mod's mod.xml and sets its Kind. Local mods are
// looked up as <modsDir>/<id>, workshop mods as <workshopDir>/<item id>.
// Mods without a mod.xml, or with an unset directory, stay normal.
func ResolveKinds(fsys afero.Fs, modsDir, workshopDir string, l *List) error {
	logger := logging.GetLogger("modlist")
	for i := range l.Mods {
		path := modXMLPath(l.Mods[i], modsDir, workshopDir)
		if path == "" {
			continue
		}
		kind, err := ReadKind(fsys, path)
		if err != nil {
			if errors.IsErrorCode(err, errors.ErrFileNotFound) {
				logger.Trace().Str("mod", l.Mods[i].ID).Msg("No mod.xml, assuming normal mod")
				continue
			}
			return err
		}
		l.Mods[i].Kind = kind
	}
	return nil
}

// modXMLPath locates a mod's mod.xml. Workshop mods live under their item id.
func modXMLPath(m Mod, modsDir, workshopDir string) string {
	if m.WorkshopID != "" && workshopDir != "" {
		return filepath.Join(workshopDir, m.WorkshopID, "mod.xml")
	}
	if modsDir == "" {
		return ""
	}
	return filepath.Join(modsDir, m.ID, "mod.xml")
}

// ReadKind determines the kind of a mod from its mod.xml.
func ReadKind(fsys afero.Fs, path string) (Kind, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return KindNormal, errors.Wrapf(err, errors.ErrFileNotFound, "opening %s", path)
		}
		return KindNormal, errors.Wrapf(err, errors.ErrFileAccess, "opening %s", path)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return KindNormal, errors.Wrapf(err, errors.ErrModConfigParse, "parsing %s", path)
	}
	root := doc.Root()
	if root == nil {
		return KindNormal, errors.Newf(errors.ErrModConfigParse, "%s has no root element", path)
	}

	switch {
	case root.SelectAttrValue("is_translation", "0") == "1":
		return KindTranslation, nil
	case root.SelectAttrValue("is_game_mode", "0") == "1":
		return KindGamemode, nil
	default:
		return KindNormal, nil
	}
}
