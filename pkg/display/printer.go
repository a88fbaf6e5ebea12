package display

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/arthur-debert/nmm/pkg/backup"
	"github.com/arthur-debert/nmm/pkg/hierarchy"
	"github.com/arthur-debert/nmm/pkg/modlist"
	"github.com/arthur-debert/nmm/pkg/modpack"
	"github.com/arthur-debert/nmm/pkg/settings"
	"github.com/pterm/pterm"
)

const timeLayout = "2006-01-02 15:04:05"

// Printer renders nmm's data for the terminal.
type Printer struct {
	out    io.Writer
	styled bool
}

// NewPrinter returns a printer writing to out. FormatAuto is resolved
// against out when it is a file, and falls back to plain text otherwise.
func NewPrinter(out io.Writer, format Format) *Printer {
	if format == FormatAuto {
		format = FormatText
		if f, ok := out.(*os.File); ok {
			format = DetectFormat(f)
		}
	}
	styled := format == FormatTerminal
	if styled {
		pterm.EnableColor()
	} else {
		pterm.DisableColor()
	}
	return &Printer{out: out, styled: styled}
}

func (p *Printer) style(name, s string) string {
	if !p.styled {
		return s
	}
	return GetStyle(name).Render(s)
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.out, s)
}

// Title prints a section heading.
func (p *Printer) Title(format string, args ...interface{}) {
	p.println(p.style("Title", fmt.Sprintf(format, args...)))
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...interface{}) {
	p.println(p.style("Success", "✓") + " " + fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func (p *Printer) Warning(format string, args ...interface{}) {
	p.println(p.style("Warning", "!") + " " + fmt.Sprintf(format, args...))
}

// Error prints err.
func (p *Printer) Error(err error) {
	p.println(p.style("Error", "Error:") + " " + err.Error())
}

// Info prints a muted line.
func (p *Printer) Info(format string, args ...interface{}) {
	p.println(p.style("Muted", fmt.Sprintf(format, args...)))
}

func (p *Printer) table(data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	p.println(out)
	return nil
}

// Settings prints entries as a key/current/next table.
func (p *Printer) Settings(entries []settings.Entry) error {
	if len(entries) == 0 {
		p.Info("No settings")
		return nil
	}
	data := pterm.TableData{{"Key", "Current", "Next"}}
	for _, e := range entries {
		data = append(data, []string{e.Key, e.Pair.Current.String(), e.Pair.Next.String()})
	}
	return p.table(data)
}

// Setting prints one setting.
func (p *Printer) Setting(e settings.Entry) {
	p.println(p.style("Key", e.Key))
	p.println("  current: " + p.style("Value", e.Pair.Current.String()))
	p.println("  next:    " + p.style("Value", e.Pair.Next.String()))
}

// TreeOptions controls Tree.
type TreeOptions struct {
	// MaxDepth collapses groups deeper than this. Zero shows everything.
	MaxDepth int
	// Inclusion marks each node with its export state.
	Inclusion bool
	// Values appends the current value to leaves.
	Values bool
}

// Tree prints the hierarchy below root.
func (p *Printer) Tree(root *hierarchy.Group, opts TreeOptions) error {
	label := fmt.Sprintf("settings (%d)", root.Len())
	if !root.IsRoot() {
		label = fmt.Sprintf("%s (%d)", root.Path(), root.Len())
	}
	node := pterm.TreeNode{Text: p.groupLabel(root, label, opts)}
	node.Children = p.treeChildren(root, 1, opts)

	out, err := pterm.DefaultTree.WithRoot(node).Srender()
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.out, out)
	return err
}

func (p *Printer) treeChildren(g *hierarchy.Group, depth int, opts TreeOptions) []pterm.TreeNode {
	var nodes []pterm.TreeNode
	for _, child := range g.Children() {
		switch n := child.(type) {
		case *hierarchy.Group:
			collapsed := opts.MaxDepth > 0 && depth >= opts.MaxDepth
			label := displayName(n.Name())
			if collapsed {
				label = fmt.Sprintf("%s (%d)", label, n.Len())
			}
			tn := pterm.TreeNode{Text: p.groupLabel(n, label, opts)}
			if !collapsed {
				tn.Children = p.treeChildren(n, depth+1, opts)
			}
			nodes = append(nodes, tn)
		case *hierarchy.Leaf:
			nodes = append(nodes, pterm.TreeNode{Text: p.leafLabel(n, opts)})
		}
	}
	return nodes
}

func (p *Printer) groupLabel(g *hierarchy.Group, label string, opts TreeOptions) string {
	label = p.style("Header", label)
	if !opts.Inclusion {
		return label
	}
	switch {
	case g.AllIncluded():
		return p.style("Included", "[x]") + " " + label
	case g.AnyIncluded():
		return p.style("Included", "[~]") + " " + label
	default:
		return p.style("Excluded", "[ ]") + " " + label
	}
}

func (p *Printer) leafLabel(l *hierarchy.Leaf, opts TreeOptions) string {
	label := p.style("Key", displayName(l.Name()))
	if opts.Values {
		label += " = " + p.style("Value", l.Pair.Current.String())
	}
	if !opts.Inclusion {
		return label
	}
	if l.Include {
		return p.style("Included", "[x]") + " " + label
	}
	return p.style("Excluded", "[ ]") + " " + label
}

// displayName makes empty key segments visible.
func displayName(name string) string {
	if name == "" {
		return `""`
	}
	return name
}

// Packs prints a summary table of packs.
func (p *Printer) Packs(packs []*modpack.Pack) error {
	if len(packs) == 0 {
		p.Info("No packs")
		return nil
	}
	data := pterm.TableData{{"Name", "File", "Mods", "Settings"}}
	for _, pk := range packs {
		data = append(data, []string{
			pk.Name, pk.FileName,
			strconv.Itoa(len(pk.Mods)), strconv.Itoa(pk.Settings.Len()),
		})
	}
	return p.table(data)
}

// Pack prints a pack's mods in order, marking the ones not in installed,
// followed by its settings. A nil installed skips the marking.
func (p *Printer) Pack(pk *modpack.Pack, installed map[string]struct{}) error {
	p.Title("%s", pk.Name)
	if pk.FileName != "" {
		p.println("file: " + p.style("Path", pk.FileName))
	}
	p.println(fmt.Sprintf("mods (%d):", len(pk.Mods)))
	for i, id := range pk.Mods {
		line := fmt.Sprintf("  %2d. %s", i+1, id)
		if installed != nil {
			if _, ok := installed[id]; !ok {
				line += " " + p.style("Warning", "(not installed)")
			}
		}
		p.println(line)
	}
	p.println(fmt.Sprintf("settings (%d):", pk.Settings.Len()))
	if pk.Settings.Len() == 0 {
		return nil
	}
	return p.Settings(pk.Settings.Entries())
}

// Mods prints the mod list in load order.
func (p *Printer) Mods(mods []modlist.Mod) error {
	if len(mods) == 0 {
		p.Info("No mods")
		return nil
	}
	data := pterm.TableData{{"#", "Mod", "Kind", "Enabled", "Workshop"}}
	for i, m := range mods {
		enabled := "-"
		if m.HasEnableFlag() {
			enabled = "no"
			if m.Enabled {
				enabled = "yes"
			}
		}
		data = append(data, []string{strconv.Itoa(i + 1), m.ID, m.Kind.String(), enabled, m.WorkshopID})
	}
	return p.table(data)
}

// Backups prints stored backups.
func (p *Printer) Backups(entries []backup.Entry) error {
	if len(entries) == 0 {
		p.Info("No backups")
		return nil
	}
	data := pterm.TableData{{"ID", "Name", "Size", "Taken"}}
	for _, e := range entries {
		data = append(data, []string{e.ID(), e.Name, FormatSize(e.Size), e.Time.Format(timeLayout)})
	}
	return p.table(data)
}

// ApplyResult reports what applying a pack changed.
func (p *Printer) ApplyResult(name string, res modpack.ApplyResult, missing []string, dryRun bool) {
	verb := "Applied"
	if dryRun {
		verb = "Would apply"
	}
	p.Success("%s pack %s", verb, p.style("Header", name))
	p.println(fmt.Sprintf("  enabled:  %d %s", len(res.Enabled), strings.Join(res.Enabled, ", ")))
	p.println(fmt.Sprintf("  disabled: %d %s", len(res.Disabled), strings.Join(res.Disabled, ", ")))
	p.println(fmt.Sprintf("  settings: %d", res.Settings))
	if len(missing) > 0 {
		p.Warning("Pack mods not installed: %s", strings.Join(missing, ", "))
	}
}

// FormatSize renders a byte count.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
