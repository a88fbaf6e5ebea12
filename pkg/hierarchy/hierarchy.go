// Package hierarchy derives a tree view from a flat settings store by
// splitting every key on ".". The tree is never authoritative: it holds
// copies of the pairs and an export flag per leaf, and it is rebuilt from the
// store whenever the store's key set changes.
//
// Interior segments become Groups and the final segment becomes a Leaf. A
// Group keeps its child groups and child leaves apart, so the keys "a" and
// "a.b" produce a Leaf "a" and a Group "a" side by side at the root.
package hierarchy

import (
	"sort"
	"strings"

	"github.com/arthur-debert/nmm/pkg/settings"
)

// Separator splits keys into path segments.
const Separator = "."

// Node is either a *Group or a *Leaf.
type Node interface {
	Name() string
	// Path returns the dotted path from the root to the node.
	Path() string
}

// Leaf is a single setting and its export flag.
type Leaf struct {
	name    string
	key     string
	Pair    settings.Pair
	Include bool
}

// Name returns the last segment of the key.
func (l *Leaf) Name() string { return l.name }

// Path returns the full store key.
func (l *Leaf) Path() string { return l.key }

// Group is an interior node.
type Group struct {
	name     string
	segments []string
	groups   map[string]*Group
	leaves   map[string]*Leaf
}

func newGroup(name string, segments []string) *Group {
	return &Group{
		name:     name,
		segments: segments,
		groups:   make(map[string]*Group),
		leaves:   make(map[string]*Leaf),
	}
}

// Build returns the root group for every key in s. Every leaf starts
// excluded.
func Build(s *settings.Store) *Group {
	root := newGroup("", nil)
	for _, e := range s.Entries() {
		parts := strings.Split(e.Key, Separator)
		g := root
		for _, seg := range parts[:len(parts)-1] {
			g = g.child(seg)
		}
		name := parts[len(parts)-1]
		g.leaves[name] = &Leaf{name: name, key: e.Key, Pair: e.Pair}
	}
	return root
}

// child returns the group named seg, creating it when missing.
func (g *Group) child(seg string) *Group {
	c, ok := g.groups[seg]
	if !ok {
		segments := make([]string, len(g.segments)+1)
		copy(segments, g.segments)
		segments[len(g.segments)] = seg
		c = newGroup(seg, segments)
		g.groups[seg] = c
	}
	return c
}

// Name returns the segment naming g. The root has an empty name.
func (g *Group) Name() string { return g.name }

// Path returns the dotted path of g. The root path is empty.
func (g *Group) Path() string { return strings.Join(g.segments, Separator) }

// Depth returns how many segments lie between the root and g.
func (g *Group) Depth() int { return len(g.segments) }

// IsRoot reports whether g is the root of a tree.
func (g *Group) IsRoot() bool { return g.segments == nil }

// Groups returns the child groups ordered by name.
func (g *Group) Groups() []*Group {
	names := make([]string, 0, len(g.groups))
	for n := range g.groups {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Group, len(names))
	for i, n := range names {
		out[i] = g.groups[n]
	}
	return out
}

// Leaves returns the child leaves ordered by name.
func (g *Group) Leaves() []*Leaf {
	names := make([]string, 0, len(g.leaves))
	for n := range g.leaves {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Leaf, len(names))
	for i, n := range names {
		out[i] = g.leaves[n]
	}
	return out
}

// Children returns the direct children ordered by name. When a group and a
// leaf share a name the group comes first.
func (g *Group) Children() []Node {
	groups, leaves := g.Groups(), g.Leaves()
	out := make([]Node, 0, len(groups)+len(leaves))
	i, j := 0, 0
	for i < len(groups) || j < len(leaves) {
		if j == len(leaves) || (i < len(groups) && groups[i].name <= leaves[j].name) {
			out = append(out, groups[i])
			i++
		} else {
			out = append(out, leaves[j])
			j++
		}
	}
	return out
}

// Group returns the direct child group called name.
func (g *Group) Group(name string) (*Group, bool) {
	c, ok := g.groups[name]
	return c, ok
}

// Leaf returns the direct child leaf called name.
func (g *Group) Leaf(name string) (*Leaf, bool) {
	l, ok := g.leaves[name]
	return l, ok
}

// ToggleSubtree sets Include on every leaf below g.
func (g *Group) ToggleSubtree(include bool) {
	for _, l := range g.leaves {
		l.Include = include
	}
	for _, c := range g.groups {
		c.ToggleSubtree(include)
	}
}

// AllIncluded reports whether every leaf below g is included. A group with
// no leaves at all counts as included.
func (g *Group) AllIncluded() bool {
	for _, l := range g.leaves {
		if !l.Include {
			return false
		}
	}
	for _, c := range g.groups {
		if !c.AllIncluded() {
			return false
		}
	}
	return true
}

// AnyIncluded reports whether at least one leaf below g is included.
func (g *Group) AnyIncluded() bool {
	for _, l := range g.leaves {
		if l.Include {
			return true
		}
	}
	for _, c := range g.groups {
		if c.AnyIncluded() {
			return true
		}
	}
	return false
}

// InclusionSet returns the full keys of every included leaf below g.
func (g *Group) InclusionSet() map[string]struct{} {
	set := make(map[string]struct{})
	g.collect(set)
	return set
}

func (g *Group) collect(set map[string]struct{}) {
	for _, l := range g.leaves {
		if l.Include {
			set[l.key] = struct{}{}
		}
	}
	for _, c := range g.groups {
		c.collect(set)
	}
}

// Len returns the number of leaves below g.
func (g *Group) Len() int {
	n := len(g.leaves)
	for _, c := range g.groups {
		n += c.Len()
	}
	return n
}

// Keys returns the full key of every leaf below g in traversal order.
func (g *Group) Keys() []string {
	var keys []string
	_ = g.Walk(func(n Node, _ int) error {
		if l, ok := n.(*Leaf); ok {
			keys = append(keys, l.key)
		}
		return nil
	})
	return keys
}

// FindGroup returns the group at the dotted path relative to g. An empty
// path names g itself.
func (g *Group) FindGroup(path string) (*Group, bool) {
	if path == "" {
		return g, true
	}
	return g.descend(strings.Split(path, Separator))
}

// FindLeaf returns the leaf whose key, relative to g, is path.
func (g *Group) FindLeaf(path string) (*Leaf, bool) {
	parts := strings.Split(path, Separator)
	parent, ok := g.descend(parts[:len(parts)-1])
	if !ok {
		return nil, false
	}
	return parent.Leaf(parts[len(parts)-1])
}

func (g *Group) descend(segments []string) (*Group, bool) {
	cur := g
	for _, seg := range segments {
		next, ok := cur.groups[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Select sets Include on whatever lives at path: every leaf of the group
// there, the leaf there, or both when a group and a leaf share the path. It
// reports whether anything matched.
func (g *Group) Select(path string, include bool) bool {
	matched := false
	if grp, ok := g.FindGroup(path); ok {
		grp.ToggleSubtree(include)
		matched = true
	}
	if path != "" {
		if l, ok := g.FindLeaf(path); ok {
			l.Include = include
			matched = true
		}
	}
	return matched
}

// WalkFunc is called for every node visited by Walk. depth is 0 for the
// direct children of the group Walk started from.
type WalkFunc func(n Node, depth int) error

// SkipGroup can be returned by a WalkFunc visiting a group to skip its
// children.
var SkipGroup = skipGroup{}

type skipGroup struct{}

func (skipGroup) Error() string { return "skip this group" }

// Walk visits every node below g depth first, in Children order. An error
// other than SkipGroup stops the walk and is returned.
func (g *Group) Walk(fn WalkFunc) error {
	return g.walk(fn, 0)
}

func (g *Group) walk(fn WalkFunc, depth int) error {
	for _, n := range g.Children() {
		err := fn(n, depth)
		c, isGroup := n.(*Group)
		if err == SkipGroup && isGroup {
			continue
		}
		if err != nil {
			return err
		}
		if isGroup {
			if err := c.walk(fn, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
