package cubari

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Groups is the set of scanlation groups credited for one chapter entry.
// On the wire it is a single comma separated string.
type Groups struct {
	Names []string
}

func NewGroups(names ...string) Groups {
	return Groups{Names: append([]string(nil), names...)}
}

// ParseGroups splits a comma separated list of group names.
func ParseGroups(value string) Groups {
	value = strings.TrimSpace(value)
	if value == "" {
		return Groups{}
	}
	if !strings.Contains(value, ",") {
		return Groups{Names: []string{value}}
	}

	var g Groups
	for _, part := range strings.Split(value, ",") {
		if name := strings.TrimSpace(part); name != "" {
			g.Names = append(g.Names, name)
		}
	}
	return g
}

func (g Groups) String() string {
	switch len(g.Names) {
	case 0:
		return ""
	case 1:
		return g.Names[0]
	default:
		return strings.Join(g.Names, ", ")
	}
}

// Equal compares the encoded form, which is what identifies a key in a chapter.
func (g Groups) Equal(other Groups) bool {
	return g.String() == other.String()
}

func (g Groups) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(g.String())
}

func (g *Groups) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("groups: expected string: %w", err)
	}
	*g = ParseGroups(s)
	return nil
}

// GroupEntry pairs a set of groups with their entry for a chapter.
type GroupEntry struct {
	Groups Groups
	Entry  Entry
}

// GroupEntries keeps entries in insertion order.
type GroupEntries struct {
	items []GroupEntry
}

func (g *GroupEntries) index(groups Groups) int {
	key := groups.String()
	for i, item := range g.items {
		if item.Groups.String() == key {
			return i
		}
	}
	return -1
}

// Set replaces the entry in place when the groups already exist, else appends.
func (g *GroupEntries) Set(groups Groups, entry Entry) {
	if i := g.index(groups); i >= 0 {
		g.items[i].Entry = entry
		return
	}
	g.items = append(g.items, GroupEntry{Groups: groups, Entry: entry})
}

func (g *GroupEntries) Get(groups Groups) (Entry, bool) {
	if i := g.index(groups); i >= 0 {
		return g.items[i].Entry, true
	}
	return nil, false
}

func (g *GroupEntries) Delete(groups Groups) bool {
	i := g.index(groups)
	if i < 0 {
		return false
	}
	g.items = append(g.items[:i], g.items[i+1:]...)
	return true
}

func (g *GroupEntries) Len() int {
	return len(g.items)
}

func (g *GroupEntries) Keys() []Groups {
	keys := make([]Groups, len(g.items))
	for i, item := range g.items {
		keys[i] = item.Groups
	}
	return keys
}

// All returns a copy of the entries in insertion order.
func (g *GroupEntries) All() []GroupEntry {
	return append([]GroupEntry(nil), g.items...)
}

func (g GroupEntries) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	for _, item := range g.items {
		value, err := encodeEntry(item.Entry)
		if err != nil {
			return nil, fmt.Errorf("groups %q: %w", item.Groups, err)
		}
		if err := w.field(item.Groups.String(), value); err != nil {
			return nil, err
		}
	}
	return w.close(), nil
}

func (g *GroupEntries) UnmarshalJSON(b []byte) error {
	g.items = nil
	return readObject(b, func(key string, value json.RawMessage) error {
		entry, err := decodeEntry(value)
		if err != nil {
			return fmt.Errorf("groups %q: %w", key, err)
		}
		g.Set(ParseGroups(key), entry)
		return nil
	})
}
