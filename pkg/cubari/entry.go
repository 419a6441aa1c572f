package cubari

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
)

// Entry is the page list of one chapter for one set of groups.
// It is either a *ProxyEntry or a *ListEntry.
type Entry interface {
	isEntry()
}

type ProxyType int

const (
	ProxyNone ProxyType = iota
	ProxyImageChest
	ProxyImgur
)

var proxyTypeNames = map[ProxyType]string{
	ProxyImageChest: "imgchest",
	ProxyImgur:      "imgur",
}

func (p ProxyType) String() string {
	if name, ok := proxyTypeNames[p]; ok {
		return name
	}
	return "none"
}

func parseProxyType(name string) (ProxyType, bool) {
	for t, n := range proxyTypeNames {
		if n == name {
			return t, true
		}
	}
	return ProxyNone, false
}

var proxyPattern = regexp.MustCompile(`^/proxy/api/([a-z0-9]+)/chapter/([^/]+)/?$`)

// ProxyEntry points at a chapter hosted on a proxy service Cubari knows about.
type ProxyEntry struct {
	Type ProxyType
	ID   string
}

func (*ProxyEntry) isEntry() {}

// ParseProxyEntry parses the /proxy/api/<type>/chapter/<id>/ form.
// The empty string is the empty proxy entry.
func ParseProxyEntry(value string) (*ProxyEntry, error) {
	if value == "" {
		return &ProxyEntry{Type: ProxyNone}, nil
	}

	m := proxyPattern.FindStringSubmatch(value)
	if m == nil {
		return nil, fmt.Errorf("invalid proxy entry uri %q", value)
	}
	t, ok := parseProxyType(m[1])
	if !ok {
		return nil, fmt.Errorf("unknown proxy type %q in %q", m[1], value)
	}
	id, err := url.PathUnescape(m[2])
	if err != nil {
		return nil, fmt.Errorf("invalid proxy id in %q: %w", value, err)
	}
	return &ProxyEntry{Type: t, ID: id}, nil
}

// URIString is the Cubari proxy path of the entry.
func (p *ProxyEntry) URIString() string {
	if p.Type == ProxyNone {
		return ""
	}
	return fmt.Sprintf("/proxy/api/%s/chapter/%s/", p.Type, url.PathEscape(p.ID))
}

func (p *ProxyEntry) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(p.URIString())
}

func (p *ProxyEntry) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("proxy entry: %w", err)
	}
	parsed, err := ParseProxyEntry(s)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

// ListEntry is an explicit ordered list of page images.
type ListEntry struct {
	Images []*url.URL
}

func (*ListEntry) isEntry() {}

// NewListEntry parses every raw URL; each one has to be absolute.
func NewListEntry(raw ...string) (*ListEntry, error) {
	entry := &ListEntry{Images: make([]*url.URL, 0, len(raw))}
	for i, r := range raw {
		u, err := parseImageURL(r)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		entry.Images = append(entry.Images, u)
	}
	return entry, nil
}

func parseImageURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty list entry element")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("image url %q is not absolute", raw)
	}
	return u, nil
}

func (l *ListEntry) MarshalJSON() ([]byte, error) {
	out := make([]string, len(l.Images))
	for i, u := range l.Images {
		out[i] = u.String()
	}
	return marshalNoEscape(out)
}

func (l *ListEntry) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("list entry: %w", err)
	}
	images := make([]*url.URL, 0, len(raw))
	for i, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return fmt.Errorf("list entry element %d is not a string", i)
		}
		u, err := parseImageURL(s)
		if err != nil {
			return fmt.Errorf("list entry element %d: %w", i, err)
		}
		images = append(images, u)
	}
	l.Images = images
	return nil
}

// decodeEntry picks the variant from the JSON token type.
func decodeEntry(b []byte) (Entry, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("empty entry")
	}
	switch b[0] {
	case '"':
		var p ProxyEntry
		if err := p.UnmarshalJSON(b); err != nil {
			return nil, err
		}
		return &p, nil
	case '[':
		var l ListEntry
		if err := l.UnmarshalJSON(b); err != nil {
			return nil, err
		}
		return &l, nil
	default:
		return nil, fmt.Errorf("unknown entry json token %q", b[0])
	}
}

func encodeEntry(e Entry) ([]byte, error) {
	switch v := e.(type) {
	case *ProxyEntry:
		return v.MarshalJSON()
	case *ListEntry:
		return v.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown entry type %T", e)
	}
}
