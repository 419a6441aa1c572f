package cubari

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Manga is one Cubari series document.
type Manga struct {
	Title       string
	Description string
	Artist      string
	Author      string
	Cover       *url.URL
	Chapters    Chapters
}

func NewManga() *Manga {
	return &Manga{}
}

// Chapter is one chapter of a series with its entries per group.
type Chapter struct {
	Title       string
	Volume      *decimal.Decimal
	Groups      GroupEntries
	LastUpdated time.Time
}

func NewChapter(title string) *Chapter {
	return &Chapter{Title: title, LastUpdated: time.Now().UTC().Truncate(time.Second)}
}

// SetVolume parses a volume number, the empty string clears it.
func (c *Chapter) SetVolume(value string) error {
	v, err := parseNullableDecimal(value)
	if err != nil {
		return err
	}
	c.Volume = v
	return nil
}

// VolumeString is the wire form of the volume, empty when unset.
func (c *Chapter) VolumeString() string {
	if c.Volume == nil {
		return ""
	}
	return FormatNumber(*c.Volume)
}

// ParseChapterNumber parses a chapter key such as "12" or "12.5".
func ParseChapterNumber(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid chapter number %q: %w", value, err)
	}
	return d, nil
}

// FormatNumber writes d with the scale it was parsed with, so "1.50"
// stays "1.50".
func FormatNumber(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// NumberedChapter is a chapter together with its key.
type NumberedChapter struct {
	Number  decimal.Decimal
	Chapter *Chapter
}

// Chapters is kept sorted by chapter number.
type Chapters struct {
	items []NumberedChapter
}

func (c *Chapters) search(number decimal.Decimal) (int, bool) {
	i := sort.Search(len(c.items), func(i int) bool {
		return c.items[i].Number.Cmp(number) >= 0
	})
	return i, i < len(c.items) && c.items[i].Number.Equal(number)
}

// Set inserts or replaces the chapter with the given number.
func (c *Chapters) Set(number decimal.Decimal, chapter *Chapter) {
	i, found := c.search(number)
	if found {
		c.items[i].Chapter = chapter
		return
	}
	c.items = append(c.items, NumberedChapter{})
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = NumberedChapter{Number: number, Chapter: chapter}
}

func (c *Chapters) Get(number decimal.Decimal) (*Chapter, bool) {
	if i, found := c.search(number); found {
		return c.items[i].Chapter, true
	}
	return nil, false
}

func (c *Chapters) Delete(number decimal.Decimal) bool {
	i, found := c.search(number)
	if !found {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

func (c *Chapters) Len() int {
	return len(c.items)
}

func (c *Chapters) Numbers() []decimal.Decimal {
	out := make([]decimal.Decimal, len(c.items))
	for i, item := range c.items {
		out[i] = item.Number
	}
	return out
}

// All returns a copy of the chapters in ascending order.
func (c *Chapters) All() []NumberedChapter {
	return append([]NumberedChapter(nil), c.items...)
}

func (c Chapters) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	for _, item := range c.items {
		value, err := marshalNoEscape(item.Chapter)
		if err != nil {
			return nil, fmt.Errorf("chapter %s: %w", item.Number, err)
		}
		if err := w.field(FormatNumber(item.Number), value); err != nil {
			return nil, err
		}
	}
	return w.close(), nil
}

func (c *Chapters) UnmarshalJSON(b []byte) error {
	c.items = nil
	return readObject(b, func(key string, value json.RawMessage) error {
		number, err := ParseChapterNumber(key)
		if err != nil {
			return err
		}
		ch := &Chapter{}
		if err := json.Unmarshal(value, ch); err != nil {
			return fmt.Errorf("chapter %s: %w", key, err)
		}
		c.Set(number, ch)
		return nil
	})
}

func (c *Chapter) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	if err := w.fieldValue("title", c.Title); err != nil {
		return nil, err
	}
	if err := w.fieldValue("volume", c.VolumeString()); err != nil {
		return nil, err
	}
	groups, err := c.Groups.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if err := w.field("groups", groups); err != nil {
		return nil, err
	}
	if err := w.fieldValue("last_updated", strconv.FormatInt(c.LastUpdated.Unix(), 10)); err != nil {
		return nil, err
	}
	return w.close(), nil
}

func (c *Chapter) UnmarshalJSON(b []byte) error {
	// An absent last_updated means the chapter is new.
	*c = Chapter{LastUpdated: time.Now().UTC().Truncate(time.Second)}
	return readObject(b, func(key string, value json.RawMessage) error {
		switch key {
		case "title":
			s, err := readText(value, key)
			if err != nil {
				return err
			}
			c.Title = s
		case "volume":
			s, err := readString(value, key)
			if err != nil {
				return err
			}
			v, err := parseNullableDecimal(s)
			if err != nil {
				return fmt.Errorf("volume: %w", err)
			}
			c.Volume = v
		case "groups":
			if err := c.Groups.UnmarshalJSON(value); err != nil {
				return err
			}
		case "last_updated":
			s, err := readString(value, key)
			if err != nil {
				return err
			}
			c.LastUpdated = parseUnixTimestamp(s)
		}
		return nil
	})
}

func (m *Manga) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	for _, f := range []struct {
		key   string
		value string
	}{
		{"title", m.Title},
		{"description", m.Description},
		{"artist", m.Artist},
		{"author", m.Author},
		{"cover", m.CoverString()},
	} {
		if err := w.fieldValue(f.key, f.value); err != nil {
			return nil, err
		}
	}
	chapters, err := m.Chapters.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if err := w.field("chapters", chapters); err != nil {
		return nil, err
	}
	return w.close(), nil
}

func (m *Manga) UnmarshalJSON(b []byte) error {
	*m = Manga{}
	return readObject(b, func(key string, value json.RawMessage) error {
		var err error
		switch key {
		case "title":
			m.Title, err = readText(value, key)
		case "description":
			m.Description, err = readText(value, key)
		case "artist":
			m.Artist, err = readText(value, key)
		case "author":
			m.Author, err = readText(value, key)
		case "cover":
			var s string
			if s, err = readText(value, key); err == nil {
				err = m.SetCover(s)
			}
		case "chapters":
			err = m.Chapters.UnmarshalJSON(value)
		}
		return err
	})
}

// CoverString is the cover URL, empty when unset.
func (m *Manga) CoverString() string {
	if m.Cover == nil {
		return ""
	}
	return m.Cover.String()
}

// SetCover parses a cover URL, the empty string clears it.
func (m *Manga) SetCover(value string) error {
	if value == "" {
		m.Cover = nil
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("cover: %w", err)
	}
	m.Cover = u
	return nil
}

// readText accepts a string or null.
func readText(b json.RawMessage, field string) (string, error) {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return "", nil
	}
	return readString(b, field)
}

func parseNullableDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("could not parse number %q", s)
	}
	return &d, nil
}

// parseUnixTimestamp falls back to the epoch on garbage.
func parseUnixTimestamp(s string) time.Time {
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return time.Unix(ts, 0).UTC()
}
