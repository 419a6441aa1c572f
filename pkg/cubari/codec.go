package cubari

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Unmarshal decodes a Cubari series document.
func Unmarshal(data []byte) (*Manga, error) {
	m := NewManga()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal encodes a series document the way Cubari files are usually
// committed: two space indentation, no HTML escaping.
func Marshal(m *Manga) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("nil manga")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// objectWriter builds a JSON object with a fixed key order.
type objectWriter struct {
	buf   bytes.Buffer
	empty bool
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{empty: true}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) field(key string, value []byte) error {
	k, err := marshalNoEscape(key)
	if err != nil {
		return err
	}
	if !w.empty {
		w.buf.WriteByte(',')
	}
	w.empty = false
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(value)
	return nil
}

func (w *objectWriter) fieldValue(key string, v any) error {
	value, err := marshalNoEscape(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return w.field(key, value)
}

func (w *objectWriter) close() []byte {
	w.buf.WriteByte('}')
	return w.buf.Bytes()
}

// readObject walks the members of a JSON object in document order.
func readObject(b []byte, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// readString requires a JSON string token.
func readString(b json.RawMessage, field string) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '"' {
		return "", fmt.Errorf("%s: expecting string value", field)
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return s, nil
}
