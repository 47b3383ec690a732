package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// editPackageJSON decodes the project's package.json, applies edit to it and
// writes it back. Key order is kept, indentation is normalized to two spaces.
func (p *Project) editPackageJSON(edit func(*object) error) error {
	path := filepath.Join(p.Dir, "package.json")

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}

	var pkg object
	if err := pkg.UnmarshalJSON(content); err != nil {
		return fmt.Errorf("project: invalid package.json: %w", err)
	}

	if err := edit(&pkg); err != nil {
		return fmt.Errorf("project: failed to edit package.json: %w", err)
	}

	out, err := encodeJSON(pkg, "  ")
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}

	return os.WriteFile(path, out, 0o644)
}

// encodeJSON encodes v followed by a newline, without escaping HTML
// characters, so values such as "a && b" or ">=0.8.0 <0.9.0" are kept as written.
func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type member struct {
	key   string
	value json.RawMessage
}

// object is a JSON object that remembers the order of its keys.
type object []member

func (o *object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("expected object, got %v", tok)
	}

	var out object
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
			return err
		}
		out = append(out, member{key, value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = out
	return nil
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeJSON(m.key, "")
		if err != nil {
			return nil, err
		}
		buf.Write(bytes.TrimSuffix(key, []byte{'\n'}))
		buf.WriteByte(':')
		buf.Write(m.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o object) get(key string) (json.RawMessage, bool) {
	for _, m := range o {
		if m.key == key {
			return m.value, true
		}
	}
	return nil, false
}

// getObject returns the object under key, or an empty object if the key is missing.
func (o object) getObject(key string) (object, error) {
	raw, ok := o.get(key)
	if !ok {
		return nil, nil
	}

	var obj object
	if err := obj.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return obj, nil
}

func (o *object) setValue(key string, v any) error {
	raw, err := encodeJSON(v, "")
	if err != nil {
		return err
	}
	raw = bytes.TrimSuffix(raw, []byte{'\n'})

	for i := range *o {
		if (*o)[i].key == key {
			(*o)[i].value = raw
			return nil
		}
	}
	*o = append(*o, member{key, raw})
	return nil
}

func (o *object) delete(key string) bool {
	for i, m := range *o {
		if m.key == key {
			*o = append((*o)[:i], (*o)[i+1:]...)
			return true
		}
	}
	return false
}
