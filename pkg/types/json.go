package types

import (
	"bytes"
	"fmt"

	"github.com/cloudflare/cloudflare-go"
	json "github.com/goccy/go-json"
)

// Var is a single plain text variable
type Var struct {
	Name  string
	Value string
}

// Vars is an ordered name to text mapping. It encodes as a JSON object and
// keeps the key order of the document it was decoded from.
type Vars []Var

// Get returns the value of the named variable
func (v Vars) Get(name string) (string, bool) {
	for _, kv := range v {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}

// Set replaces the named variable in place or appends it
func (v *Vars) Set(name, value string) {
	for i := range *v {
		if (*v)[i].Name == name {
			(*v)[i].Value = value
			return
		}
	}
	*v = append(*v, Var{Name: name, Value: value})
}

// MarshalJSON encodes the variables as an object in order
func (v Vars) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, kv := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(kv.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping its key order. Non-string values
// are kept as their JSON text.
func (v *Vars) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*v = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("vars must be an object, got %v", tok)
	}

	out := Vars{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			text = string(raw)
		}
		out.Set(key, text)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*v = out
	return nil
}

// MarshalJSON encodes the binding in the shape the upload metadata expects
// for its type
func (b Binding) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case cloudflare.WorkerPlainTextBindingType:
		return json.Marshal(struct {
			Type string `json:"type"`
			Name string `json:"name"`
			Text string `json:"text"`
		}{string(b.Type), b.Name, b.Text})

	case cloudflare.WorkerKvNamespaceBindingType:
		return json.Marshal(struct {
			Type        string `json:"type"`
			Name        string `json:"name"`
			NamespaceID string `json:"namespace_id"`
		}{string(b.Type), b.Name, b.NamespaceID})

	default:
		return json.Marshal(struct {
			Type string `json:"type"`
			Name string `json:"name"`
		}{string(b.Type), b.Name})
	}
}

// UnmarshalJSON decodes any of the binding shapes
func (b *Binding) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string `json:"type"`
		Name        string `json:"name"`
		Text        string `json:"text"`
		NamespaceID string `json:"namespace_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = Binding{
		Type:        cloudflare.WorkerBindingType(raw.Type),
		Name:        raw.Name,
		Text:        raw.Text,
		NamespaceID: raw.NamespaceID,
	}
	return nil
}
