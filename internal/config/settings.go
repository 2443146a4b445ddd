package config

import (
	"bytes"
	"sort"

	"github.com/cloudflare/cfworker/pkg/types"
	json "github.com/goccy/go-json"
)

// Settings is the persisted project record. Keys the tool does not know are
// kept aside and written back on save.
type Settings struct {
	WorkerName        string              `json:"worker_name"`
	MainScript        string              `json:"main"`
	CompatibilityDate string              `json:"compatibility_date"`
	Routes            []string            `json:"routes"`
	KVNamespaces      []types.KVNamespace `json:"kv_namespaces"`
	Vars              types.Vars          `json:"vars"`
	Triggers          types.Triggers      `json:"triggers"`

	extra map[string]json.RawMessage
}

var knownKeys = map[string]bool{
	"worker_name":        true,
	"main":               true,
	"compatibility_date": true,
	"routes":             true,
	"kv_namespaces":      true,
	"vars":               true,
	"triggers":           true,
}

// settingsJSON has the Settings fields without its codec methods
type settingsJSON Settings

// Defaults returns the settings written by init
func Defaults(workerName string) Settings {
	s := Settings{WorkerName: workerName}
	s.applyDefaults()
	return s
}

// Main returns the main script path, falling back to the default
func (s Settings) Main() string {
	if s.MainScript == "" {
		return DefaultMainScript
	}
	return s.MainScript
}

// Compatibility returns the compatibility date, falling back to the default
func (s Settings) Compatibility() string {
	if s.CompatibilityDate == "" {
		return DefaultCompatibilityDate
	}
	return s.CompatibilityDate
}

func (s *Settings) applyDefaults() {
	s.MainScript = s.Main()
	s.CompatibilityDate = s.Compatibility()

	if s.Routes == nil {
		s.Routes = []string{}
	}
	if s.KVNamespaces == nil {
		s.KVNamespaces = []types.KVNamespace{}
	}
	if s.Vars == nil {
		s.Vars = types.Vars{}
	}
	if s.Triggers.Crons == nil {
		s.Triggers.Crons = []string{}
	}
}

// MarshalJSON writes the known fields in order followed by the unknown keys
// sorted by name
func (s Settings) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(settingsJSON(s))
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return known, nil
	}

	keys := make([]string, 0, len(s.extra))
	for k := range s.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b bytes.Buffer
	b.Write(known[:len(known)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.WriteByte(',')
		b.Write(name)
		b.WriteByte(':')
		b.Write(s.extra[k])
	}
	b.WriteByte('}')

	return b.Bytes(), nil
}

// UnmarshalJSON decodes the known fields and keeps the rest
func (s *Settings) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	var known settingsJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	*s = Settings(known)

	for k, v := range doc {
		if knownKeys[k] {
			continue
		}
		if s.extra == nil {
			s.extra = make(map[string]json.RawMessage)
		}
		s.extra[k] = v
	}

	return nil
}

// document returns the settings as a JSON object keyed by field name
func (s Settings) document() (map[string]json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
