// Package override layers auxiliary code-to-name mappings on top of the
// names parsed from the corpus.
package override

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

var ErrSourceUnusable = errors.New("override source unusable")

// Entry is one code-to-name pair as read from a source. Code is not yet
// validated against the canonical grammar.
type Entry struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

type Source interface {
	Name() string
	Load() ([]Entry, error)
}

// FileSource reads a JSON or YAML mapping. Two shapes are accepted:
//
//	{"Low-Low-Low-Low-Low": "Aquashine"}
//	{"Aquashine": {"traits": "Low | Low | Low | Low | Low"}}
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string {
	return s.Path
}

func (s *FileSource) Load() ([]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnusable, s.Path, err)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrSourceUnusable, s.Path, err)
	}

	entries := Flatten(raw)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrSourceUnusable, s.Path)
	}
	return entries, nil
}

// MapSource is an in-memory flat mapping.
type MapSource struct {
	Label   string
	Entries map[string]string
}

func (s *MapSource) Name() string {
	return s.Label
}

func (s *MapSource) Load() ([]Entry, error) {
	if len(s.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrSourceUnusable, s.Label)
	}
	raw := make(map[string]any, len(s.Entries))
	for k, v := range s.Entries {
		raw[k] = v
	}
	return Flatten(raw), nil
}

// Flatten turns either accepted shape into flat entries sorted by code.
// Values that fit neither shape are dropped.
func Flatten(raw map[string]any) []Entry {
	entries := make([]Entry, 0, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			entries = append(entries, Entry{Code: strings.TrimSpace(key), Name: strings.TrimSpace(v)})
		case map[string]any:
			code := nestedCode(v)
			if code == "" {
				continue
			}
			entries = append(entries, Entry{Code: code, Name: strings.TrimSpace(key)})
		}
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Code, b.Code) })
	return entries
}

func nestedCode(v map[string]any) string {
	if c, ok := v["code"].(string); ok && strings.TrimSpace(c) != "" {
		return strings.TrimSpace(c)
	}
	if t, ok := v["traits"].(string); ok {
		return DescriptorToCode(t)
	}
	return ""
}

// DescriptorToCode rebuilds a dash-joined code from a pipe or space
// delimited descriptor such as "Low | Medium | High | Low | Low".
func DescriptorToCode(descriptor string) string {
	fields := strings.FieldsFunc(descriptor, func(r rune) bool {
		return r == '|' || r == ',' || r == '-' || unicode.IsSpace(r)
	})
	return strings.Join(fields, "-")
}
