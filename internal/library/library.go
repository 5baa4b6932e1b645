// ABOUTME: YAML intent and template libraries: the embedded built-in set and user files
// ABOUTME: Parses, validates, merges by name, and installs into a matcher and template engine

package library

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mauromedda/nlsh/internal/intent"
	"github.com/mauromedda/nlsh/internal/template"
)

// DefaultThreshold applies to intents that do not declare one.
const DefaultThreshold = 0.5

//go:embed library.yaml
var builtinYAML []byte

// Library is an ordered set of intents and the templates that render them.
type Library struct {
	Intents   []intent.Intent
	Templates []template.Template
}

type entitySpec struct {
	Type    string `yaml:"type"`
	Kind    string `yaml:"kind"`
	Default string `yaml:"default"`
}

type intentSpec struct {
	Name      string                `yaml:"name"`
	Domain    string                `yaml:"domain"`
	Keywords  []string              `yaml:"keywords"`
	Patterns  []string              `yaml:"patterns"`
	Threshold *float64              `yaml:"threshold"`
	Entities  map[string]entitySpec `yaml:"entities"`
}

type templateSpec struct {
	Name        string   `yaml:"name"`
	Command     string   `yaml:"command"`
	Variables   []string `yaml:"variables"`
	Description string   `yaml:"description"`
}

type fileSpec struct {
	Intents   []intentSpec   `yaml:"intents"`
	Templates []templateSpec `yaml:"templates"`
}

// Builtin parses the embedded library. Each call returns a fresh copy.
func Builtin() (*Library, error) {
	lib, err := Load(bytes.NewReader(builtinYAML))
	if err != nil {
		return nil, fmt.Errorf("builtin library: %w", err)
	}
	return lib, nil
}

// LoadFile reads a YAML library from path.
func LoadFile(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read library %s: %w", path, err)
	}
	defer f.Close()

	lib, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", path, err)
	}
	return lib, nil
}

// Load parses and validates a YAML library. Unknown fields are rejected so
// typos surface at load time. An empty document is an empty library.
func Load(r io.Reader) (*Library, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc fileSpec
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse library: %w", err)
	}

	lib := &Library{}
	var errs []error
	seen := make(map[string]bool)
	for _, is := range doc.Intents {
		in, err := is.toIntent()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[in.Name] {
			errs = append(errs, fmt.Errorf("intent %q: duplicate name", in.Name))
			continue
		}
		seen[in.Name] = true
		lib.Intents = append(lib.Intents, in)
	}

	seen = make(map[string]bool)
	for _, ts := range doc.Templates {
		t, err := ts.toTemplate()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("template %q: duplicate name", t.Name))
			continue
		}
		seen[t.Name] = true
		lib.Templates = append(lib.Templates, t)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return lib, nil
}

func (s intentSpec) toIntent() (intent.Intent, error) {
	if s.Name == "" {
		return intent.Intent{}, errors.New("intent without a name")
	}
	threshold := DefaultThreshold
	if s.Threshold != nil {
		threshold = *s.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return intent.Intent{}, fmt.Errorf("intent %q: threshold %v outside [0, 1]", s.Name, threshold)
	}

	in := intent.Intent{
		Name:      s.Name,
		Domain:    s.Domain,
		Keywords:  slices.Clone(s.Keywords),
		Patterns:  slices.Clone(s.Patterns),
		Threshold: threshold,
	}
	if len(s.Entities) > 0 {
		in.Entities = make(map[string]intent.Entity, len(s.Entities))
		for name, es := range s.Entities {
			e, err := ParseEntity(es.Type, es.Kind, es.Default)
			if err != nil {
				return intent.Intent{}, fmt.Errorf("intent %q: entity %q: %w", s.Name, name, err)
			}
			in.Entities[name] = e
		}
	}
	return in, nil
}

func (s templateSpec) toTemplate() (template.Template, error) {
	if s.Name == "" {
		return template.Template{}, errors.New("template without a name")
	}
	if s.Command == "" {
		return template.Template{}, fmt.Errorf("template %q: empty command", s.Name)
	}
	t := template.Template{
		Name:        s.Name,
		Command:     s.Command,
		Variables:   slices.Clone(s.Variables),
		Description: s.Description,
	}
	placeholders := t.Placeholders()
	for _, v := range t.Variables {
		if !slices.Contains(placeholders, v) {
			return template.Template{}, fmt.Errorf("template %q: variable %q not used in command", s.Name, v)
		}
	}
	return t, nil
}

// ParseEntity builds the default entity for a declared type. An empty
// default declares the entity without a fallback value; number entities
// always need one.
func ParseEntity(typ, kind, def string) (intent.Entity, error) {
	switch typ {
	case "path":
		return intent.PathEntity(def), nil
	case "file_type":
		return intent.FileTypeEntity(def), nil
	case "operation":
		return intent.OperationEntity(def), nil
	case "date":
		return intent.DateEntity(def), nil
	case "number":
		n, err := strconv.ParseFloat(def, 64)
		if err != nil {
			return nil, fmt.Errorf("number default %q: %w", def, err)
		}
		return intent.NumberEntity(n), nil
	case "custom":
		if kind == "" {
			return nil, errors.New("custom entity without a kind")
		}
		return intent.CustomEntity{Name: kind, Val: def}, nil
	default:
		return nil, fmt.Errorf("unknown entity type %q", typ)
	}
}

// Merge overlays other onto l: entries with an existing name replace it in
// place, new names are appended.
func (l *Library) Merge(other *Library) {
	if other == nil {
		return
	}
	for _, in := range other.Intents {
		if i := slices.IndexFunc(l.Intents, func(x intent.Intent) bool { return x.Name == in.Name }); i >= 0 {
			l.Intents[i] = in
		} else {
			l.Intents = append(l.Intents, in)
		}
	}
	for _, t := range other.Templates {
		if i := slices.IndexFunc(l.Templates, func(x template.Template) bool { return x.Name == t.Name }); i >= 0 {
			l.Templates[i] = t
		} else {
			l.Templates = append(l.Templates, t)
		}
	}
}

// Install registers every intent and template. It returns the pattern
// diagnostics reported by the matcher; none of them are fatal.
func (l *Library) Install(m *intent.Matcher, e *template.Engine) []error {
	var diags []error
	for _, in := range l.Intents {
		diags = append(diags, m.Register(in)...)
	}
	for _, t := range l.Templates {
		e.Register(t)
	}
	return diags
}
