// ABOUTME: Tests for template registration, substitution, and error taxonomy
// ABOUTME: Covers MissingVariable iff-semantics, optional placeholders, and intent defaults

package template

import (
	"errors"
	"testing"

	"github.com/mauromedda/nlsh/internal/intent"
	"github.com/mauromedda/nlsh/internal/plan"
)

func countFilesEngine() *Engine {
	e := NewEngine()
	e.Register(Template{
		Name:        "count_files",
		Command:     "find {path} -name '*.{ext}' -type f | wc -l",
		Variables:   []string{"path", "ext"},
		Description: "Count files by extension",
	})
	return e
}

func TestGenerate_CountFiles(t *testing.T) {
	t.Parallel()

	e := countFilesEngine()
	p, err := e.Generate("count_files", map[string]string{"path": ".", "ext": "rs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "find . -name '*.rs' -type f | wc -l"
	if p.Command() != want {
		t.Errorf("Command() = %q; want %q", p.Command(), want)
	}
	if p.Source() != "count_files" {
		t.Errorf("Source() = %q; want count_files", p.Source())
	}
	if p.Origin() != plan.OriginTemplate {
		t.Errorf("Origin() = %q; want %q", p.Origin(), plan.OriginTemplate)
	}
	if got := p.Bindings()["ext"]; got != "rs" {
		t.Errorf("Bindings()[ext] = %q; want rs", got)
	}
}

func TestGenerate_TemplateNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewEngine().Generate("nope", nil)
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("err = %v; want ErrTemplateNotFound", err)
	}
}

func TestGenerate_MissingVariableIff(t *testing.T) {
	t.Parallel()

	e := countFilesEngine()
	tests := []struct {
		name     string
		bindings map[string]string
		wantVar  string // empty means no error
	}{
		{"all present", map[string]string{"path": ".", "ext": "go"}, ""},
		{"extra bindings", map[string]string{"path": ".", "ext": "go", "unused": "x"}, ""},
		{"empty value still bound", map[string]string{"path": "", "ext": "go"}, ""},
		{"missing ext", map[string]string{"path": "."}, "ext"},
		{"missing path", map[string]string{"ext": "go"}, "path"},
		{"nothing", nil, "path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := e.Generate("count_files", tt.bindings)
			if tt.wantVar == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var mv *MissingVariableError
			if !errors.As(err, &mv) {
				t.Fatalf("err = %v; want *MissingVariableError", err)
			}
			if mv.Variable != tt.wantVar {
				t.Errorf("Variable = %q; want %q", mv.Variable, tt.wantVar)
			}
			if !errors.Is(err, ErrMissingVariable) {
				t.Error("errors.Is(err, ErrMissingVariable) = false")
			}
		})
	}
}

func TestGenerate_OptionalPlaceholders(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Register(Template{
		Name:      "grep_text",
		Command:   "grep -rn{flags} '{pattern}' {path}",
		Variables: []string{"pattern", "path"},
	})

	p, err := e.Generate("grep_text", map[string]string{"pattern": "TODO", "path": "src", "flags": "i"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "grep -rni 'TODO' src"; p.Command() != want {
		t.Errorf("Command() = %q; want %q", p.Command(), want)
	}

	p, err = e.Generate("grep_text", map[string]string{"pattern": "TODO", "path": "src"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "grep -rn{flags} 'TODO' src"; p.Command() != want {
		t.Errorf("unbound optional placeholder: Command() = %q; want %q", p.Command(), want)
	}
}

func TestGenerate_ValuesNotReexpanded(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Register(Template{Name: "echo", Command: "echo {a} {b}", Variables: []string{"a", "b"}})

	p, err := e.Generate("echo", map[string]string{"a": "{b}", "b": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "echo {b} x"; p.Command() != want {
		t.Errorf("Command() = %q; want %q", p.Command(), want)
	}
}

func TestGenerateFromIntent_ExtractedWinsOverDefaults(t *testing.T) {
	t.Parallel()

	e := countFilesEngine()
	m := intent.IntentMatch{
		Intent: intent.Intent{
			Name: "count_files",
			Entities: map[string]intent.Entity{
				"path": intent.PathEntity("."),
				"ext":  intent.FileTypeEntity("txt"),
			},
		},
		Entities: map[string]intent.Entity{
			"ext": intent.FileTypeEntity("py"),
		},
	}

	p, err := e.GenerateFromIntent(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "find . -name '*.py' -type f | wc -l"; p.Command() != want {
		t.Errorf("Command() = %q; want %q", p.Command(), want)
	}
}

func TestGenerateFromIntent_NoTemplate(t *testing.T) {
	t.Parallel()

	_, err := NewEngine().GenerateFromIntent(intent.IntentMatch{Intent: intent.Intent{Name: "ghost"}})
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("err = %v; want ErrTemplateNotFound", err)
	}
}

func TestPlaceholdersAndMissing(t *testing.T) {
	t.Parallel()

	e := countFilesEngine()
	tmpl, ok := e.Get("count_files")
	if !ok {
		t.Fatal("count_files not registered")
	}
	got := tmpl.Placeholders()
	if len(got) != 2 || got[0] != "path" || got[1] != "ext" {
		t.Errorf("Placeholders() = %v; want [path ext]", got)
	}

	missing := e.Missing("count_files", map[string]string{"path": "."})
	if len(missing) != 1 || missing[0] != "ext" {
		t.Errorf("Missing() = %v; want [ext]", missing)
	}
	if e.Missing("nope", nil) != nil {
		t.Error("Missing() on unknown template should be nil")
	}
	if names := e.Names(); len(names) != 1 || names[0] != "count_files" {
		t.Errorf("Names() = %v", names)
	}
}
