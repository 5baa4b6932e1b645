// ABOUTME: Command template registry with literal {var} placeholder substitution
// ABOUTME: No escaping, nesting or loops; substituted values are never re-expanded

package template

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/mauromedda/nlsh/internal/intent"
	"github.com/mauromedda/nlsh/internal/plan"
)

// ErrTemplateNotFound is returned when generating from an unregistered name.
var ErrTemplateNotFound = errors.New("template not found")

// ErrMissingVariable matches any *MissingVariableError via errors.Is.
var ErrMissingVariable = errors.New("missing template variable")

// MissingVariableError names the first required variable absent from the bindings.
type MissingVariableError struct {
	Template string
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template %q: missing variable %q", e.Template, e.Variable)
}

// Is lets errors.Is(err, ErrMissingVariable) match.
func (e *MissingVariableError) Is(target error) bool {
	return target == ErrMissingVariable
}

// Template is a shell command skeleton with {var} placeholders.
type Template struct {
	Name        string
	Command     string
	Variables   []string // required bindings
	Description string
}

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Placeholders returns the distinct {var} names in the command, in order
// of first appearance.
func (t Template) Placeholders() []string {
	var out []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(t.Command, -1) {
		if !slices.Contains(out, m[1]) {
			out = append(out, m[1])
		}
	}
	return out
}

// Engine holds registered templates. Safe for concurrent use.
type Engine struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{templates: make(map[string]Template)}
}

// Register adds or replaces a template by name.
func (e *Engine) Register(t Template) {
	t.Variables = slices.Clone(t.Variables)
	e.mu.Lock()
	e.templates[t.Name] = t
	e.mu.Unlock()
}

// Get returns the named template.
func (e *Engine) Get(name string) (Template, bool) {
	e.mu.RLock()
	t, ok := e.templates[name]
	e.mu.RUnlock()
	return t, ok
}

// Names returns the registered template names, sorted.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.templates))
	for n := range e.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Missing returns the required variables of the named template that are
// absent from bindings, in declared order. Unknown templates yield nil.
func (e *Engine) Missing(name string, bindings map[string]string) []string {
	t, ok := e.Get(name)
	if !ok {
		return nil
	}
	var missing []string
	for _, v := range t.Variables {
		if _, ok := bindings[v]; !ok {
			missing = append(missing, v)
		}
	}
	return missing
}

// Generate substitutes bindings into the named template. Every required
// variable must be bound; every binding is substituted, declared or not,
// so templates may carry optional placeholders.
func (e *Engine) Generate(name string, bindings map[string]string) (*plan.ExecutionPlan, error) {
	t, ok := e.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	for _, v := range t.Variables {
		if _, ok := bindings[v]; !ok {
			return nil, &MissingVariableError{Template: name, Variable: v}
		}
	}
	return plan.New(substitute(t.Command, bindings), name, plan.OriginTemplate, bindings), nil
}

// GenerateFromIntent binds the intent's declared defaults, overlays the
// extracted entities, and generates from the template named after the intent.
func (e *Engine) GenerateFromIntent(m intent.IntentMatch) (*plan.ExecutionPlan, error) {
	return e.Generate(m.Intent.Name, m.Bindings())
}

// substitute replaces every {key} with its value in a single pass.
func substitute(command string, bindings map[string]string) string {
	if len(bindings) == 0 {
		return command
	}
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", bindings[k])
	}
	return strings.NewReplacer(pairs...).Replace(command)
}
