// ABOUTME: ExecutionPlan: an immutable, ready-to-run shell command and its provenance
// ABOUTME: Produced by the template engine or the pipeline bridge; consumed by the shell executor

package plan

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// Origin names the generator that produced a plan.
type Origin string

const (
	OriginTemplate Origin = "template"
	OriginPipeline Origin = "pipeline"
)

// ExecutionPlan is a generated command. It is immutable once constructed:
// fields are unexported and Bindings returns a copy.
type ExecutionPlan struct {
	id       string
	command  string
	source   string
	origin   Origin
	bindings map[string]string
}

// New builds a plan. source is the originating template or intent name.
func New(command, source string, origin Origin, bindings map[string]string) *ExecutionPlan {
	return &ExecutionPlan{
		id:       uuid.NewString(),
		command:  command,
		source:   source,
		origin:   origin,
		bindings: maps.Clone(bindings),
	}
}

// ID uniquely identifies this plan for logs and audit trails.
func (p *ExecutionPlan) ID() string { return p.id }

// Command is the shell command to run.
func (p *ExecutionPlan) Command() string { return p.command }

// Source is the template or intent name the plan came from.
func (p *ExecutionPlan) Source() string { return p.source }

// Origin reports which generator produced the plan.
func (p *ExecutionPlan) Origin() Origin { return p.origin }

// Bindings returns a copy of the variable bindings used to build the command.
func (p *ExecutionPlan) Bindings() map[string]string {
	out := maps.Clone(p.bindings)
	if out == nil {
		out = map[string]string{}
	}
	return out
}

func (p *ExecutionPlan) String() string {
	return fmt.Sprintf("%s (%s:%s)", p.command, p.origin, p.source)
}
