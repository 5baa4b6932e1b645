// ABOUTME: Intent-to-pipeline converters sharing one find|sort|limit skeleton
// ABOUTME: Intents differ only in the sort field, direction, or leaf operation; unknown intents return false

package pipeline

import (
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mauromedda/nlsh/internal/intent"
	"github.com/mauromedda/nlsh/internal/plan"
)

// Parameter defaults shared by every converter.
const (
	DefaultPath      = "."
	DefaultPattern   = "*"
	DefaultDirection = Descending
	DefaultLimit     = 10
	MaxLimit         = 10000
)

// Params are the resolved inputs of a file pipeline.
type Params struct {
	Path      string
	Pattern   string
	Direction Direction
	Limit     int
}

// ParamsFrom resolves pipeline parameters from entity bindings, applying
// the shared defaults. Recognized keys: path; pattern, or ext/file_type
// (expanded to "*.ext"); sort_order ("-hr"/"-h"/"desc"/"asc"); limit or count,
// capped at MaxLimit.
func ParamsFrom(bindings map[string]string) Params {
	p := Params{
		Path:      DefaultPath,
		Pattern:   DefaultPattern,
		Direction: DefaultDirection,
		Limit:     DefaultLimit,
	}
	if v := strings.TrimSpace(bindings["path"]); v != "" {
		p.Path = v
	}
	if v := patternFrom(bindings); v != "" {
		p.Pattern = v
	}
	if d, ok := parseDirection(bindings["sort_order"]); ok {
		p.Direction = d
	}
	for _, key := range []string{"limit", "count"} {
		if n, err := strconv.ParseFloat(strings.TrimSpace(bindings[key]), 64); err == nil && n >= 1 {
			p.Limit = int(min(n, MaxLimit))
			break
		}
	}
	return p
}

// patternFrom returns a valid glob or "" when none is bound. Patterns that
// doublestar rejects, or that would break single quoting, are dropped.
func patternFrom(bindings map[string]string) string {
	pattern := strings.TrimSpace(bindings["pattern"])
	if pattern == "" {
		for _, key := range []string{"ext", "file_type"} {
			if ext := strings.TrimPrefix(strings.TrimSpace(bindings[key]), "."); ext != "" {
				pattern = "*." + ext
				break
			}
		}
	}
	if pattern == "" || strings.ContainsAny(pattern, "'/") || !doublestar.ValidatePattern(pattern) {
		return ""
	}
	return pattern
}

func parseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case intent.SortDescending, "-r", "-nr", "desc", "descending":
		return Descending, true
	case intent.SortAscending, "-n", "asc", "ascending":
		return Ascending, true
	default:
		return 0, false
	}
}

func (p Params) bindings() map[string]string {
	return map[string]string{
		"path":       p.Path,
		"pattern":    p.Pattern,
		"sort_order": p.Direction.String(),
		"limit":      strconv.Itoa(p.Limit),
	}
}

// converter builds a pipeline from resolved parameters.
type converter func(Params) Pipeline

// filesBy is the skeleton shared by every file-ranking intent: the leaf
// lists entries, then sort, then limit. Only one argument varies per intent.
func filesBy(leaf func(Params) Operation, field Field, fixed *Direction) converter {
	return func(p Params) Pipeline {
		dir := p.Direction
		if fixed != nil {
			dir = *fixed
		}
		return Pipeline{
			leaf(p),
			SortFiles{Field: field, Direction: dir},
			LimitFiles{Count: p.Limit},
		}
	}
}

func findLeaf(p Params) Operation { return FindFiles{Path: p.Path, Pattern: p.Pattern} }
func duLeaf(p Params) Operation   { return DiskUsage{Path: p.Path} }

func direction(d Direction) *Direction { return &d }

// Bridge converts matched intents into pipelines.
type Bridge struct {
	converters map[string]converter
}

// NewBridge creates a bridge with the built-in converters.
func NewBridge() *Bridge {
	return &Bridge{converters: map[string]converter{
		"find_files_by_size":   filesBy(findLeaf, FieldSize, nil),
		"find_largest_files":   filesBy(findLeaf, FieldSize, direction(Descending)),
		"find_smallest_files":  filesBy(findLeaf, FieldSize, direction(Ascending)),
		"find_recent_files":    filesBy(findLeaf, FieldTime, nil),
		"find_oldest_files":    filesBy(findLeaf, FieldTime, direction(Ascending)),
		"disk_usage":           filesBy(duLeaf, FieldSize, nil),
		"list_directory_sizes": filesBy(duLeaf, FieldSize, nil),
	}}
}

// Supports reports whether the bridge has a converter for the intent.
func (b *Bridge) Supports(intentName string) bool {
	_, ok := b.converters[intentName]
	return ok
}

// Pipeline returns the operation sequence for an intent without rendering it.
func (b *Bridge) Pipeline(intentName string, bindings map[string]string) (Pipeline, bool) {
	conv, ok := b.converters[intentName]
	if !ok {
		return nil, false
	}
	return conv(ParamsFrom(bindings)), true
}

// Convert renders the intent's pipeline into an execution plan. It returns
// false for intents without a converter; callers then fall back to templates.
func (b *Bridge) Convert(m intent.IntentMatch, bindings map[string]string) (*plan.ExecutionPlan, bool) {
	conv, ok := b.converters[m.Intent.Name]
	if !ok {
		return nil, false
	}
	params := ParamsFrom(bindings)
	return plan.New(conv(params).Render(), m.Intent.Name, plan.OriginPipeline, params.bindings()), true
}
