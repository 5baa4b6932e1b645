// ABOUTME: Intent registry data model: Intent, IntentMatch, and the closed Entity sum type
// ABOUTME: Entity variants are value types so equality is structural (==)

package intent

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Kind identifies an Entity variant.
type Kind int

const (
	KindPath Kind = iota
	KindFileType
	KindOperation
	KindNumber
	KindDate
	KindCustom
)

// String returns the lowercase name used in YAML libraries and logs.
func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindFileType:
		return "file_type"
	case KindOperation:
		return "operation"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Entity is a typed value extracted from text. The set of implementations is
// closed: PathEntity, FileTypeEntity, OperationEntity, NumberEntity,
// DateEntity and CustomEntity.
type Entity interface {
	Kind() Kind
	// Value renders the entity as a template binding.
	Value() string
	sealed()
}

// PathEntity is a filesystem path.
type PathEntity string

// FileTypeEntity is a normalized short file extension ("py", "rs").
type FileTypeEntity string

// OperationEntity is a canonical verb ("find", "count").
type OperationEntity string

// NumberEntity is a numeric literal.
type NumberEntity float64

// DateEntity is a relative term ("today") or an ISO date.
type DateEntity string

// CustomEntity carries a named kind, e.g. Kind "sort" with Value "-hr".
type CustomEntity struct {
	Name string
	Val  string
}

func (PathEntity) Kind() Kind      { return KindPath }
func (FileTypeEntity) Kind() Kind  { return KindFileType }
func (OperationEntity) Kind() Kind { return KindOperation }
func (NumberEntity) Kind() Kind    { return KindNumber }
func (DateEntity) Kind() Kind      { return KindDate }
func (CustomEntity) Kind() Kind    { return KindCustom }

func (e PathEntity) Value() string      { return string(e) }
func (e FileTypeEntity) Value() string  { return string(e) }
func (e OperationEntity) Value() string { return string(e) }
func (e DateEntity) Value() string      { return string(e) }
func (e CustomEntity) Value() string    { return e.Val }

// Value renders whole numbers without a fractional part so "10" stays "10".
func (e NumberEntity) Value() string {
	f := float64(e)
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (PathEntity) sealed()      {}
func (FileTypeEntity) sealed()  {}
func (OperationEntity) sealed() {}
func (NumberEntity) sealed()    {}
func (DateEntity) sealed()      {}
func (CustomEntity) sealed()    {}

// Intent is a declared task the matcher can recognize.
type Intent struct {
	Name      string
	Domain    string
	Keywords  []string
	Patterns  []string
	Entities  map[string]Entity // entity name -> default value
	Threshold float64
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (i Intent) Clone() Intent {
	out := i
	out.Keywords = slices.Clone(i.Keywords)
	out.Patterns = slices.Clone(i.Patterns)
	out.Entities = maps.Clone(i.Entities)
	return out
}

// FuzzyMarker is appended to keywords that matched approximately.
const FuzzyMarker = "~"

// IntentMatch is the result of scoring one intent against one input.
type IntentMatch struct {
	Intent          Intent
	Confidence      float64 // 0.0-1.0
	MatchedKeywords []string
	Entities        map[string]Entity
}

// Clone returns a deep copy of the match.
func (m IntentMatch) Clone() IntentMatch {
	out := m
	out.Intent = m.Intent.Clone()
	out.MatchedKeywords = slices.Clone(m.MatchedKeywords)
	out.Entities = maps.Clone(m.Entities)
	return out
}

// Bindings flattens the intent defaults overlaid with the extracted
// entities into template variables. Extracted values always win. A default
// with an empty value declares an entity without a fallback and is omitted.
func (m IntentMatch) Bindings() map[string]string {
	out := make(map[string]string, len(m.Intent.Entities)+len(m.Entities))
	for name, e := range m.Intent.Entities {
		if v := e.Value(); v != "" {
			out[name] = v
		}
	}
	for name, e := range m.Entities {
		out[name] = e.Value()
	}
	return out
}
