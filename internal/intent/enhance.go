// ABOUTME: LLM-assisted entity extraction for names the regex extractor could not fill
// ABOUTME: Merges only missing names; any failure leaves the regex-only match untouched

package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mauromedda/nlsh/internal/llm"
)

const enhanceSystemPrompt = `You extract parameters for a shell command from a user request.
The request may mix Chinese and English.
Respond with ONLY a JSON object whose keys are the requested parameter names and whose values are strings.
Use null for any parameter the request does not mention. Do not include any other text.`

// Enhancer fills entities the rule-based extractor missed by asking an LLM.
type Enhancer struct {
	client llm.Client
}

// NewEnhancer creates an enhancer backed by the given client.
func NewEnhancer(client llm.Client) *Enhancer {
	return &Enhancer{client: client}
}

// Enhance asks the LLM for the named entities and returns a copy of match
// with those that were missing filled in. Entities already extracted are
// never overwritten. On any error the returned match equals the input
// and the error is reported for logging only.
func (e *Enhancer) Enhance(ctx context.Context, text string, match IntentMatch, missing []string) (IntentMatch, error) {
	out := match.Clone()

	var wanted []string
	for _, name := range missing {
		if _, ok := out.Entities[name]; !ok && !slices.Contains(wanted, name) {
			wanted = append(wanted, name)
		}
	}
	if len(wanted) == 0 || e == nil || e.client == nil {
		return out, nil
	}

	response, err := e.client.Complete(ctx, enhanceSystemPrompt, enhancePrompt(text, match.Intent, wanted))
	if err != nil {
		return out, fmt.Errorf("LLM call failed: %w", err)
	}
	values, err := parseEntityResponse(response)
	if err != nil {
		return out, err
	}

	if out.Entities == nil {
		out.Entities = make(map[string]Entity, len(wanted))
	}
	for _, name := range wanted {
		v, ok := values[name]
		if !ok {
			continue
		}
		if ent, ok := entityLike(match.Intent.Entities[name], name, v); ok {
			out.Entities[name] = ent
		}
	}
	return out, nil
}

func enhancePrompt(text string, in Intent, names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intent: %s\n", in.Name)
	b.WriteString("Parameters:\n")
	for _, name := range names {
		if def, ok := in.Entities[name]; ok {
			fmt.Fprintf(&b, "- %s (%s, default %q)\n", name, def.Kind(), def.Value())
		} else {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	fmt.Fprintf(&b, "\nRequest:\n%s", text)
	return b.String()
}

// parseEntityResponse decodes the JSON object in response into strings.
// Numbers are formatted; null and empty values are dropped.
func parseEntityResponse(response string) (map[string]string, error) {
	jsonStr, ok := extractJSON(response)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in response: %q", response)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	out := make(map[string]string, len(raw))
	for k, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = strings.TrimSpace(v)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		}
		if s != "" {
			out[k] = s
		}
	}
	return out, nil
}

// extractJSON returns the text from the first '{' to the last '}', which
// tolerates prose and markdown fences around the object.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// entityLike wraps v in the same variant as the declared default. Names
// without a default become Custom entities of that name.
func entityLike(def Entity, name, v string) (Entity, bool) {
	switch d := def.(type) {
	case PathEntity:
		return PathEntity(v), true
	case FileTypeEntity:
		if ft, ok := ExtractFileType(v); ok {
			return FileTypeEntity(ft), true
		}
		return FileTypeEntity(strings.TrimPrefix(strings.ToLower(v), ".")), true
	case OperationEntity:
		return OperationEntity(v), true
	case NumberEntity:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		return NumberEntity(n), true
	case DateEntity:
		return DateEntity(v), true
	case CustomEntity:
		return CustomEntity{Name: d.Name, Val: v}, true
	default:
		return CustomEntity{Name: name, Val: v}, true
	}
}
