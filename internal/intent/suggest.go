// ABOUTME: Fuzzy intent-name suggestions over names, domains and keywords via sahilm/fuzzy
// ABOUTME: Backs "did you mean" hints on unmatched input and the intents listing filter

package intent

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Suggestion is one ranked intent candidate.
type Suggestion struct {
	Name  string
	Score int
}

// intentSource exposes each intent as "name domain keyword..." to the
// subsequence matcher.
type intentSource []Intent

func (s intentSource) String(i int) string {
	in := s[i]
	return in.Name + " " + in.Domain + " " + strings.Join(in.Keywords, " ")
}

func (s intentSource) Len() int { return len(s) }

// Suggest ranks intents by fuzzy similarity to query, best first, returning
// at most limit names (all when limit <= 0). When the whole query matches
// nothing, each whitespace-separated word is tried on its own.
func Suggest(query string, intents []Intent, limit int) []Suggestion {
	query = strings.TrimSpace(query)
	if query == "" || len(intents) == 0 {
		return nil
	}

	src := intentSource(intents)
	results := fuzzy.FindFrom(query, src)
	if len(results) == 0 {
		best := make(map[int]int)
		var order []int
		for _, word := range strings.Fields(query) {
			for _, r := range fuzzy.FindFrom(word, src) {
				prev, seen := best[r.Index]
				if !seen {
					order = append(order, r.Index)
				}
				if !seen || r.Score > prev {
					best[r.Index] = r.Score
				}
			}
		}
		for _, idx := range order {
			results = append(results, fuzzy.Match{Index: idx, Score: best[idx]})
		}
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}

	out := make([]Suggestion, 0, len(results))
	for _, r := range results {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, Suggestion{Name: intents[r.Index].Name, Score: r.Score})
	}
	return out
}
