// ABOUTME: Intent registry and scorer: keyword, fuzzy keyword, and regex signals
// ABOUTME: Results are cached per input in an LRU invalidated on any registry or fuzzy change

package intent

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	nlog "github.com/mauromedda/nlsh/internal/log"
)

// Signal weights.
const (
	KeywordWeight = 0.3
	PatternWeight = 0.7
)

// FuzzyConfig controls approximate keyword matching.
type FuzzyConfig struct {
	Enabled             bool
	SimilarityThreshold float64 // Min similarity to count a fuzzy hit (default 0.8).
	Weight              float64 // Scales the keyword weight for fuzzy hits (default 0.8).
}

// DefaultFuzzyConfig returns the fuzzy settings used when none are given.
// Fuzzy matching is off by default.
func DefaultFuzzyConfig() FuzzyConfig {
	return FuzzyConfig{SimilarityThreshold: 0.8, Weight: 0.8}
}

func (f FuzzyConfig) withDefaults() FuzzyConfig {
	d := DefaultFuzzyConfig()
	if f.SimilarityThreshold <= 0 {
		f.SimilarityThreshold = d.SimilarityThreshold
	}
	if f.Weight <= 0 {
		f.Weight = d.Weight
	}
	return f
}

// MatcherConfig holds configuration for the intent matcher.
type MatcherConfig struct {
	CacheCapacity int // LRU capacity (default 100).
	Fuzzy         FuzzyConfig
}

// CacheStats reports result-cache counters.
type CacheStats struct {
	Hits     uint64
	Misses   uint64
	Size     int
	Capacity int
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// PatternError reports a regex pattern that failed to compile at registration.
type PatternError struct {
	Intent  string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("intent %q: invalid pattern %q: %v", e.Intent, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// compiledIntent is an immutable registry entry.
type compiledIntent struct {
	intent   Intent
	keywords []string // lowercased, empty keywords dropped
	patterns []*regexp.Regexp
}

// Matcher scores input text against registered intents.
// It is safe for concurrent use.
type Matcher struct {
	extractor *Extractor
	flight    singleflight.Group

	mu         sync.Mutex
	intents    []*compiledIntent
	fuzzy      FuzzyConfig
	cache      *resultCache
	hits       uint64
	misses     uint64
	generation uint64 // bumped on every invalidation
}

// NewMatcher creates an empty matcher with the given config, applying defaults.
func NewMatcher(cfg MatcherConfig) *Matcher {
	return &Matcher{
		extractor: NewExtractor(),
		fuzzy:     cfg.Fuzzy.withDefaults(),
		cache:     newResultCache(cfg.CacheCapacity),
	}
}

// Register compiles the intent's patterns and adds it to the registry.
// Patterns that fail to compile are logged, skipped, and returned; the
// intent is still registered and remains keyword-matchable. Registering a
// name that already exists replaces that entry in place.
func (m *Matcher) Register(in Intent) []error {
	ci := &compiledIntent{intent: in.Clone()}
	for _, kw := range in.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			ci.keywords = append(ci.keywords, kw)
		}
	}

	var diags []error
	for _, p := range in.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			perr := &PatternError{Intent: in.Name, Pattern: p, Err: err}
			nlog.Warn("%v (pattern skipped)", perr)
			diags = append(diags, perr)
			continue
		}
		ci.patterns = append(ci.patterns, re)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	replaced := false
	for i, existing := range m.intents {
		if existing.intent.Name == in.Name {
			// Copy-on-write so in-flight scorers keep their snapshot.
			next := make([]*compiledIntent, len(m.intents))
			copy(next, m.intents)
			next[i] = ci
			m.intents = next
			replaced = true
			break
		}
	}
	if !replaced {
		m.intents = append(m.intents, ci)
	}
	m.invalidateLocked("register " + in.Name)
	return diags
}

// Intents returns copies of the registered intents in registry order.
func (m *Matcher) Intents() []Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Intent, len(m.intents))
	for i, ci := range m.intents {
		out[i] = ci.intent.Clone()
	}
	return out
}

// Len returns the number of registered intents.
func (m *Matcher) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.intents)
}

// EnableFuzzy turns approximate keyword matching on and clears the cache.
func (m *Matcher) EnableFuzzy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fuzzy.Enabled = true
	m.invalidateLocked("fuzzy enabled")
}

// DisableFuzzy turns approximate keyword matching off and clears the cache.
func (m *Matcher) DisableFuzzy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fuzzy.Enabled = false
	m.invalidateLocked("fuzzy disabled")
}

// SetFuzzyConfig replaces the fuzzy settings and clears the cache.
func (m *Matcher) SetFuzzyConfig(cfg FuzzyConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fuzzy = cfg.withDefaults()
	m.invalidateLocked("fuzzy config changed")
}

// FuzzyConfig returns the current fuzzy settings.
func (m *Matcher) FuzzyConfig() FuzzyConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fuzzy
}

// ClearCache drops every cached result and resets the hit/miss counters.
func (m *Matcher) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateLocked("clear")
	m.hits, m.misses = 0, 0
}

// Stats returns a snapshot of the cache counters.
func (m *Matcher) Stats() CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CacheStats{
		Hits:     m.hits,
		Misses:   m.misses,
		Size:     m.cache.len(),
		Capacity: m.cache.capacity,
	}
}

func (m *Matcher) invalidateLocked(reason string) {
	m.cache.clear()
	m.generation++
	nlog.Debug("intent cache invalidated: %s", reason)
}

// Match returns every intent whose confidence meets its own threshold,
// sorted by confidence descending; ties keep registry order. No match is
// an empty slice, not an error.
func (m *Matcher) Match(text string) []IntentMatch {
	m.mu.Lock()
	if cached, ok := m.cache.get(text); ok {
		m.hits++
		m.mu.Unlock()
		return cloneMatches(cached)
	}
	m.misses++
	intents, fuzzy, gen := m.intents, m.fuzzy, m.generation
	m.mu.Unlock()

	// The generation is part of the key so a computation started before an
	// invalidation is never shared with callers that arrive after it.
	key := strconv.FormatUint(gen, 10) + "\x00" + text
	v, _, _ := m.flight.Do(key, func() (any, error) {
		matches := m.compute(text, intents, fuzzy)
		m.mu.Lock()
		if m.generation == gen {
			m.cache.put(text, matches)
		}
		m.mu.Unlock()
		return matches, nil
	})
	return cloneMatches(v.([]IntentMatch))
}

// BestMatch returns the highest-confidence match, if any.
func (m *Matcher) BestMatch(text string) (IntentMatch, bool) {
	matches := m.Match(text)
	if len(matches) == 0 {
		return IntentMatch{}, false
	}
	return matches[0], true
}

// compute scores a registry snapshot without touching shared state.
func (m *Matcher) compute(text string, intents []*compiledIntent, fuzzy FuzzyConfig) []IntentMatch {
	tokens := strings.Fields(strings.ToLower(text))
	matches := make([]IntentMatch, 0)

	for _, ci := range intents {
		confidence, keywords := scoreIntent(ci, text, tokens, fuzzy)
		if confidence <= 0 || confidence < ci.intent.Threshold {
			continue
		}
		matches = append(matches, IntentMatch{
			Intent:          ci.intent.Clone(),
			Confidence:      confidence,
			MatchedKeywords: keywords,
			Entities:        m.extractor.Extract(text, ci.intent.Entities),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// scoreIntent sums keyword, fuzzy keyword, and pattern signals, clipped to [0, 1].
func scoreIntent(ci *compiledIntent, text string, tokens []string, fuzzy FuzzyConfig) (float64, []string) {
	var score float64
	var matched []string

	for _, kw := range ci.keywords {
		if containsKeyword(tokens, kw) {
			score += KeywordWeight
			matched = append(matched, kw)
			continue
		}
		if !fuzzy.Enabled {
			continue
		}
		sim := bestSimilarity(kw, tokens, fuzzy.SimilarityThreshold, true)
		if sim >= fuzzy.SimilarityThreshold {
			score += KeywordWeight * fuzzy.Weight * sim
			matched = append(matched, kw+FuzzyMarker)
		}
	}

	for _, re := range ci.patterns {
		if re.MatchString(text) {
			score += PatternWeight
		}
	}

	return min(max(score, 0), 1), matched
}

func containsKeyword(tokens []string, kw string) bool {
	for _, tok := range tokens {
		if strings.Contains(tok, kw) {
			return true
		}
	}
	return false
}

// bestSimilarity returns the highest similarity between kw and any token.
// With prune set, tokens whose length ratio to kw is below threshold are
// skipped; their similarity cannot reach threshold, so the result only
// differs from the unpruned one when both are below threshold.
func bestSimilarity(kw string, tokens []string, threshold float64, prune bool) float64 {
	var best float64
	for _, tok := range tokens {
		if prune && lengthRatio(kw, tok) < threshold {
			continue
		}
		if s := StringSimilarity(kw, tok); s > best {
			best = s
		}
	}
	return best
}

func cloneMatches(in []IntentMatch) []IntentMatch {
	out := make([]IntentMatch, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
