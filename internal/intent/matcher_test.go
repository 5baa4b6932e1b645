// ABOUTME: Tests for intent scoring, threshold filtering, caching, and fuzzy matching
// ABOUTME: Covers cache transparency and invalidation, diagnostics for bad patterns, and pruning equivalence

package intent

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"
)

func fileIntents() []Intent {
	return []Intent{
		{
			Name:      "find_files_by_size",
			Domain:    "file",
			Keywords:  []string{"查找", "大文件"},
			Threshold: 0.5,
			Entities: map[string]Entity{
				"path":       PathEntity("."),
				"sort_order": CustomEntity{Name: SortKind, Val: SortDescending},
			},
		},
		{
			Name:      "count_files",
			Domain:    "file",
			Keywords:  []string{"count", "统计", "files", "文件"},
			Patterns:  []string{`(?i)count\s+\w+\s+files`},
			Threshold: 0.5,
			Entities:  map[string]Entity{"path": PathEntity("."), "ext": FileTypeEntity("txt")},
		},
		{
			Name:      "disk_usage",
			Domain:    "system",
			Keywords:  []string{"disk", "磁盘", "usage"},
			Threshold: 0.5,
			Entities:  map[string]Entity{"path": PathEntity(".")},
		},
		{
			Name:      "list_processes",
			Domain:    "system",
			Keywords:  []string{"process", "进程"},
			Threshold: 0.2,
		},
	}
}

func newFileMatcher(t *testing.T) *Matcher {
	t.Helper()
	m := NewMatcher(MatcherConfig{})
	for _, in := range fileIntents() {
		if diags := m.Register(in); len(diags) != 0 {
			t.Fatalf("Register(%s) diagnostics: %v", in.Name, diags)
		}
	}
	return m
}

func TestMatch_TwoKeywordHits(t *testing.T) {
	t.Parallel()

	m := NewMatcher(MatcherConfig{})
	m.Register(Intent{
		Name:      "find_files_by_size",
		Keywords:  []string{"查找", "大文件"},
		Threshold: 0.5,
	})

	best, ok := m.BestMatch("查找大文件")
	if !ok {
		t.Fatal("expected a match")
	}
	if best.Intent.Name != "find_files_by_size" {
		t.Errorf("Intent.Name = %q; want find_files_by_size", best.Intent.Name)
	}
	if best.Confidence < 0.6-1e-9 {
		t.Errorf("Confidence = %.3f; want >= 0.6", best.Confidence)
	}
	if !reflect.DeepEqual(best.MatchedKeywords, []string{"查找", "大文件"}) {
		t.Errorf("MatchedKeywords = %v", best.MatchedKeywords)
	}
}

func TestMatch_RandomSentenceIsEmpty(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	got := m.Match("这是一个随机的句子")
	if len(got) != 0 {
		t.Errorf("Match() = %v; want empty", got)
	}
	if _, ok := m.BestMatch("这是一个随机的句子"); ok {
		t.Error("BestMatch() ok = true; want false")
	}
}

func TestMatch_ConfidenceBounds(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	m.Register(Intent{
		Name:      "overloaded",
		Keywords:  []string{"a", "b", "c", "d"},
		Patterns:  []string{"a", "b"},
		Threshold: 0.1,
	})

	inputs := []string{"a b c d", "查找大文件", "count python files", "disk usage 磁盘", "process", "", "随机"}
	for _, in := range inputs {
		for _, match := range m.Match(in) {
			if match.Confidence > 1.0 {
				t.Errorf("%q: %s confidence %.3f > 1", in, match.Intent.Name, match.Confidence)
			}
			if match.Confidence < match.Intent.Threshold {
				t.Errorf("%q: %s confidence %.3f below threshold %.2f", in, match.Intent.Name, match.Confidence, match.Intent.Threshold)
			}
		}
	}

	best, _ := m.BestMatch("a b c d")
	if best.Confidence != 1.0 {
		t.Errorf("clipped confidence = %v; want 1.0", best.Confidence)
	}
}

func TestMatch_PatternAndKeywords(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	best, ok := m.BestMatch("count python files")
	if !ok {
		t.Fatal("expected a match")
	}
	if best.Intent.Name != "count_files" {
		t.Fatalf("Intent.Name = %q; want count_files", best.Intent.Name)
	}
	// count + files keywords (0.6) + pattern (0.7), clipped.
	if best.Confidence != 1.0 {
		t.Errorf("Confidence = %v; want 1.0", best.Confidence)
	}
	if got := best.Entities["ext"]; got != FileTypeEntity("py") {
		t.Errorf("Entities[ext] = %v; want py", got)
	}
	if _, ok := best.Entities["path"]; ok {
		t.Error("defaults must not be merged into extracted entities")
	}
}

func TestMatch_KeywordsAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	best, ok := m.BestMatch("Show DISK Usage")
	if !ok || best.Intent.Name != "disk_usage" {
		t.Fatalf("BestMatch() = %v, %v; want disk_usage", best.Intent.Name, ok)
	}
}

func TestMatch_SortedWithStableTies(t *testing.T) {
	t.Parallel()

	m := NewMatcher(MatcherConfig{})
	for _, name := range []string{"first", "second", "third"} {
		m.Register(Intent{Name: name, Keywords: []string{"shared"}, Threshold: 0.1})
	}
	m.Register(Intent{Name: "stronger", Keywords: []string{"shared", "extra"}, Threshold: 0.1})

	got := m.Match("shared extra")
	var names []string
	for _, match := range got {
		names = append(names, match.Intent.Name)
	}
	want := []string{"stronger", "first", "second", "third"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("order = %v; want %v", names, want)
	}
}

func TestRegister_InvalidPatternIsSoft(t *testing.T) {
	t.Parallel()

	m := NewMatcher(MatcherConfig{})
	diags := m.Register(Intent{
		Name:      "broken",
		Keywords:  []string{"broken"},
		Patterns:  []string{"([unclosed", `(?i)broken\s+thing`},
		Threshold: 0.3,
	})
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v; want 1", diags)
	}
	var perr *PatternError
	if !errors.As(diags[0], &perr) || perr.Pattern != "([unclosed" {
		t.Errorf("diagnostic = %v; want PatternError for ([unclosed", diags[0])
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d; want 1", m.Len())
	}

	best, ok := m.BestMatch("broken")
	if !ok || best.Confidence < 0.3-1e-9 {
		t.Errorf("keyword match failed: %v, %v", best.Confidence, ok)
	}
	best, _ = m.BestMatch("broken thing")
	if best.Confidence < 1.0-1e-9 {
		t.Errorf("valid pattern should still score: %v", best.Confidence)
	}
}

func TestRegister_ReplacesSameName(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	m.Register(Intent{Name: "disk_usage", Keywords: []string{"df"}, Threshold: 0.3})

	if m.Len() != len(fileIntents()) {
		t.Errorf("Len() = %d; want %d", m.Len(), len(fileIntents()))
	}
	if _, ok := m.BestMatch("df"); !ok {
		t.Error("replacement intent did not match")
	}
	if got := m.Intents()[2].Name; got != "disk_usage" {
		t.Errorf("replacement moved in registry order: index 2 = %q", got)
	}
}

func TestCache_Transparent(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	first := m.Match("count python files")
	second := m.Match("count python files")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs:\n%v\n%v", first, second)
	}
	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats() = %+v; want 1 hit, 1 miss", stats)
	}
	if stats.Size != 1 || stats.Capacity != DefaultCacheCapacity {
		t.Errorf("Stats() = %+v; want size 1, capacity %d", stats, DefaultCacheCapacity)
	}
	if stats.HitRate() != 0.5 {
		t.Errorf("HitRate() = %v; want 0.5", stats.HitRate())
	}
}

func TestCache_KeyIsCaseSensitive(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	m.Match("disk usage")
	m.Match("DISK usage")
	if stats := m.Stats(); stats.Misses != 2 {
		t.Errorf("Misses = %d; want 2", stats.Misses)
	}
}

func TestCache_ResultsAreCopies(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	got := m.Match("count python files")
	got[0].Entities["ext"] = FileTypeEntity("rs")
	got[0].Intent.Keywords[0] = "mutated"

	again := m.Match("count python files")
	if again[0].Entities["ext"] != FileTypeEntity("py") {
		t.Error("caller mutation leaked into cached entities")
	}
	if again[0].Intent.Keywords[0] != "count" {
		t.Error("caller mutation leaked into cached intent")
	}
}

func TestCache_InvalidatedByRegisterAndFuzzy(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	steps := []struct {
		name   string
		mutate func()
	}{
		{"register", func() { m.Register(Intent{Name: "extra", Keywords: []string{"x"}, Threshold: 0.3}) }},
		{"enable fuzzy", m.EnableFuzzy},
		{"disable fuzzy", m.DisableFuzzy},
		{"set fuzzy config", func() { m.SetFuzzyConfig(FuzzyConfig{Enabled: true, SimilarityThreshold: 0.7}) }},
	}

	for _, step := range steps {
		m.Match("disk usage")
		if m.Stats().Size == 0 {
			t.Fatalf("%s: expected a cached entry before mutation", step.name)
		}
		before := m.Stats().Misses
		step.mutate()
		if size := m.Stats().Size; size != 0 {
			t.Errorf("%s: cache size = %d after invalidation; want 0", step.name, size)
		}
		m.Match("disk usage")
		if m.Stats().Misses != before+1 {
			t.Errorf("%s: next query was not a fresh computation", step.name)
		}
	}
}

func TestClearCache_ResetsCounters(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	m.Match("disk usage")
	m.Match("disk usage")
	m.ClearCache()

	if stats := m.Stats(); stats != (CacheStats{Capacity: DefaultCacheCapacity}) {
		t.Errorf("Stats() after ClearCache = %+v", stats)
	}
}

func TestCache_LRUEviction(t *testing.T) {
	t.Parallel()

	c := newResultCache(2)
	c.put("a", nil)
	c.put("b", nil)
	if _, ok := c.get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.put("c", nil) // evicts b, the least recently used

	if _, ok := c.get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.get(k); !ok {
			t.Errorf("%s should be cached", k)
		}
	}
	if c.len() != 2 {
		t.Errorf("len() = %d; want 2", c.len())
	}
}

func TestMatcher_CacheCapacityConfig(t *testing.T) {
	t.Parallel()

	m := NewMatcher(MatcherConfig{CacheCapacity: 2})
	m.Register(Intent{Name: "any", Keywords: []string{"x"}, Threshold: 0.1})
	for i := range 5 {
		m.Match(fmt.Sprintf("x %d", i))
	}
	if stats := m.Stats(); stats.Size != 2 || stats.Capacity != 2 {
		t.Errorf("Stats() = %+v; want size 2, capacity 2", stats)
	}
}

func TestFuzzy_OffByDefault(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	if m.FuzzyConfig().Enabled {
		t.Error("fuzzy matching must be disabled by default")
	}
	if _, ok := m.BestMatch("proces"); ok {
		t.Error("typo matched without fuzzy matching")
	}
}

func TestFuzzy_MatchesTypos(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	m.EnableFuzzy()

	best, ok := m.BestMatch("proces")
	if !ok {
		t.Fatal("expected fuzzy match")
	}
	if best.Intent.Name != "list_processes" {
		t.Errorf("Intent.Name = %q; want list_processes", best.Intent.Name)
	}
	sim := StringSimilarity("process", "proces")
	want := KeywordWeight * 0.8 * sim
	if math.Abs(best.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v; want %v", best.Confidence, want)
	}
	if !reflect.DeepEqual(best.MatchedKeywords, []string{"process" + FuzzyMarker}) {
		t.Errorf("MatchedKeywords = %v; want fuzzy marker", best.MatchedKeywords)
	}
}

func TestFuzzy_BelowThresholdIgnored(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	m.EnableFuzzy()
	if _, ok := m.BestMatch("prxcxss"); ok {
		t.Error("dissimilar token should not fuzzy-match")
	}
}

func TestFuzzy_PruningNeverChangesOutcome(t *testing.T) {
	t.Parallel()

	keywords := []string{"process", "disk", "usage", "查找", "大文件", "memory", "a", "network"}
	tokens := []string{"proces", "dsk", "usages", "查我", "大文档", "mem", "memroy", "b", "netwrk", "x", "internetwork", ""}
	for _, threshold := range []float64{0.5, 0.6, 0.7, 0.8, 0.9, 1.0} {
		for _, kw := range keywords {
			pruned := bestSimilarity(kw, tokens, threshold, true)
			full := bestSimilarity(kw, tokens, threshold, false)
			if (pruned >= threshold) != (full >= threshold) {
				t.Errorf("kw=%q threshold=%.1f: pruned=%v full=%v disagree on match", kw, threshold, pruned, full)
			}
			if full >= threshold && pruned != full {
				t.Errorf("kw=%q threshold=%.1f: pruned=%v full=%v disagree on similarity", kw, threshold, pruned, full)
			}
		}
	}
}

func TestMatch_ConcurrentCallers(t *testing.T) {
	t.Parallel()

	m := newFileMatcher(t)
	want := m.Match("count python files")

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%8 == 0 {
				m.Match(fmt.Sprintf("disk usage %d", i))
			}
			got := m.Match("count python files")
			if !reflect.DeepEqual(got, want) {
				t.Errorf("concurrent result differs")
			}
		}()
	}
	wg.Wait()
}
