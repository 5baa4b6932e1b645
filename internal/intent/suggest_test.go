// ABOUTME: Tests for fuzzy intent suggestions
// ABOUTME: Verifies ranking, per-word fallback, keyword matching, and limits

package intent

import "testing"

func TestSuggest(t *testing.T) {
	t.Parallel()

	intents := fileIntents()
	tests := []struct {
		query string
		want  string
	}{
		{"disk", "disk_usage"},
		{"proc", "list_processes"},
		{"磁盘", "disk_usage"},
		{"qqq disk", "disk_usage"},
		{"count_files", "count_files"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			got := Suggest(tt.query, intents, 3)
			if len(got) == 0 {
				t.Fatalf("Suggest(%q) = empty; want %s first", tt.query, tt.want)
			}
			if got[0].Name != tt.want {
				t.Errorf("Suggest(%q)[0] = %q; want %q", tt.query, got[0].Name, tt.want)
			}
		})
	}
}

func TestSuggest_NoMatch(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"", "   ", "zzz", "qqq xxx"} {
		if got := Suggest(q, fileIntents(), 0); len(got) != 0 {
			t.Errorf("Suggest(%q) = %v; want empty", q, got)
		}
	}
	if got := Suggest("disk", nil, 0); got != nil {
		t.Errorf("Suggest over no intents = %v; want nil", got)
	}
}

func TestSuggest_Limit(t *testing.T) {
	t.Parallel()

	// "s" is a subsequence of every intent.
	if got := Suggest("s", fileIntents(), 2); len(got) != 2 {
		t.Errorf("len = %d; want 2", len(got))
	}
	if got := Suggest("s", fileIntents(), 0); len(got) != len(fileIntents()) {
		t.Errorf("len = %d; want %d", len(got), len(fileIntents()))
	}
}
