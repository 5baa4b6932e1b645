// ABOUTME: Display width for mixed CJK/Latin text: grapheme-aware, ANSI-transparent
// ABOUTME: Padding, truncation, and column alignment for terminal tables

package display

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// ansiPattern covers CSI sequences (colors, cursor) and OSC sequences
// terminated by BEL or ST.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)

// StripANSI removes escape sequences from s.
func StripANSI(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	return ansiPattern.ReplaceAllString(s, "")
}

// Width returns the number of terminal cells s occupies. CJK ideographs and
// most emoji take two cells; escape sequences take none.
func Width(s string) int {
	if isPlainASCII(s) {
		return len(s)
	}
	s = StripANSI(s)
	w := 0
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		w += clusterWidth(cluster)
	}
	return w
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}

// clusterWidth measures a grapheme by its base rune, so combining marks and
// variation selectors add nothing.
func clusterWidth(cluster string) int {
	if cluster == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(cluster)
	return runewidth.RuneWidth(r)
}

// PadRight appends spaces until s fills width cells. Longer strings are
// returned unchanged.
func PadRight(s string, width int) string {
	if gap := width - Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// Truncate shortens plain text to at most width cells, ending with "…"
// when anything was cut. A wide rune never straddles the limit.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = StripANSI(s)
	if Width(s) <= width {
		return s
	}
	const tail = "…"
	limit := width - runewidth.StringWidth(tail)
	var b strings.Builder
	w := 0
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		cw := clusterWidth(cluster)
		if w+cw > limit {
			break
		}
		b.WriteString(cluster)
		w += cw
	}
	return b.String() + tail
}

// Columns aligns rows into space-separated columns sized by display width.
// Each cell is truncated to maxCell cells when maxCell > 0. Trailing
// padding is trimmed from every line.
func Columns(rows [][]string, maxCell int) []string {
	var widths []int
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(row))
		for j, c := range row {
			if maxCell > 0 {
				c = Truncate(c, maxCell)
			}
			cells[i][j] = c
			if j >= len(widths) {
				widths = append(widths, 0)
			}
			widths[j] = max(widths[j], Width(c))
		}
	}

	lines := make([]string, len(cells))
	for i, row := range cells {
		var b strings.Builder
		for j, c := range row {
			if j > 0 {
				b.WriteString("  ")
			}
			b.WriteString(PadRight(c, widths[j]))
		}
		lines[i] = strings.TrimRight(b.String(), " ")
	}
	return lines
}
