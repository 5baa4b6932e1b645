// ABOUTME: Levenshtein edit distance and normalized similarity over runes
// ABOUTME: Used by the matcher's optional fuzzy keyword matching

package intent

import "unicode/utf8"

// LevenshteinDistance returns the minimum number of single-rune insertions,
// deletions and substitutions that turn a into b.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two rolling rows; rb is the shorter side to keep them small.
	if len(rb) > len(ra) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// StringSimilarity maps edit distance to [0, 1]: 1 - distance/maxLen.
// Two identical strings (including two empty strings) have similarity 1.
func StringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(LevenshteinDistance(a, b))/float64(maxLen)
}

// lengthRatio is an upper bound on StringSimilarity: the distance is at
// least the rune-length difference, so similarity <= shorter/longer.
func lengthRatio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == lb {
		return 1.0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}
