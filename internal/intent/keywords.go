// ABOUTME: Ordered bilingual keyword tables mapping phrases to canonical values
// ABOUTME: ASCII phrases need word boundaries; CJK phrases match as substrings

package intent

import (
	"strings"
	"unicode/utf8"
)

// keywordEntry maps a phrase to its canonical value.
type keywordEntry struct {
	word  string
	canon string
}

// keywordTable resolves the phrase that occurs earliest in the text;
// equal positions resolve in table order.
type keywordTable []keywordEntry

func (t keywordTable) first(text string) (string, bool) {
	lower := strings.ToLower(text)
	best, bestPos := "", -1
	for _, e := range t {
		pos := indexPhrase(lower, e.word)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos {
			best, bestPos = e.canon, pos
		}
	}
	return best, bestPos >= 0
}

// indexPhrase returns the first position of phrase in s. Phrases made of
// ASCII letters must not be glued to other ASCII letters or digits, so
// "ls" does not match inside "files".
func indexPhrase(s, phrase string) int {
	if !isASCIIWord(phrase) {
		return strings.Index(s, phrase)
	}
	offset := 0
	for {
		i := strings.Index(s[offset:], phrase)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(phrase)
		if !isASCIIAlnumBefore(s, start) && !isASCIIAlnumAt(s, end) {
			return start
		}
		offset = start + 1
	}
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func isASCIIAlnumBefore(s string, i int) bool {
	return i > 0 && isASCIIAlnum(s[i-1])
}

func isASCIIAlnumAt(s string, i int) bool {
	return i < len(s) && isASCIIAlnum(s[i])
}

func isASCIIAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
