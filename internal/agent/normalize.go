// ABOUTME: Input normalization before intent matching
// ABOUTME: Folds full-width forms to ASCII, applies NFKC, collapses whitespace

package agent

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalize maps full-width Latin letters, digits and punctuation typed on
// CJK keyboards to their ASCII forms, applies NFKC, and collapses runs of
// whitespace (including the ideographic space) to single spaces.
func Normalize(input string) string {
	s := width.Fold.String(input)
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
