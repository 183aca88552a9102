package dedup

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const DefaultShingleSize = 3

var (
	htmlTagPattern  = regexp.MustCompile(`<[^>]*>`)
	digitRunPattern = regexp.MustCompile(`[0-9]+`)
)

// foldTransformer strips combining marks so accented variants of the same
// word produce identical shingles.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CleanText prepares raw text for shingling: lowercase, HTML removed,
// digit runs collapsed to a placeholder token (scores and timestamps are
// noise for similarity purposes), punctuation stripped, whitespace collapsed.
func CleanText(text string) string {
	s := strings.ToLower(text)
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = digitRunPattern.ReplaceAllString(s, " num ")

	if folded, _, err := transform.String(foldTransformer, s); err == nil {
		s = folded
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		default:
			sb.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

// Shingles splits cleaned text into whitespace-delimited tokens and returns
// the set of every contiguous k-token window joined by a single space.
// Texts shorter than k tokens yield a single shingle of the whole sequence,
// so non-empty input never produces an empty set.
func Shingles(text string, k int) map[string]struct{} {
	if k < 1 {
		k = DefaultShingleSize
	}

	tokens := strings.Fields(text)
	shingles := make(map[string]struct{})

	if len(tokens) == 0 {
		return shingles
	}

	if len(tokens) < k {
		shingles[strings.Join(tokens, " ")] = struct{}{}
		return shingles
	}

	for i := 0; i+k <= len(tokens); i++ {
		shingles[strings.Join(tokens[i:i+k], " ")] = struct{}{}
	}

	return shingles
}
