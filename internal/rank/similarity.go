package rank

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Score returns a 0..100 similarity between the search keyword and a
// candidate text. Deterministic, case-insensitive, whitespace-normalized.
// Identical strings score 100; a keyword contained verbatim in the text
// also scores 100; otherwise the best edit-distance ratio of the keyword
// against a sliding window of the text (fuzzy partial ratio).
func Score(keyword, text string) int {
	k := normalize(keyword)
	t := normalize(text)
	if k == "" || t == "" {
		return 0
	}
	if k == t {
		return 100
	}
	if strings.Contains(t, k) {
		return 100
	}
	return partialRatio(k, t)
}

// partialRatio slides the shorter string across the longer one, one rune at
// a time, and keeps the best per-window similarity.
func partialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		window := string(long[i : i+len(short)])
		d := levenshtein.ComputeDistance(string(short), window)
		if r := 100 * (len(short) - d) / len(short); r > best {
			best = r
		}
	}
	return clamp(best)
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
