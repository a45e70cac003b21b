package impersonation

import (
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/guardian/api/schemas"
)

const (
	suspiciousSimilarityFloor = 0.7
	exactMatch                = 1.0
)

// CheckUsernameSimilarity compares candidate against every known handle and
// keeps the closest one. Exact matches are the real account and are never
// flagged; near matches at or above 0.7 are.
func CheckUsernameSimilarity(candidate string, knownHandles []string) schemas.SimilarityCheck {
	check := schemas.SimilarityCheck{AllSimilarities: make(map[string]float64, len(knownHandles))}

	for _, handle := range knownHandles {
		sim := Similarity(candidate, handle)
		check.AllSimilarities[handle] = sim
		if sim > check.MaxSimilarity {
			check.MaxSimilarity = sim
			check.ClosestMatch = handle
		}
	}

	check.IsSuspiciousSimilarity = check.MaxSimilarity >= suspiciousSimilarityFloor &&
		check.MaxSimilarity < exactMatch
	return check
}

// Similarity is a case-insensitive, symmetric edit-distance ratio in [0, 1]:
// 1 - levenshtein(a, b) / max(len(a), len(b)), counted in runes.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return exactMatch
	}
	return 1 - float64(levenshtein([]rune(a), []rune(b)))/float64(longest)
}

// levenshtein uses two rolling rows of the classic dynamic-programming table.
func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
