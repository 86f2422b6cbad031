// Package suggest picks "did you mean" candidates for misspelled names.
package suggest

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Closest returns the candidate nearest to target, or "" when nothing is
// close enough to be a plausible typo.
func Closest(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best, bestDist := "", len(target)/3+2
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Hint formats Closest as a note, "" when there is no candidate.
func Hint(target string, candidates []string) string {
	if c := Closest(target, candidates); c != "" {
		return "did you mean \"" + c + "\"?"
	}
	return ""
}
