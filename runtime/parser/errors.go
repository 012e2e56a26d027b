package parser

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxEditDistance bounds how far a typo may be from a suggested name.
const maxEditDistance = 2

// closestMatch finds the candidate a mistyped name most likely meant, or ""
// when nothing is close. Candidates that contain the target's letters in
// order win first; otherwise the smallest edit distance within
// maxEditDistance is used.
func closestMatch(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", maxEditDistance+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// didYouMean formats a suggestion line, or returns "" for no match.
func didYouMean(prefix, target string, candidates []string) string {
	if m := closestMatch(target, candidates); m != "" {
		return "did you mean " + prefix + m + "?"
	}
	return ""
}
