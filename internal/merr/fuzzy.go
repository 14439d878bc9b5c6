package merr

import "fmt"

// suggestionCutoff is the largest edit distance still offered as a suggestion.
// Short names get a tighter bound: three edits rewrite most of a four-letter
// identifier, so anything that far away is noise rather than a typo.
func suggestionCutoff(input string) int {
	if len(input) < 5 {
		return 2
	}
	return 3
}

// editDistance computes the Levenshtein distance between a and b using a
// single reusable row.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	// Keep the shorter string as the row to bound the allocation.
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			sub := diag
			if a[i-1] != b[j-1] {
				sub++
			}
			diag = row[j]
			best := sub
			if d := row[j] + 1; d < best {
				best = d
			}
			if d := row[j-1] + 1; d < best {
				best = d
			}
			row[j] = best
		}
	}

	return row[len(b)]
}

// FindClosestMatch returns the candidate nearest to input by edit distance,
// provided it falls within the suggestion cutoff. The second return reports
// whether any candidate qualified.
func FindClosestMatch(input string, candidates []string) (string, bool) {
	cutoff := suggestionCutoff(input)

	best := ""
	bestDist := cutoff + 1
	for _, c := range candidates {
		// The distance is at least the length difference.
		diff := len(c) - len(input)
		if diff < 0 {
			diff = -diff
		}
		if diff >= bestDist {
			continue
		}
		if d := editDistance(input, c); d < bestDist {
			bestDist = d
			best = c
		}
	}

	if bestDist > cutoff {
		return "", false
	}
	return best, true
}

// SuggestSimilar formats a "did you mean" hint for the nearest candidate,
// or returns the empty string when nothing is close enough.
func SuggestSimilar(input string, candidates []string) string {
	match, ok := FindClosestMatch(input, candidates)
	if !ok {
		return ""
	}
	return fmt.Sprintf("did you mean '%s'?", match)
}
