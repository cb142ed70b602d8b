// Package editdist implements bounded Levenshtein distance over runes.
package editdist

// Distance returns the Levenshtein distance between a and b, counting rune
// insertions, deletions and substitutions.
func Distance(a, b string) int {
	return distance([]rune(a), []rune(b))
}

// Within reports whether the Levenshtein distance between a and b is at most
// maxEdits. It short-circuits on the length difference and abandons the
// computation as soon as every path exceeds the bound.
func Within(a, b string, maxEdits int) bool {
	if maxEdits < 0 {
		return false
	}

	ra, rb := []rune(a), []rune(b)

	diff := len(ra) - len(rb)
	if diff < 0 {
		diff = -diff
	}
	if diff > maxEdits {
		return false
	}

	return distanceBounded(ra, rb, maxEdits) <= maxEdits
}

func distance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two-row dynamic programming; prev holds row i-1.
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

			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// distanceBounded is the same recurrence with rows clamped at maxEdits+1.
// Once a full row exceeds the bound the result cannot recover, so it bails.
func distanceBounded(a, b []rune, maxEdits int) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	bail := maxEdits + 1

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]

		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)

			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}

		if rowMin > maxEdits {
			return bail
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}

	return m
}
