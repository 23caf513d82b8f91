package catalog

// Ratio returns the Ratcliff/Obershelp similarity of a and b: twice the
// number of characters in matching blocks over the total length, in [0,1].
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(ra, rb)) / float64(total)
}

// matchingChars sums the sizes of the matching blocks: take the longest
// common substring, then recurse on the pieces to its left and right.
func matchingChars(a, b []rune) int {
	type span struct{ alo, ahi, blo, bhi int }

	matched := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the given
// bounds, preferring the earliest i and then the earliest j on ties.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (int, int, int) {
	bestI, bestJ, bestK := alo, blo, 0

	// prev[j+1] is the length of the match ending at a[i-1], b[j]
	prev := make([]int, bhi-blo+1)
	cur := make([]int, bhi-blo+1)
	for i := alo; i < ahi; i++ {
		for j := blo; j < bhi; j++ {
			col := j - blo + 1
			if a[i] != b[j] {
				cur[col] = 0
				continue
			}
			cur[col] = prev[col-1] + 1
			if k := cur[col]; k > bestK {
				bestI, bestJ, bestK = i-k+1, j-k+1, k
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, bestK
}
