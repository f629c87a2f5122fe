package diff

// Similarity returns a [0,1] ratio of how alike two strings are, defined as
// the length of their longest common subsequence divided by the length of the
// longer string. Two empty strings are identical (1); an empty string against
// a non-empty one shares nothing (0).
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return float64(lcsLength(ra, rb)) / float64(longest)
}

// lcsLength computes the longest-common-subsequence length with the standard
// dynamic program, keeping only two rows so memory stays O(min side).
func lcsLength(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
