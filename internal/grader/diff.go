package grader

import "strings"

// ChangedLines is the minimum number of line insertions plus deletions that
// turn a into b, computed from a longest-common-subsequence alignment:
// changed = lenA + lenB - 2*LCS(A, B). Symmetric, and zero for equal inputs.
func ChangedLines(a, b string) int {
	if a == b {
		return 0
	}

	linesA := splitLines(a)
	linesB := splitLines(b)

	return len(linesA) + len(linesB) - 2*lcsLength(linesA, linesB)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// lcsLength runs the classic DP with two rolling rows.
func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
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
