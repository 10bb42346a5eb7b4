package inference

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// rank returns the indices of the n largest probabilities, highest first.
// Equal probabilities keep ascending index order.
func rank(proba []float64, n int) []int {
	idx := make([]int, len(proba))
	for i := range idx {
		idx[i] = i
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(proba[b], proba[a])
	})

	if len(idx) > n {
		idx = idx[:n]
	}
	return idx
}

// Round4 rounds v to four decimal places.
func Round4(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 4, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// Percent renders a probability as a one-decimal percentage, e.g. "87.0%".
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
