package docfeat

// mode returns the most frequent value in seq together with its count.
// Ties are broken in favour of the value seen first, so the result is
// deterministic for a given input order. ok is false for an empty seq.
func mode[T comparable](seq []T) (value T, count int, ok bool) {
	if len(seq) == 0 {
		return value, 0, false
	}
	counts := make(map[T]int, len(seq))
	var order []T
	for _, v := range seq {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, counts[best], true
}

// mean returns the arithmetic mean of seq, or 0 for an empty seq.
func mean(seq []float64) float64 {
	if len(seq) == 0 {
		return 0
	}
	var sum float64
	for _, v := range seq {
		sum += v
	}
	return sum / float64(len(seq))
}
