package util

// SumFloat64 returns the sum of the given values.
func SumFloat64(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

// AddFloat64 adds two slices elementwise into a new slice.
// The second return value is false when the lengths differ.
func AddFloat64(a, b []float64) ([]float64, bool) {
	if len(a) != len(b) {
		return nil, false
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out, true
}

// CloneFloat64 returns a copy of the given slice.
func CloneFloat64(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	return out
}
