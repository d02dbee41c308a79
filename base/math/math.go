package math

// CeilInt returns ceil(a/b) for positive integers.
func CeilInt(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// MinInt returns the smaller of a and b.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
