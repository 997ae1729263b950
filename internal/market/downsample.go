package market

// Downsample keeps every k-th point of points where k = ceil(n/maxPoints).
// The first point is always kept and order is preserved. When maxPoints is
// not positive or the series already fits, a copy of points is returned.
func Downsample[T any](points []T, maxPoints int) []T {
	n := len(points)
	if maxPoints <= 0 || n <= maxPoints {
		return append([]T(nil), points...)
	}

	step := Stride(n, maxPoints)
	out := make([]T, 0, (n+step-1)/step)
	for i := 0; i < n; i += step {
		out = append(out, points[i])
	}
	return out
}

// Stride returns the sampling step Downsample uses for a series of length n.
func Stride(n, maxPoints int) int {
	if maxPoints <= 0 || n <= maxPoints {
		return 1
	}
	return (n + maxPoints - 1) / maxPoints
}
