package geometry

// OnSegment reports whether point c lies on the line segment from a to b.
// The point must be collinear with the endpoints and its dominant coordinate
// must fall within their range; all three points coincident also counts.
func OnSegment(a, b, c Point2D) bool {
	if !collinear(a, b, c) {
		return false
	}
	if a.X != b.X {
		return within(a.X, c.X, b.X)
	}
	return within(a.Y, c.Y, b.Y)
}

// OnSegmentWindow reports whether any integer-offset point in a small square
// window around c lies on the segment from a to b. The window spans 3*delta
// candidates per axis, which lets near-miss pointer positions still register
// after pixel rounding or coarse sampling.
func OnSegmentWindow(a, b, c Point2D, delta int) bool {
	if delta < 1 {
		delta = 1
	}
	for i := 0; i < delta*3; i++ {
		x := c.X + float64(i-1)
		for j := 0; j < delta*3; j++ {
			y := c.Y + float64(j-1)
			if OnSegment(a, b, Point2D{X: x, Y: y}) {
				return true
			}
		}
	}
	return false
}

// collinear reports whether a, b and c all lie on the same line.
func collinear(a, b, c Point2D) bool {
	return (b.X-a.X)*(c.Y-a.Y) == (c.X-a.X)*(b.Y-a.Y)
}

// within reports whether q is between p and r, inclusive.
func within(p, q, r float64) bool {
	return (p <= q && q <= r) || (r <= q && q <= p)
}
