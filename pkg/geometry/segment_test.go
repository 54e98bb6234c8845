package geometry

import "testing"

func TestOnSegment_Horizontal(t *testing.T) {
	a := NewPoint2D(0, 10)
	b := NewPoint2D(100, 10)

	if !OnSegment(a, b, NewPoint2D(50, 10)) {
		t.Error("midpoint should be on segment")
	}
	if !OnSegment(a, b, a) || !OnSegment(a, b, b) {
		t.Error("endpoints should be on segment")
	}
	if OnSegment(a, b, NewPoint2D(50, 11)) {
		t.Error("offset point should not be on segment")
	}
	if OnSegment(a, b, NewPoint2D(101, 10)) {
		t.Error("collinear point beyond endpoint should not be on segment")
	}
}

func TestOnSegment_Vertical(t *testing.T) {
	a := NewPoint2D(5, 0)
	b := NewPoint2D(5, 40)

	if !OnSegment(a, b, NewPoint2D(5, 20)) {
		t.Error("midpoint should be on segment")
	}
	if OnSegment(a, b, NewPoint2D(5, -1)) {
		t.Error("point above segment should not match")
	}
	if OnSegment(a, b, NewPoint2D(6, 20)) {
		t.Error("point beside segment should not match")
	}
}

func TestOnSegment_Degenerate(t *testing.T) {
	p := NewPoint2D(3, 7)
	if !OnSegment(p, p, p) {
		t.Error("coincident points should count as on segment")
	}
	if OnSegment(p, p, NewPoint2D(3, 8)) {
		t.Error("distinct point should not be on a degenerate segment")
	}
}

func TestOnSegmentWindow_Tolerance(t *testing.T) {
	a := NewPoint2D(0, 10)
	b := NewPoint2D(100, 10)

	// One pixel off still registers through the window.
	if !OnSegmentWindow(a, b, NewPoint2D(50, 11), 1) {
		t.Error("point one pixel off should register with delta 1")
	}
	if !OnSegmentWindow(a, b, NewPoint2D(50, 9), 1) {
		t.Error("point one pixel off on the other side should register")
	}
	// Far away never registers.
	if OnSegmentWindow(a, b, NewPoint2D(50, 30), 1) {
		t.Error("point far from segment should not register")
	}
}

func TestOnSegmentWindow_LargerDelta(t *testing.T) {
	a := NewPoint2D(0, 0)
	b := NewPoint2D(0, 50)

	if OnSegmentWindow(a, b, NewPoint2D(4, 25), 1) {
		t.Error("four pixels off should not register with delta 1")
	}
	if !OnSegmentWindow(a, b, NewPoint2D(4, 25), 2) {
		t.Error("four pixels off should register with delta 2")
	}
}

func TestQuadValid(t *testing.T) {
	q := Quad{
		NewPoint2D(0, 0), NewPoint2D(10, 0),
		NewPoint2D(10, 10), NewPoint2D(0, 10),
	}
	if !q.Valid() {
		t.Error("square quad should be valid")
	}

	dup := q
	dup[2] = dup[0]
	if dup.Valid() {
		t.Error("quad with duplicate corners should be invalid")
	}
}

func TestQuadBoundingBox(t *testing.T) {
	q := Quad{
		NewPoint2D(10, 5), NewPoint2D(90, 12),
		NewPoint2D(85, 95), NewPoint2D(5, 88),
	}
	bb := q.BoundingBox()
	if bb.X != 5 || bb.Y != 5 || bb.Right() != 90 || bb.Bottom() != 95 {
		t.Errorf("bounding box = %+v, want (5,5)-(90,95)", bb)
	}
}

func TestRectFromCorners(t *testing.T) {
	r := RectFromCorners(NewPoint2D(30, 40), NewPoint2D(10, 20))
	if r.X != 10 || r.Y != 20 || r.Width != 20 || r.Height != 20 {
		t.Errorf("rect = %+v, want (10,20) 20x20", r)
	}
}

func TestRectScaled(t *testing.T) {
	r := NewRect(10, 20, 30, 40).Scaled(2, 0.5)
	if r.X != 20 || r.Y != 10 || r.Width != 60 || r.Height != 20 {
		t.Errorf("scaled rect = %+v", r)
	}
}
