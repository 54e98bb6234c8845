package mask

import (
	"testing"

	"github.com/Gikiman/gbr/pkg/geometry"
)

// fakeRenderer records drawing calls.
type fakeRenderer struct {
	draws   int
	clears  int
	outside []geometry.Rect
	outline geometry.Rect
}

func (r *fakeRenderer) DrawMask(outside []geometry.Rect, outline geometry.Rect) {
	r.draws++
	r.outside = outside
	r.outline = outline
}

func (r *fakeRenderer) ClearMask() { r.clears++ }

func newTestMask() (*Mask, *fakeRenderer) {
	r := &fakeRenderer{}
	m := New(geometry.SizeInt{Width: 400, Height: 300}, 10, 3, r)
	return m, r
}

func TestDefaultBounds(t *testing.T) {
	m, _ := newTestMask()
	got := m.Bounds()
	want := geometry.NewRect(10, 10, 380, 280)
	if got != want {
		t.Errorf("default bounds = %+v, want %+v", got, want)
	}
}

func TestShowHideIdempotent(t *testing.T) {
	m, r := newTestMask()

	m.Show()
	m.Show()
	if r.draws != 1 {
		t.Errorf("draws after double Show = %d, want 1", r.draws)
	}
	if !m.Visible() {
		t.Error("mask should be visible")
	}

	m.Hide()
	m.Hide()
	if r.clears != 1 {
		t.Errorf("clears after double Hide = %d, want 1", r.clears)
	}
}

func TestHoverEdge(t *testing.T) {
	m, _ := newTestMask()
	m.Show()

	m.PointerMove(10, 150) // on the left edge
	if m.HoverEdge() != EdgeLeft {
		t.Errorf("hover = %v, want left", m.HoverEdge())
	}

	m.PointerMove(8, 150) // near miss, still within the grab window
	if m.HoverEdge() != EdgeLeft {
		t.Errorf("hover within tolerance = %v, want left", m.HoverEdge())
	}

	m.PointerMove(200, 150) // interior
	if m.HoverEdge() != EdgeNone {
		t.Errorf("hover in interior = %v, want none", m.HoverEdge())
	}

	// Corner: left wins over top by priority.
	m.PointerMove(10, 10)
	if m.HoverEdge() != EdgeLeft {
		t.Errorf("hover on corner = %v, want left", m.HoverEdge())
	}
}

func TestDragLatchesAndMoves(t *testing.T) {
	m, _ := newTestMask()
	m.Show()

	m.Drag(390, 150) // grab the right edge
	if !m.Dragging() || m.HoverEdge() != EdgeRight {
		t.Fatalf("drag did not latch right edge: dragging=%v edge=%v", m.Dragging(), m.HoverEdge())
	}

	// The latched edge follows even when the pointer leaves the edge line.
	m.Drag(250, 40)
	if got := m.Bounds().Right(); got != 250 {
		t.Errorf("right edge = %v, want 250", got)
	}

	m.EndDrag()
	if m.Dragging() || m.HoverEdge() != EdgeNone {
		t.Error("EndDrag must clear the latch")
	}

	// After release, dragging in the interior latches nothing.
	m.Drag(200, 150)
	if m.Dragging() {
		t.Error("interior drag must not latch an edge")
	}
}

func TestDragClampsAtMinDistance(t *testing.T) {
	m, _ := newTestMask()
	m.Show()

	// Drag the left edge far past the right edge.
	m.Drag(10, 150)
	m.Drag(1000, 150)
	if got := m.Bounds().X; got != 380 { // right (390) - minDist (10)
		t.Errorf("left edge clamp = %v, want 380", got)
	}
	m.EndDrag()
	m.ResetToDefault()

	// Edges keep the minimum distance from the image border too.
	m.Drag(200, 10) // grab the top edge
	m.Drag(200, -50)
	if got := m.Bounds().Y; got != 10 {
		t.Errorf("top edge after off-image drag = %v, want minDist 10", got)
	}
	m.EndDrag()

	m.Drag(390, 150) // grab the right edge
	m.Drag(1000, 150)
	if got := m.Bounds().Right(); got != 390 {
		t.Errorf("right edge after off-image drag = %v, want dim-minDist 390", got)
	}
	m.EndDrag()

	m.Drag(200, 290) // grab the bottom edge
	m.Drag(200, 500)
	if got := m.Bounds().Bottom(); got != 290 {
		t.Errorf("bottom edge after off-image drag = %v, want dim-minDist 290", got)
	}
	m.EndDrag()
}

func TestEndDragWhenIdle(t *testing.T) {
	m, _ := newTestMask()
	m.Show()
	m.EndDrag() // must not panic or change state
	if m.Dragging() {
		t.Error("idle EndDrag must stay idle")
	}
}

func TestHiddenOrLockedIgnoresPointer(t *testing.T) {
	m, _ := newTestMask()

	// Hidden: all events ignored.
	m.Drag(10, 150)
	if m.Dragging() {
		t.Error("hidden mask must ignore drags")
	}

	m.Show()
	m.SetEditable(false)
	m.Drag(10, 150)
	if m.Dragging() {
		t.Error("non-editable mask must ignore drags")
	}
}

func TestHideCancelsDrag(t *testing.T) {
	m, _ := newTestMask()
	m.Show()
	m.Drag(10, 150)
	if !m.Dragging() {
		t.Fatal("drag should have latched")
	}
	m.Hide()
	if m.Dragging() {
		t.Error("hiding must cancel the drag")
	}
}

func TestRandomizeRanges(t *testing.T) {
	m, _ := newTestMask()
	for i := 0; i < 50; i++ {
		m.Randomize()
		b := m.Bounds()
		if b.X < 0 || b.X > 200 {
			t.Fatalf("left = %v outside [0, 200]", b.X)
		}
		if b.Y < 0 || b.Y > 150 {
			t.Fatalf("top = %v outside [0, 150]", b.Y)
		}
		if b.Right() <= 200 || b.Right() > 400 {
			t.Fatalf("right = %v outside (200, 400]", b.Right())
		}
		if b.Bottom() <= 150 || b.Bottom() > 300 {
			t.Fatalf("bottom = %v outside (150, 300]", b.Bottom())
		}
	}
}

func TestResetToDefault(t *testing.T) {
	m, _ := newTestMask()
	m.Show()
	m.Drag(10, 150)
	m.Drag(100, 150)
	m.EndDrag()

	m.ResetToDefault()
	if m.Bounds() != geometry.NewRect(10, 10, 380, 280) {
		t.Errorf("reset bounds = %+v", m.Bounds())
	}
}

func TestSetBoundsClamps(t *testing.T) {
	m, _ := newTestMask()
	m.SetBounds(geometry.NewRect(-20, -20, 1000, 1000))
	b := m.Bounds()
	if b.X != 10 || b.Y != 10 || b.Right() != 390 || b.Bottom() != 290 {
		t.Errorf("clamped bounds = %+v, want minDist inset on every side", b)
	}
}

func TestOutsideRegionsCoverComplement(t *testing.T) {
	m, r := newTestMask()
	m.Show()

	if len(r.outside) != 4 {
		t.Fatalf("outside regions = %d, want 4", len(r.outside))
	}
	var area float64
	for _, reg := range r.outside {
		area += reg.Width * reg.Height
	}
	inner := r.outline.Width * r.outline.Height
	if total := area + inner; total != 400*300 {
		t.Errorf("regions cover %v of %v pixels", total, 400*300)
	}
}
