// Package mask implements the draggable analysis-region mask shown over a
// board image: a rectangle whose four edges can be grabbed and dragged, with
// the area outside the rectangle shaded. The mask itself is pure state; a
// Renderer supplied by the UI layer does the drawing.
package mask

import (
	"math/rand"

	"github.com/Gikiman/gbr/pkg/geometry"
)

// Edge identifies one edge of the mask rectangle. Hit testing checks edges
// in declaration order, so when a pointer sits on a corner the earlier edge
// wins.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeLeft
	EdgeTop
	EdgeRight
	EdgeBottom
)

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeTop:
		return "top"
	case EdgeRight:
		return "right"
	case EdgeBottom:
		return "bottom"
	default:
		return "none"
	}
}

// state is the interaction state. The mask is either idle (tracking which
// edge the pointer hovers) or dragging exactly one latched edge.
type state int

const (
	stateIdle state = iota
	stateDragging
)

// event is a pointer event fed to the transition function.
type event int

const (
	eventMove event = iota
	eventDrag
	eventRelease
)

// Renderer draws the mask. DrawMask receives the shaded regions outside the
// rectangle and the rectangle itself; ClearMask removes any drawing.
type Renderer interface {
	DrawMask(outside []geometry.Rect, outline geometry.Rect)
	ClearMask()
}

// Mask is the draggable analysis-region rectangle over an image of a fixed
// pixel shape.
type Mask struct {
	shape   geometry.SizeInt
	minDist float64
	tol     int

	left, top, right, bottom float64

	visible  bool
	editable bool

	st     state
	active Edge // latched while dragging, hovered while idle

	renderer Renderer
}

// New creates a mask over an image of the given shape. minDist is the
// smallest allowed distance between opposite edges and also the default
// inset from the image border; tol is the pixel tolerance for grabbing an
// edge. The mask starts hidden and editable.
func New(shape geometry.SizeInt, minDist float64, tol int, r Renderer) *Mask {
	m := &Mask{
		shape:    shape,
		minDist:  minDist,
		tol:      tol,
		editable: true,
		renderer: r,
	}
	m.ResetToDefault()
	return m
}

// ResetToDefault places the mask inset from every image border by minDist.
func (m *Mask) ResetToDefault() {
	m.left = m.minDist
	m.top = m.minDist
	m.right = float64(m.shape.Width) - m.minDist
	m.bottom = float64(m.shape.Height) - m.minDist
	m.st = stateIdle
	m.active = EdgeNone
	m.redraw()
}

// Randomize places the near edges in [0, dim/2] and the far edges strictly
// above the midpoint, up to and including the far border.
func (m *Mask) Randomize() {
	w, h := m.shape.Width, m.shape.Height
	m.left = float64(rand.Intn(w/2 + 1))
	m.top = float64(rand.Intn(h/2 + 1))
	m.right = float64(w/2 + 1 + rand.Intn(w-w/2))
	m.bottom = float64(h/2 + 1 + rand.Intn(h-h/2))
	m.redraw()
}

// Show makes the mask visible. Idempotent.
func (m *Mask) Show() {
	if m.visible {
		return
	}
	m.visible = true
	m.redraw()
}

// Hide removes the mask from view and cancels any drag. Idempotent.
func (m *Mask) Hide() {
	if !m.visible {
		return
	}
	m.visible = false
	m.st = stateIdle
	m.active = EdgeNone
	if m.renderer != nil {
		m.renderer.ClearMask()
	}
}

// Visible reports whether the mask is currently shown.
func (m *Mask) Visible() bool { return m.visible }

// SetEditable enables or disables dragging.
func (m *Mask) SetEditable(on bool) {
	m.editable = on
	if !on {
		m.st = stateIdle
		m.active = EdgeNone
	}
}

// Bounds returns the mask rectangle.
func (m *Mask) Bounds() geometry.Rect {
	return geometry.RectFromCorners(
		geometry.NewPoint2D(m.left, m.top),
		geometry.NewPoint2D(m.right, m.bottom),
	)
}

// SetBounds places the mask explicitly, clamped so every edge keeps the
// minimum distance from the image border and from its opposite edge.
func (m *Mask) SetBounds(r geometry.Rect) {
	w, h := float64(m.shape.Width), float64(m.shape.Height)
	m.left = clamp(r.X, m.minDist, w-2*m.minDist)
	m.top = clamp(r.Y, m.minDist, h-2*m.minDist)
	m.right = clamp(r.Right(), m.left+m.minDist, w-m.minDist)
	m.bottom = clamp(r.Bottom(), m.top+m.minDist, h-m.minDist)
	m.redraw()
}

// HoverEdge returns the edge under the pointer after the last move, or
// the latched edge during a drag.
func (m *Mask) HoverEdge() Edge { return m.active }

// Dragging reports whether an edge is currently latched.
func (m *Mask) Dragging() bool { return m.st == stateDragging }

// PointerMove feeds a passive pointer position, updating and returning the
// hover edge.
func (m *Mask) PointerMove(x, y float64) Edge {
	m.transition(eventMove, x, y)
	return m.active
}

// Drag feeds a pointer position with the button held. The first drag event
// latches the edge under the pointer; subsequent ones move it.
func (m *Mask) Drag(x, y float64) {
	m.transition(eventDrag, x, y)
}

// EndDrag releases any latched edge. Safe to call when idle.
func (m *Mask) EndDrag() {
	m.transition(eventRelease, 0, 0)
}

// transition is the single state machine step for all pointer events.
func (m *Mask) transition(ev event, x, y float64) {
	if !m.visible || !m.editable {
		return
	}

	switch m.st {
	case stateIdle:
		switch ev {
		case eventMove:
			m.active = m.hitEdge(x, y)
		case eventDrag:
			if e := m.hitEdge(x, y); e != EdgeNone {
				m.active = e
				m.st = stateDragging
				m.moveEdge(e, x, y)
			}
		case eventRelease:
			m.active = EdgeNone
		}

	case stateDragging:
		switch ev {
		case eventDrag:
			m.moveEdge(m.active, x, y)
		case eventRelease:
			m.st = stateIdle
			m.active = EdgeNone
		}
	}
}

// hitEdge returns the first edge whose segment passes within tol pixels of
// the pointer.
func (m *Mask) hitEdge(x, y float64) Edge {
	p := geometry.NewPoint2D(x, y)
	tl := geometry.NewPoint2D(m.left, m.top)
	tr := geometry.NewPoint2D(m.right, m.top)
	br := geometry.NewPoint2D(m.right, m.bottom)
	bl := geometry.NewPoint2D(m.left, m.bottom)

	switch {
	case geometry.OnSegmentWindow(tl, bl, p, m.tol):
		return EdgeLeft
	case geometry.OnSegmentWindow(tl, tr, p, m.tol):
		return EdgeTop
	case geometry.OnSegmentWindow(tr, br, p, m.tol):
		return EdgeRight
	case geometry.OnSegmentWindow(bl, br, p, m.tol):
		return EdgeBottom
	default:
		return EdgeNone
	}
}

// moveEdge drags one edge to the pointer, clamped so the rectangle keeps its
// minimum extent and every edge stays at least minDist from the image border.
func (m *Mask) moveEdge(e Edge, x, y float64) {
	switch e {
	case EdgeLeft:
		m.left = clamp(x, m.minDist, m.right-m.minDist)
	case EdgeTop:
		m.top = clamp(y, m.minDist, m.bottom-m.minDist)
	case EdgeRight:
		m.right = clamp(x, m.left+m.minDist, float64(m.shape.Width)-m.minDist)
	case EdgeBottom:
		m.bottom = clamp(y, m.top+m.minDist, float64(m.shape.Height)-m.minDist)
	default:
		return
	}
	m.redraw()
}

// redraw pushes the current geometry to the renderer when visible.
func (m *Mask) redraw() {
	if !m.visible || m.renderer == nil {
		return
	}
	m.renderer.DrawMask(m.outsideRegions(), m.Bounds())
}

// outsideRegions returns the four rectangles covering the image area outside
// the mask. Zero-extent strips are omitted.
func (m *Mask) outsideRegions() []geometry.Rect {
	w, h := float64(m.shape.Width), float64(m.shape.Height)
	candidates := []geometry.Rect{
		geometry.NewRect(0, 0, w, m.top),                       // above
		geometry.NewRect(0, m.bottom, w, h-m.bottom),           // below
		geometry.NewRect(0, m.top, m.left, m.bottom-m.top),     // left
		geometry.NewRect(m.right, m.top, w-m.right, m.bottom-m.top), // right
	}
	out := candidates[:0]
	for _, r := range candidates {
		if r.Width > 0 && r.Height > 0 {
			out = append(out, r)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
