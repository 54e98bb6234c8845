// Package vision defines the detection capability boundary of the
// recognition session: the result bundle produced by one processing run and
// the Detector interface the session calls into. The default implementation
// runs an OpenCV pipeline; tests substitute a stub.
package vision

import (
	"fmt"

	gbrimage "github.com/Gikiman/gbr/internal/image"
	"github.com/Gikiman/gbr/internal/params"
	"github.com/Gikiman/gbr/pkg/geometry"
)

// StoneColor identifies a stone's color, or no filter at all.
type StoneColor int

const (
	Any StoneColor = iota
	Black
	White
)

func (c StoneColor) String() string {
	switch c {
	case Black:
		return "B"
	case White:
		return "W"
	default:
		return ""
	}
}

// Stone is one detected stone: pixel center, 1-based grid position, and
// detection radius in pixels.
type Stone struct {
	X   int `json:"x"`
	Y   int `json:"y"`
	Col int `json:"col"`
	Row int `json:"row"`
	R   int `json:"r"`
}

// Label returns the stone's board label, e.g. "D4". Columns map A=1, B=2 and
// so on with no skipped letters; rows are 1-based numbers.
func (s Stone) Label() string {
	return fmt.Sprintf("%c%d", 'A'+s.Col-1, s.Row)
}

// ColoredStone is a stone tagged with its color, used by combined views.
type ColoredStone struct {
	Stone
	Color StoneColor
}

// Result is the structured output of one successful processing run.
type Result struct {
	Black []Stone
	White []Stone

	// Edges is the board rectangle (outermost grid lines) in image pixels.
	Edges geometry.Rect
	// Spacing is the distance between adjacent grid lines per axis.
	Spacing geometry.Size
	// CrossCols and CrossRows count the detected grid crossings per axis.
	CrossCols int
	CrossRows int

	BoardSize int
	ImageSize geometry.SizeInt

	// DebugImages holds intermediate pipeline images keyed by name
	// (keys carry an IMG_ prefix).
	DebugImages map[string]*gbrimage.Buffer
}

// Detector is the boundary to the vision subsystem. Implementations must not
// retain the buffer past the call.
type Detector interface {
	// DetectBoard locates the board edges and infers the grid size.
	DetectBoard(buf *gbrimage.Buffer, p *params.Params) (*geometry.Rect, int, error)
	// Process runs full recognition and returns the result bundle.
	Process(buf *gbrimage.Buffer, p *params.Params) (*Result, error)
}
