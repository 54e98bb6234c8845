// Package params provides the recognition parameter record and its JSON
// persistence. Parameters travel with a board image as a sibling .gpar file.
package params

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Gikiman/gbr/pkg/geometry"
)

// FileExt is the extension of a board parameters file.
const FileExt = ".gpar"

// BackupExt is appended to FileExt when an existing file is preserved.
const BackupExt = ".bak"

const (
	minBoardSize = 5
	maxBoardSize = 25
)

// Params holds every option governing board recognition.
//
// Detection knobs are always present and defaulted. The geometry keys
// (BOARD_SIZE, BOARD_EDGES, AREA_MASK, TRANSFORM) are optional: BOARD_SIZE
// and BOARD_EDGES are derived by edge detection and override automatic
// detection when set, AREA_MASK clips the working region, and TRANSFORM
// records the perspective correction applied to the image.
type Params struct {
	CannyMin         int     `json:"canny_min"`
	CannyMax         int     `json:"canny_max"`
	BlurSize         int     `json:"blur_size"`
	HoughDP          float64 `json:"hough_dp"`
	HoughMinDistFrac float64 `json:"hough_min_dist_frac"`
	HoughParam2Black float64 `json:"hough_param2_black"`
	HoughParam2White float64 `json:"hough_param2_white"`
	MinStoneRadius   int     `json:"min_stone_radius"`
	MaxStoneRadius   int     `json:"max_stone_radius"`

	BoardSize  *int           `json:"BOARD_SIZE,omitempty"`
	BoardEdges *geometry.Rect `json:"BOARD_EDGES,omitempty"`
	AreaMask   *geometry.Rect `json:"AREA_MASK,omitempty"`
	Transform  *geometry.Quad `json:"TRANSFORM,omitempty"`
}

// Default returns a parameter record with default detection settings and no
// geometry overrides.
func Default() *Params {
	return &Params{
		CannyMin:         50,
		CannyMax:         150,
		BlurSize:         3,
		HoughDP:          1.0,
		HoughMinDistFrac: 0.5,
		HoughParam2Black: 16,
		HoughParam2White: 16,
		MinStoneRadius:   3,
		MaxStoneRadius:   40,
	}
}

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	c := *p
	if p.BoardSize != nil {
		v := *p.BoardSize
		c.BoardSize = &v
	}
	if p.BoardEdges != nil {
		v := *p.BoardEdges
		c.BoardEdges = &v
	}
	if p.AreaMask != nil {
		v := *p.AreaMask
		c.AreaMask = &v
	}
	if p.Transform != nil {
		v := *p.Transform
		c.Transform = &v
	}
	return &c
}

// Merge copies all detection knobs and any set geometry keys from other
// into p. Unset geometry keys in other leave p's values alone.
func (p *Params) Merge(other *Params) {
	if other == nil {
		return
	}
	geomSize, geomEdges, geomMask, geomTr := p.BoardSize, p.BoardEdges, p.AreaMask, p.Transform
	*p = *other.Clone()
	if p.BoardSize == nil {
		p.BoardSize = geomSize
	}
	if p.BoardEdges == nil {
		p.BoardEdges = geomEdges
	}
	if p.AreaMask == nil {
		p.AreaMask = geomMask
	}
	if p.Transform == nil {
		p.Transform = geomTr
	}
}

// SetBoardSize sets the BOARD_SIZE override. A nil-equivalent is expressed by
// ClearGeometry or by assigning through Merge.
func (p *Params) SetBoardSize(size int) error {
	if size < minBoardSize || size > maxBoardSize {
		return fmt.Errorf("board size %d out of range [%d, %d]", size, minBoardSize, maxBoardSize)
	}
	p.BoardSize = &size
	return nil
}

// ClearBoardSize removes the BOARD_SIZE override.
func (p *Params) ClearBoardSize() { p.BoardSize = nil }

// SetBoardEdges sets the BOARD_EDGES override.
func (p *Params) SetBoardEdges(r geometry.Rect) error {
	if err := validRect(r); err != nil {
		return fmt.Errorf("board edges: %w", err)
	}
	p.BoardEdges = &r
	return nil
}

// ClearBoardEdges removes the BOARD_EDGES override.
func (p *Params) ClearBoardEdges() { p.BoardEdges = nil }

// SetAreaMask sets the AREA_MASK clip rectangle.
func (p *Params) SetAreaMask(r geometry.Rect) error {
	if err := validRect(r); err != nil {
		return fmt.Errorf("area mask: %w", err)
	}
	p.AreaMask = &r
	return nil
}

// ClearAreaMask removes the AREA_MASK rectangle.
func (p *Params) ClearAreaMask() { p.AreaMask = nil }

// SetTransform records the perspective transform quad.
func (p *Params) SetTransform(q geometry.Quad) error {
	if !q.Valid() {
		return fmt.Errorf("transform quad is degenerate")
	}
	p.Transform = &q
	return nil
}

// ClearTransform removes the TRANSFORM record.
func (p *Params) ClearTransform() { p.Transform = nil }

func validRect(r geometry.Rect) error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("rectangle %v has non-positive extent", r)
	}
	return nil
}

// Validate checks the whole record for consistency.
func (p *Params) Validate() error {
	if p.CannyMin < 0 || p.CannyMax < p.CannyMin {
		return fmt.Errorf("canny thresholds %d..%d invalid", p.CannyMin, p.CannyMax)
	}
	if p.BlurSize < 1 || p.BlurSize%2 == 0 {
		return fmt.Errorf("blur size %d must be odd and positive", p.BlurSize)
	}
	if p.HoughDP <= 0 {
		return fmt.Errorf("hough dp %v must be positive", p.HoughDP)
	}
	if p.MinStoneRadius < 1 || p.MaxStoneRadius < p.MinStoneRadius {
		return fmt.Errorf("stone radius range %d..%d invalid", p.MinStoneRadius, p.MaxStoneRadius)
	}
	if p.BoardSize != nil {
		if *p.BoardSize < minBoardSize || *p.BoardSize > maxBoardSize {
			return fmt.Errorf("board size %d out of range [%d, %d]", *p.BoardSize, minBoardSize, maxBoardSize)
		}
	}
	if p.BoardEdges != nil {
		if err := validRect(*p.BoardEdges); err != nil {
			return fmt.Errorf("board edges: %w", err)
		}
	}
	if p.AreaMask != nil {
		if err := validRect(*p.AreaMask); err != nil {
			return fmt.Errorf("area mask: %w", err)
		}
	}
	if p.Transform != nil && !p.Transform.Valid() {
		return fmt.Errorf("transform quad is degenerate")
	}
	return nil
}

// Load reads a parameter record from a JSON file. Detection knobs missing
// from the file keep their defaults.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}

	p := Default()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse params file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params in %s: %w", path, err)
	}
	return p, nil
}

// Save writes the record to a JSON file. When backup is true, a pre-existing
// file of the same name is first renamed to path + ".bak".
func (p *Params) Save(path string, backup bool) error {
	if backup {
		if _, err := os.Stat(path); err == nil {
			if err := os.Rename(path, path+BackupExt); err != nil {
				return fmt.Errorf("failed to back up params file: %w", err)
			}
		}
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write params file: %w", err)
	}
	return nil
}

// Equal reports whether two records hold the same keys and values.
func (p *Params) Equal(other *Params) bool {
	if other == nil {
		return false
	}
	if p.CannyMin != other.CannyMin || p.CannyMax != other.CannyMax ||
		p.BlurSize != other.BlurSize || p.HoughDP != other.HoughDP ||
		p.HoughMinDistFrac != other.HoughMinDistFrac ||
		p.HoughParam2Black != other.HoughParam2Black ||
		p.HoughParam2White != other.HoughParam2White ||
		p.MinStoneRadius != other.MinStoneRadius ||
		p.MaxStoneRadius != other.MaxStoneRadius {
		return false
	}
	if !eqIntPtr(p.BoardSize, other.BoardSize) {
		return false
	}
	if !eqRectPtr(p.BoardEdges, other.BoardEdges) || !eqRectPtr(p.AreaMask, other.AreaMask) {
		return false
	}
	if (p.Transform == nil) != (other.Transform == nil) {
		return false
	}
	if p.Transform != nil && *p.Transform != *other.Transform {
		return false
	}
	return true
}

func eqIntPtr(a, b *int) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func eqRectPtr(a, b *geometry.Rect) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
