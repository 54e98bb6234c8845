package vision

import (
	"fmt"
	goimage "image"
	"math"
	"sort"

	gbrimage "github.com/Gikiman/gbr/internal/image"
	"github.com/Gikiman/gbr/internal/params"
	"github.com/Gikiman/gbr/pkg/geometry"

	"gocv.io/x/gocv"
)

// standardSizes are the grid sizes a detected line count snaps to.
var standardSizes = []int{9, 13, 19}

// detector is the default OpenCV-based implementation.
type detector struct{}

// New returns the default detector.
func New() Detector {
	return &detector{}
}

// DetectBoard finds the outermost grid lines and infers the board size from
// the number of distinct line positions.
func (d *detector) DetectBoard(buf *gbrimage.Buffer, p *params.Params) (*geometry.Rect, int, error) {
	if buf.Empty() {
		return nil, 0, fmt.Errorf("no image to detect on")
	}

	gray := toGray(buf.Mat(), p.BlurSize)
	defer gray.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, float32(p.CannyMin), float32(p.CannyMax))

	lines := gocv.NewMat()
	defer lines.Close()
	minLen := float32(buf.Width()) / 4
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, 80, minLen, 5)

	var xs, ys []int
	for i := 0; i < lines.Rows(); i++ {
		l := lines.GetVeciAt(i, 0)
		x1, y1, x2, y2 := int(l[0]), int(l[1]), int(l[2]), int(l[3])
		dx, dy := abs(x2-x1), abs(y2-y1)
		switch {
		case dy <= 2 && dx > dy: // horizontal
			ys = append(ys, (y1+y2)/2)
		case dx <= 2 && dy > dx: // vertical
			xs = append(xs, (x1+x2)/2)
		}
	}
	if len(xs) < 2 || len(ys) < 2 {
		return nil, 0, fmt.Errorf("not enough grid lines found (%d vertical, %d horizontal)", len(xs), len(ys))
	}

	cols := clusterPositions(xs, 4)
	rows := clusterPositions(ys, 4)

	rect := geometry.RectFromCorners(
		geometry.NewPoint2D(float64(cols[0]), float64(rows[0])),
		geometry.NewPoint2D(float64(cols[len(cols)-1]), float64(rows[len(rows)-1])),
	)

	size := snapSize(len(cols), len(rows))
	return &rect, size, nil
}

// Process runs the full pipeline: board geometry (overridable from params),
// circle detection, and per-stone color classification.
func (d *detector) Process(buf *gbrimage.Buffer, p *params.Params) (*Result, error) {
	if buf.Empty() {
		return nil, fmt.Errorf("no image to process")
	}

	// Clip the working region to the analysis mask, if any.
	work := buf.Mat()
	var offX, offY int
	var region gocv.Mat
	if p.AreaMask != nil {
		r := clipRect(*p.AreaMask, buf.Width(), buf.Height())
		region = work.Region(goimage.Rect(int(r.X), int(r.Y), int(r.Right()), int(r.Bottom())))
		defer region.Close()
		work = region
		offX, offY = int(r.X), int(r.Y)
	}
	workBuf := gbrimage.NewBuffer(work.Clone())
	defer workBuf.Close()

	// Board geometry: explicit params win over detection.
	var edges geometry.Rect
	var size int
	if p.BoardEdges != nil && p.BoardSize != nil {
		edges = *p.BoardEdges
		size = *p.BoardSize
	} else {
		det, detSize, err := d.DetectBoard(workBuf, p)
		if err != nil {
			return nil, fmt.Errorf("board detection failed: %w", err)
		}
		edges = geometry.NewRect(det.X+float64(offX), det.Y+float64(offY), det.Width, det.Height)
		size = detSize
		if p.BoardSize != nil {
			size = *p.BoardSize
		}
	}
	if size < 2 {
		return nil, fmt.Errorf("implausible board size %d", size)
	}

	spacing := geometry.NewSize(
		edges.Width/float64(size-1),
		edges.Height/float64(size-1),
	)
	if spacing.Width <= 0 || spacing.Height <= 0 {
		return nil, fmt.Errorf("implausible grid spacing %v", spacing)
	}

	gray := toGray(buf.Mat(), p.BlurSize)
	defer gray.Close()

	res := &Result{
		Black:       []Stone{},
		White:       []Stone{},
		Edges:       edges,
		Spacing:     spacing,
		CrossCols:   size,
		CrossRows:   size,
		BoardSize:   size,
		ImageSize:   buf.Shape(),
		DebugImages: map[string]*gbrimage.Buffer{},
	}

	minDist := math.Max(spacing.Width, spacing.Height) * p.HoughMinDistFrac
	if minDist < 1 {
		minDist = 1
	}

	// One Hough pass per color: black stones on the grayscale image with the
	// black sensitivity, white stones on the inverted image with the white
	// sensitivity. Intensity classification guards each pass against picking
	// up the other color; first detection wins a grid point.
	occupied := map[[2]int]bool{}
	findStones := func(src gocv.Mat, param2 float64, want StoneColor) {
		circles := gocv.NewMat()
		defer circles.Close()
		gocv.HoughCirclesWithParams(src, &circles, gocv.HoughGradient,
			p.HoughDP, minDist,
			float64(p.CannyMax), param2,
			p.MinStoneRadius, p.MaxStoneRadius)

		for i := 0; i < circles.Cols(); i++ {
			c := circles.GetVecfAt(0, i)
			x, y, r := int(c[0]), int(c[1]), int(c[2])

			col := gridIndex(float64(x), edges.X, spacing.Width, size)
			row := gridIndex(float64(y), edges.Y, spacing.Height, size)
			if col == 0 || row == 0 {
				continue // off the grid
			}
			if occupied[[2]int{col, row}] {
				continue
			}
			if dark := isDark(gray, x, y, r); dark != (want == Black) {
				continue
			}

			occupied[[2]int{col, row}] = true
			stone := Stone{X: x, Y: y, Col: col, Row: row, R: r}
			if want == Black {
				res.Black = append(res.Black, stone)
			} else {
				res.White = append(res.White, stone)
			}
		}
	}

	findStones(gray, p.HoughParam2Black, Black)

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(gray, &inverted)
	findStones(inverted, p.HoughParam2White, White)

	grayCopy := gocv.NewMat()
	gocv.CvtColor(gray, &grayCopy, gocv.ColorGrayToBGR)
	res.DebugImages["IMG_GRAY"] = gbrimage.NewBuffer(grayCopy)

	edgeMat := gocv.NewMat()
	gocv.Canny(gray, &edgeMat, float32(p.CannyMin), float32(p.CannyMax))
	edgeBGR := gocv.NewMat()
	gocv.CvtColor(edgeMat, &edgeBGR, gocv.ColorGrayToBGR)
	edgeMat.Close()
	res.DebugImages["IMG_EDGES"] = gbrimage.NewBuffer(edgeBGR)

	return res, nil
}

// toGray converts to grayscale and applies the configured blur.
func toGray(src gocv.Mat, blurSize int) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	if blurSize > 1 {
		gocv.GaussianBlur(gray, &gray, goimage.Pt(blurSize, blurSize), 0, 0, gocv.BorderDefault)
	}
	return gray
}

// isDark samples the mean intensity inside the stone's bounding square.
func isDark(gray gocv.Mat, x, y, r int) bool {
	if r < 1 {
		r = 1
	}
	x1 := clampInt(x-r/2, 0, gray.Cols()-1)
	y1 := clampInt(y-r/2, 0, gray.Rows()-1)
	x2 := clampInt(x+r/2+1, x1+1, gray.Cols())
	y2 := clampInt(y+r/2+1, y1+1, gray.Rows())

	region := gray.Region(goimage.Rect(x1, y1, x2, y2))
	defer region.Close()
	return region.Mean().Val1 < 128
}

// gridIndex maps a pixel coordinate to a 1-based grid index, or 0 when the
// coordinate falls too far from any grid line.
func gridIndex(v, origin, spacing float64, size int) int {
	idx := math.Round((v - origin) / spacing)
	if idx < 0 || idx >= float64(size) {
		return 0
	}
	// Reject samples more than 40% of a cell away from the line.
	if math.Abs((v-origin)-idx*spacing) > spacing*0.4 {
		return 0
	}
	return int(idx) + 1
}

// clusterPositions merges coordinates closer than tol and returns the sorted
// cluster centers.
func clusterPositions(vals []int, tol int) []int {
	sort.Ints(vals)
	var out []int
	start := 0
	for i := 1; i <= len(vals); i++ {
		if i == len(vals) || vals[i]-vals[i-1] > tol {
			sum := 0
			for _, v := range vals[start:i] {
				sum += v
			}
			out = append(out, sum/(i-start))
			start = i
		}
	}
	return out
}

// snapSize picks the standard board size closest to the detected line counts.
func snapSize(cols, rows int) int {
	detected := (cols + rows) / 2
	best := standardSizes[len(standardSizes)-1]
	bestDiff := math.MaxInt32
	for _, s := range standardSizes {
		if d := abs(detected - s); d < bestDiff {
			bestDiff = d
			best = s
		}
	}
	return best
}

func clipRect(r geometry.Rect, w, h int) geometry.Rect {
	x1 := math.Max(0, r.X)
	y1 := math.Max(0, r.Y)
	x2 := math.Min(float64(w), r.Right())
	y2 := math.Min(float64(h), r.Bottom())
	return geometry.RectFromCorners(geometry.NewPoint2D(x1, y1), geometry.NewPoint2D(x2, y2))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
