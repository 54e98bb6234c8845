// Package render synthesizes board images: a wood-textured field with grid
// lines and star points, optionally populated with the stones of a
// recognition result. Used to generate blank boards and to preview results
// without the source photograph.
package render

import (
	"fmt"
	goimage "image"
	"image/color"

	gbrimage "github.com/Gikiman/gbr/internal/image"
	"github.com/Gikiman/gbr/internal/vision"
	"github.com/Gikiman/gbr/pkg/geometry"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// Palette shades are derived from the wood tone in Lab space so the grid and
// shadows stay consistent if the base tone is ever tuned.
var (
	wood       = colorful.Color{R: 0.86, G: 0.71, B: 0.44}
	inkBlack   = colorful.Color{R: 0.05, G: 0.05, B: 0.05}
	shellWhite = colorful.Color{R: 0.97, G: 0.96, B: 0.93}

	gridLine    = wood.BlendLab(inkBlack, 0.75)
	stoneBorder = shellWhite.BlendLab(inkBlack, 0.45)
	marker      = colorful.Color{R: 0.85, G: 0.15, B: 0.15}
)

// Options controls what Board draws beyond the empty grid.
type Options struct {
	Result    *vision.Result // stones to draw, nil for an empty board
	ShowBlack bool
	ShowWhite bool
	ShowBoxes bool // outline each stone with its detection circle
}

// Board renders a board of the given pixel shape and grid size.
func Board(shape geometry.SizeInt, boardSize int, opts Options) (*gbrimage.Buffer, error) {
	if shape.Width < 2 || shape.Height < 2 {
		return nil, fmt.Errorf("implausible board shape %dx%d", shape.Width, shape.Height)
	}
	if boardSize < 2 {
		return nil, fmt.Errorf("implausible board size %d", boardSize)
	}

	mat := gocv.NewMatWithSizeFromScalar(toScalar(wood), shape.Height, shape.Width, gocv.MatTypeCV8UC3)

	marginX := float64(shape.Width) / float64(boardSize+1)
	marginY := float64(shape.Height) / float64(boardSize+1)
	spacingX := (float64(shape.Width) - 2*marginX) / float64(boardSize-1)
	spacingY := (float64(shape.Height) - 2*marginY) / float64(boardSize-1)

	lineX := func(col int) int { return int(marginX + float64(col-1)*spacingX) }
	lineY := func(row int) int { return int(marginY + float64(row-1)*spacingY) }

	lineColor := toRGBA(gridLine)
	for i := 1; i <= boardSize; i++ {
		gocv.Line(&mat, goimage.Pt(lineX(1), lineY(i)), goimage.Pt(lineX(boardSize), lineY(i)), lineColor, 1)
		gocv.Line(&mat, goimage.Pt(lineX(i), lineY(1)), goimage.Pt(lineX(i), lineY(boardSize)), lineColor, 1)
	}

	for _, p := range starPoints(boardSize) {
		gocv.Circle(&mat, goimage.Pt(lineX(p.X), lineY(p.Y)), 3, lineColor, -1)
	}

	if opts.Result != nil {
		radius := int(min(spacingX, spacingY) * 0.45)
		if radius < 2 {
			radius = 2
		}
		if opts.ShowBlack {
			drawStones(&mat, opts.Result.Black, lineX, lineY, radius, toRGBA(inkBlack), toRGBA(stoneBorder), opts.ShowBoxes)
		}
		if opts.ShowWhite {
			drawStones(&mat, opts.Result.White, lineX, lineY, radius, toRGBA(shellWhite), toRGBA(stoneBorder), opts.ShowBoxes)
		}
	}

	return gbrimage.NewBuffer(mat), nil
}

func drawStones(mat *gocv.Mat, stones []vision.Stone, lineX, lineY func(int) int, radius int, fill, border color.RGBA, boxes bool) {
	for _, s := range stones {
		center := goimage.Pt(lineX(s.Col), lineY(s.Row))
		gocv.Circle(mat, center, radius, fill, -1)
		gocv.Circle(mat, center, radius, border, 1)
		if boxes {
			gocv.Circle(mat, center, radius+2, toRGBA(marker), 1)
		}
	}
}

// starPoints returns the hoshi positions for the standard board sizes.
func starPoints(size int) []geometry.PointInt {
	var edge, mid int
	switch size {
	case 19:
		edge, mid = 4, 10
	case 13:
		edge, mid = 4, 7
	case 9:
		edge, mid = 3, 5
	default:
		return nil
	}

	far := size + 1 - edge
	pts := []geometry.PointInt{
		{X: edge, Y: edge}, {X: far, Y: edge},
		{X: edge, Y: far}, {X: far, Y: far},
		{X: mid, Y: mid},
	}
	if size == 19 {
		pts = append(pts,
			geometry.PointInt{X: mid, Y: edge}, geometry.PointInt{X: mid, Y: far},
			geometry.PointInt{X: edge, Y: mid}, geometry.PointInt{X: far, Y: mid})
	}
	return pts
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func toScalar(c colorful.Color) gocv.Scalar {
	r, g, b := c.RGB255()
	return gocv.NewScalar(float64(b), float64(g), float64(r), 0)
}
