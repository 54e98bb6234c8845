package image

import (
	"fmt"
	goimage "image"
	"math"

	"github.com/Gikiman/gbr/pkg/geometry"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// ResizeToMax scales the buffer proportionally so that its larger dimension
// equals maxSize, and returns the per-axis scale factors applied. A buffer
// already within the limit is left untouched (scale 1,1).
func (b *Buffer) ResizeToMax(maxSize int) (geometry.Size, error) {
	if b.Empty() {
		return geometry.Size{}, fmt.Errorf("cannot resize an empty image buffer")
	}
	if maxSize <= 0 {
		return geometry.Size{}, fmt.Errorf("max size %d must be positive", maxSize)
	}

	w, h := b.Width(), b.Height()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxSize {
		return geometry.NewSize(1, 1), nil
	}

	scale := float64(maxSize) / float64(longest)
	return b.ResizeScale(scale, scale)
}

// ResizeScale rescales the buffer by independent per-axis factors and
// returns the factors actually applied (after rounding to whole pixels).
func (b *Buffer) ResizeScale(sx, sy float64) (geometry.Size, error) {
	if b.Empty() {
		return geometry.Size{}, fmt.Errorf("cannot resize an empty image buffer")
	}
	if sx <= 0 || sy <= 0 {
		return geometry.Size{}, fmt.Errorf("scale factors (%v, %v) must be positive", sx, sy)
	}

	w, h := b.Width(), b.Height()
	nw := int(math.Round(float64(w) * sx))
	nh := int(math.Round(float64(h) * sy))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := gocv.NewMat()
	gocv.Resize(b.mat, &dst, goimage.Point{X: nw, Y: nh}, 0, 0, gocv.InterpolationLinear)
	b.replace(dst)

	return geometry.NewSize(float64(nw)/float64(w), float64(nh)/float64(h)), nil
}

// FourPointTransform warps the quadrilateral region described by q onto an
// axis-aligned rectangle sized from the quad's edge lengths, replacing the
// buffer contents. The corner order of q is normalized first, so callers may
// pass corners in any order.
func (b *Buffer) FourPointTransform(q geometry.Quad) error {
	if b.Empty() {
		return fmt.Errorf("cannot transform an empty image buffer")
	}
	if !q.Valid() {
		return fmt.Errorf("transform quad is degenerate")
	}

	tl, tr, br, bl := orderQuad(q)

	widthTop := tl.Distance(tr)
	widthBottom := bl.Distance(br)
	heightLeft := tl.Distance(bl)
	heightRight := tr.Distance(br)

	w := int(math.Round(math.Max(widthTop, widthBottom)))
	h := int(math.Round(math.Max(heightLeft, heightRight)))
	if w < 2 || h < 2 {
		return fmt.Errorf("transform quad collapses to %dx%d", w, h)
	}

	src := [4]geometry.Point2D{tl, tr, br, bl}
	dst := [4]geometry.Point2D{
		{X: 0, Y: 0},
		{X: float64(w - 1), Y: 0},
		{X: float64(w - 1), Y: float64(h - 1)},
		{X: 0, Y: float64(h - 1)},
	}

	homography, err := solveHomography(src, dst)
	if err != nil {
		return fmt.Errorf("transform quad is degenerate: %w", err)
	}

	transformMat := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer transformMat.Close()
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			transformMat.SetDoubleAt(row, col, homography[row*3+col])
		}
	}

	warped := gocv.NewMat()
	gocv.WarpPerspective(b.mat, &warped, transformMat, goimage.Point{X: w, Y: h})
	b.replace(warped)
	return nil
}

// solveHomography computes the 3x3 projective transform mapping the four
// source points onto the four destination points. The eight unknowns are
// solved as a dense linear system; h22 is fixed at 1.
func solveHomography(src, dst [4]geometry.Point2D) ([9]float64, error) {
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		// u = (h0*x + h1*y + h2) / (h6*x + h7*y + 1)
		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -u*x)
		A.Set(i*2, 7, -u*y)
		B.SetVec(i*2, u)

		// v = (h3*x + h4*y + h5) / (h6*x + h7*y + 1)
		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -v*x)
		A.Set(i*2+1, 7, -v*y)
		B.SetVec(i*2+1, v)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return [9]float64{}, err
	}

	var h [9]float64
	for i := 0; i < 8; i++ {
		h[i] = params.AtVec(i)
	}
	h[8] = 1
	return h, nil
}

// orderQuad sorts the quad corners into top-left, top-right, bottom-right,
// bottom-left order. The top-left corner has the smallest coordinate sum and
// the bottom-right the largest; the remaining two are told apart by the
// x-y difference.
func orderQuad(q geometry.Quad) (tl, tr, br, bl geometry.Point2D) {
	tl, tr, br, bl = q[0], q[0], q[0], q[0]
	minSum := math.Inf(1)
	maxSum := math.Inf(-1)
	minDiff := math.Inf(1)
	maxDiff := math.Inf(-1)

	for _, p := range q {
		sum := p.X + p.Y
		diff := p.X - p.Y
		if sum < minSum {
			minSum = sum
			tl = p
		}
		if sum > maxSum {
			maxSum = sum
			br = p
		}
		if diff > maxDiff {
			maxDiff = diff
			tr = p
		}
		if diff < minDiff {
			minDiff = diff
			bl = p
		}
	}
	return tl, tr, br, bl
}
