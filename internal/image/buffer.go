// Package image provides the owned pixel buffer used by the recognition
// session, conversions between the raw OpenCV representation and
// display-ready Go images, and the geometric operations (resize, perspective
// transform) applied to board photographs.
package image

import (
	"fmt"
	goimage "image"

	"github.com/Gikiman/gbr/pkg/geometry"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// Buffer is an exclusively owned image buffer backed by a gocv.Mat.
// A Buffer is never shared between two sessions; use Clone to hand a copy
// across an ownership boundary and Close to release the pixels.
type Buffer struct {
	mat gocv.Mat
}

// NewBuffer wraps a Mat, taking ownership of it.
func NewBuffer(mat gocv.Mat) *Buffer {
	return &Buffer{mat: mat}
}

// Mat exposes the underlying matrix for detection and drawing code.
// Callers must not Close it; the Buffer retains ownership.
func (b *Buffer) Mat() gocv.Mat {
	return b.mat
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	return &Buffer{mat: b.mat.Clone()}
}

// Close releases the underlying pixels. Safe on a zero or closed buffer.
func (b *Buffer) Close() {
	if b == nil || b.mat.Ptr() == nil {
		return
	}
	b.mat.Close()
}

// Empty reports whether the buffer holds no pixels.
func (b *Buffer) Empty() bool {
	return b == nil || b.mat.Empty()
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int {
	if b == nil {
		return 0
	}
	return b.mat.Cols()
}

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int {
	if b == nil {
		return 0
	}
	return b.mat.Rows()
}

// Shape returns the buffer dimensions.
func (b *Buffer) Shape() geometry.SizeInt {
	return geometry.SizeInt{Width: b.Width(), Height: b.Height()}
}

// replace swaps in a new matrix, closing the old one.
func (b *Buffer) replace(mat gocv.Mat) {
	old := b.mat
	b.mat = mat
	if old.Ptr() != nil {
		old.Close()
	}
}

// EqualPixels reports whether two buffers are pixel-for-pixel identical.
// Buffers of different shape or type always differ.
func (b *Buffer) EqualPixels(other *Buffer) bool {
	if b.Empty() || other.Empty() {
		return b.Empty() && other.Empty()
	}
	if b.Width() != other.Width() || b.Height() != other.Height() ||
		b.mat.Type() != other.mat.Type() {
		return false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(b.mat, other.mat, &diff)

	if diff.Channels() > 1 {
		gray := gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray)
		return gocv.CountNonZero(gray) == 0
	}
	return gocv.CountNonZero(diff) == 0
}

// ToImage converts the buffer to a Go image for display or encoding.
func (b *Buffer) ToImage() (goimage.Image, error) {
	if b.Empty() {
		return nil, fmt.Errorf("empty image buffer")
	}
	img, err := b.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert buffer to image: %w", err)
	}
	return img, nil
}

// Display returns a display-ready image, proportionally scaled down so that
// neither dimension exceeds maxSize (0 means no limit).
func (b *Buffer) Display(maxSize int) (goimage.Image, error) {
	img, err := b.ToImage()
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && (b.Width() > maxSize || b.Height() > maxSize) {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}
	return img, nil
}

// FromImage converts a Go image into a new buffer.
func FromImage(img goimage.Image) (*Buffer, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to buffer: %w", err)
	}
	return &Buffer{mat: mat}, nil
}
