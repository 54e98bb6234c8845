// Package boardcanvas provides the fyne widget showing a board image with
// the analysis-region mask drawn over it. The widget renders through a
// raster callback and feeds pointer events to the mask state machine.
package boardcanvas

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/Gikiman/gbr/internal/mask"
	"github.com/Gikiman/gbr/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

var (
	shadeColor   = color.RGBA{R: 0, G: 0, B: 0, A: 96}
	outlineColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}
)

// BoardCanvas displays a board image and hosts the draggable analysis mask.
// It implements mask.Renderer, so the mask pushes its geometry here and the
// widget draws it during the next raster pass.
type BoardCanvas struct {
	widget.BaseWidget

	img    image.Image
	raster *fynecanvas.Raster

	mask    *mask.Mask
	shaded  []geometry.Rect
	outline *geometry.Rect

	// OnMaskChanged fires when a drag ends, with the final mask bounds.
	OnMaskChanged func(geometry.Rect)
}

// New creates an empty board canvas.
func New() *BoardCanvas {
	bc := &BoardCanvas{}
	bc.raster = fynecanvas.NewRaster(bc.draw)
	bc.raster.ScaleMode = fynecanvas.ImageScalePixels
	bc.raster.SetMinSize(fyne.NewSize(500, 500))
	bc.ExtendBaseWidget(bc)
	return bc
}

// SetImage replaces the displayed image. Pass nil to clear.
func (bc *BoardCanvas) SetImage(img image.Image) {
	bc.img = img
	if img != nil {
		b := img.Bounds()
		bc.raster.SetMinSize(fyne.NewSize(float32(b.Dx()), float32(b.Dy())))
	}
	bc.Refresh()
}

// Image returns the displayed image, nil when none.
func (bc *BoardCanvas) Image() image.Image {
	return bc.img
}

// AttachMask hooks a mask up to this canvas. The canvas becomes the mask's
// renderer and routes its pointer events to it.
func (bc *BoardCanvas) AttachMask(m *mask.Mask) {
	bc.mask = m
}

// DrawMask implements mask.Renderer.
func (bc *BoardCanvas) DrawMask(outside []geometry.Rect, outline geometry.Rect) {
	bc.shaded = outside
	bc.outline = &outline
	bc.Refresh()
}

// ClearMask implements mask.Renderer.
func (bc *BoardCanvas) ClearMask() {
	bc.shaded = nil
	bc.outline = nil
	bc.Refresh()
}

// Dragged feeds drag positions to the mask.
func (bc *BoardCanvas) Dragged(ev *fyne.DragEvent) {
	if bc.mask == nil {
		return
	}
	bc.mask.Drag(float64(ev.Position.X), float64(ev.Position.Y))
}

// DragEnd releases any latched mask edge and reports the final bounds.
func (bc *BoardCanvas) DragEnd() {
	if bc.mask == nil {
		return
	}
	dragged := bc.mask.Dragging()
	bc.mask.EndDrag()
	if dragged && bc.OnMaskChanged != nil {
		bc.OnMaskChanged(bc.mask.Bounds())
	}
}

// MouseMoved updates the mask's hover edge so the cursor can hint at
// draggability.
func (bc *BoardCanvas) MouseMoved(ev *desktop.MouseEvent) {
	if bc.mask == nil {
		return
	}
	bc.mask.PointerMove(float64(ev.Position.X), float64(ev.Position.Y))
}

// MouseIn implements desktop.Hoverable.
func (bc *BoardCanvas) MouseIn(*desktop.MouseEvent) {}

// MouseOut implements desktop.Hoverable.
func (bc *BoardCanvas) MouseOut() {
	if bc.mask != nil {
		bc.mask.PointerMove(-1, -1)
	}
}

// Cursor shows a resize cursor while hovering a draggable edge.
func (bc *BoardCanvas) Cursor() desktop.Cursor {
	if bc.mask == nil {
		return desktop.DefaultCursor
	}
	switch bc.mask.HoverEdge() {
	case mask.EdgeLeft, mask.EdgeRight:
		return desktop.HResizeCursor
	case mask.EdgeTop, mask.EdgeBottom:
		return desktop.VResizeCursor
	default:
		return desktop.DefaultCursor
	}
}

// Refresh redraws the raster.
func (bc *BoardCanvas) Refresh() {
	if bc.raster != nil {
		bc.raster.Refresh()
	}
	bc.BaseWidget.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (bc *BoardCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(bc.raster)
}

// draw is the raster drawing callback.
func (bc *BoardCanvas) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	if bc.img != nil {
		draw.Draw(out, bc.img.Bounds(), bc.img, bc.img.Bounds().Min, draw.Src)
	}

	for _, r := range bc.shaded {
		shadeRect(out, toImageRect(r))
	}
	if bc.outline != nil {
		strokeRect(out, toImageRect(*bc.outline))
	}
	return out
}

// shadeRect darkens the region by alpha-blending the shade color over it.
func shadeRect(out *image.RGBA, r image.Rectangle) {
	draw.Draw(out, r.Intersect(out.Bounds()), image.NewUniform(shadeColor), image.Point{}, draw.Over)
}

// strokeRect draws a one-pixel rectangle outline.
func strokeRect(out *image.RGBA, r image.Rectangle) {
	r = r.Intersect(out.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		out.SetRGBA(x, r.Min.Y, outlineColor)
		out.SetRGBA(x, r.Max.Y-1, outlineColor)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		out.SetRGBA(r.Min.X, y, outlineColor)
		out.SetRGBA(r.Max.X-1, y, outlineColor)
	}
}

func toImageRect(r geometry.Rect) image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.Right()), int(r.Bottom()))
}
