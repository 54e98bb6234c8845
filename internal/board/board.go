// Package board implements the recognition session: one board photograph,
// its parameter record, and the latest recognition result. The session owns
// its pixel buffers and keeps the untouched source image around so geometric
// edits can be undone.
package board

import (
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	gbrimage "github.com/Gikiman/gbr/internal/image"
	"github.com/Gikiman/gbr/internal/params"
	"github.com/Gikiman/gbr/internal/render"
	"github.com/Gikiman/gbr/internal/sgf"
	"github.com/Gikiman/gbr/internal/vision"
	"github.com/Gikiman/gbr/pkg/geometry"
)

// appName tags generated SGF files.
const appName = "gbr"

// Options configures a new session. Zero values pick the defaults.
type Options struct {
	// DefaultBoardSize is used for generated boards and as the fallback
	// when neither the result nor the params carry a size. Defaults to 19.
	DefaultBoardSize int

	// DefaultImageShape is the pixel size of generated boards.
	// Defaults to 500x500.
	DefaultImageShape geometry.SizeInt

	// Detector overrides the OpenCV detection pipeline, mainly for tests.
	Detector vision.Detector
}

// Board is a recognition session.
type Board struct {
	opts Options

	img     *gbrimage.Buffer
	imgFile string

	// srcImg preserves the image as loaded, before any transform or
	// resize, so ResetImage can restore it.
	srcImg     *gbrimage.Buffer
	srcImgFile string

	generated bool
	params    *params.Params
	res       *vision.Result
	detector  vision.Detector
}

// New creates an empty session.
func New(opts Options) *Board {
	if opts.DefaultBoardSize == 0 {
		opts.DefaultBoardSize = 19
	}
	if opts.DefaultImageShape.Width == 0 || opts.DefaultImageShape.Height == 0 {
		opts.DefaultImageShape = geometry.SizeInt{Width: 500, Height: 500}
	}
	det := opts.Detector
	if det == nil {
		det = vision.New()
	}
	return &Board{
		opts:     opts,
		params:   params.Default(),
		detector: det,
	}
}

// NewFromFile creates a session and loads the given image, picking up a
// sibling parameter file and processing immediately.
func NewFromFile(path string, opts Options) (*Board, error) {
	b := New(opts)
	if _, err := b.Load(path, true, true); err != nil {
		return nil, err
	}
	return b, nil
}

// Load reads an image file into the session, replacing any current image and
// discarding the current result. When withParams is set, a sibling parameter
// file is loaded if present; a stored transform is re-applied to the image.
// When autoProcess is set, recognition runs immediately after loading.
// The returned flag reports whether a parameter file was found.
func (b *Board) Load(path string, withParams, autoProcess bool) (bool, error) {
	img, err := gbrimage.Load(path)
	if err != nil {
		return false, err
	}
	b.setImage(img, path)
	log.Printf("loaded image %s (%dx%d)", path, img.Width(), img.Height())

	paramsLoaded := false
	if withParams {
		pp := b.paramsPath()
		if p, err := params.Load(pp); err == nil {
			b.params = p
			paramsLoaded = true
			log.Printf("loaded params %s", pp)
			if p.Transform != nil {
				if err := b.img.FourPointTransform(*p.Transform); err != nil {
					log.Printf("stored transform not applicable: %v", err)
					b.params.ClearTransform()
				}
			}
		}
	}

	if autoProcess {
		if err := b.Process(); err != nil {
			return paramsLoaded, fmt.Errorf("processing %s: %w", path, err)
		}
	}
	return paramsLoaded, nil
}

// LoadBytes decodes raw image bytes into the session. No parameter lookup or
// processing happens; the session has no backing file afterwards.
func (b *Board) LoadBytes(data []byte) error {
	img, err := gbrimage.Decode(data)
	if err != nil {
		return err
	}
	b.setImage(img, "")
	return nil
}

// SetImage installs an image buffer, taking ownership of it. Unlike Load it
// keeps an already-captured source image, so an externally assembled image
// can still be reset to the original photograph.
func (b *Board) SetImage(img *gbrimage.Buffer) error {
	if img.Empty() {
		return fmt.Errorf("cannot install an empty image")
	}
	b.img.Close()
	b.img = img
	if b.srcImg == nil {
		b.srcImg = img.Clone()
		b.srcImgFile = ""
	}
	b.imgFile = ""
	b.generated = false
	b.clearResult()
	return nil
}

func (b *Board) setImage(img *gbrimage.Buffer, path string) {
	b.img.Close()
	b.srcImg.Close()
	b.img = img
	b.srcImg = img.Clone()
	b.imgFile = path
	b.srcImgFile = path
	b.generated = false
	b.clearResult()
}

// Generate replaces the session image with a synthesized board of the given
// pixel shape (zero means the session default). The grid size follows the
// usual board-size resolution. Any current result is drawn onto the board
// first and then discarded, so the generated image shows the last recognized
// position but the session itself holds no result afterwards. Parameters are
// left untouched.
func (b *Board) Generate(shape geometry.SizeInt) error {
	if shape.Width == 0 || shape.Height == 0 {
		shape = b.opts.DefaultImageShape
	}
	img, err := render.Board(shape, b.BoardSize(), render.Options{
		Result:    b.res,
		ShowBlack: true,
		ShowWhite: true,
	})
	if err != nil {
		return err
	}

	b.img.Close()
	b.srcImg.Close()
	b.img = img
	b.srcImg = nil
	b.imgFile = ""
	b.srcImgFile = ""
	b.generated = true
	b.clearResult()
	return nil
}

// Render draws the current result onto a clean synthesized board and returns
// it. The session image is not touched. Fails when there is no result.
func (b *Board) Render(showBlack, showWhite, showBoxes bool) (*gbrimage.Buffer, error) {
	if b.res == nil {
		return nil, fmt.Errorf("no recognition result to render")
	}
	return render.Board(b.opts.DefaultImageShape, b.res.BoardSize, render.Options{
		Result:    b.res,
		ShowBlack: showBlack,
		ShowWhite: showWhite,
		ShowBoxes: showBoxes,
	})
}

// Process runs recognition on the current image and stores the result.
// Generated boards are already exact and are not processed.
func (b *Board) Process() error {
	if b.img.Empty() {
		return fmt.Errorf("no image to process")
	}
	if b.generated {
		b.clearResult()
		return nil
	}

	res, err := b.detector.Process(b.img, b.params)
	if err != nil {
		b.clearResult()
		return err
	}
	b.res = res
	log.Printf("recognized %d black and %d white stones on a %dx%d board",
		len(res.Black), len(res.White), res.BoardSize, res.BoardSize)
	return nil
}

// DetectEdges locates the board rectangle and grid size and stores both as
// parameter overrides. On a generated board detection is meaningless and the
// call is a no-op returning nothing.
func (b *Board) DetectEdges() (*geometry.Rect, int, error) {
	if b.img.Empty() {
		return nil, 0, fmt.Errorf("no image to detect on")
	}
	if b.generated {
		return nil, 0, nil
	}

	rect, size, err := b.detector.DetectBoard(b.img, b.params)
	if err != nil {
		return nil, 0, err
	}
	if err := b.params.SetBoardEdges(*rect); err != nil {
		return nil, 0, err
	}
	if err := b.params.SetBoardSize(size); err != nil {
		return nil, 0, err
	}
	log.Printf("detected board edges %v, size %d", *rect, size)
	return rect, size, nil
}

// Transform applies a four-point perspective correction to the image and
// records the quad in the parameters. A malformed quad is silently ignored,
// leaving image and parameters untouched. The current result is discarded.
func (b *Board) Transform(q geometry.Quad) {
	if b.img.Empty() || b.generated || !q.Valid() {
		return
	}
	if err := b.img.FourPointTransform(q); err != nil {
		log.Printf("transform not applied: %v", err)
		return
	}
	if err := b.params.SetTransform(q); err != nil {
		return
	}
	b.clearResult()
	log.Printf("applied perspective transform, image now %dx%d", b.img.Width(), b.img.Height())
}

// CanResetImage reports whether resetting would change anything: a source
// image exists and the current pixels differ from it.
func (b *Board) CanResetImage() bool {
	if b.srcImg == nil || b.generated {
		return false
	}
	return !b.img.EqualPixels(b.srcImg)
}

// ResetImage restores the source image, dropping any transform, resize and
// derived geometry overrides along with the current result.
func (b *Board) ResetImage() error {
	if !b.CanResetImage() {
		return fmt.Errorf("no source image to reset to")
	}
	b.img.Close()
	b.img = b.srcImg.Clone()
	b.imgFile = b.srcImgFile
	b.params.ClearTransform()
	b.params.ClearBoardEdges()
	b.params.ClearBoardSize()
	b.clearResult()
	return nil
}

// Resize scales the image down so neither dimension exceeds maxSize and
// rescales the current result and geometry overrides to match. Grid positions
// are unaffected. Returns the applied per-axis scale.
func (b *Board) Resize(maxSize int) (geometry.Size, error) {
	if b.img.Empty() {
		return geometry.Size{}, fmt.Errorf("no image to resize")
	}
	scale, err := b.img.ResizeToMax(maxSize)
	if err != nil {
		return geometry.Size{}, err
	}
	b.rescale(scale)
	return scale, nil
}

// ResizeScale scales the image by explicit per-axis factors, rescaling the
// result and geometry overrides to match.
func (b *Board) ResizeScale(sx, sy float64) (geometry.Size, error) {
	if b.img.Empty() {
		return geometry.Size{}, fmt.Errorf("no image to resize")
	}
	scale, err := b.img.ResizeScale(sx, sy)
	if err != nil {
		return geometry.Size{}, err
	}
	b.rescale(scale)
	return scale, nil
}

// rescale adjusts pixel-space state after a resize. Stone radii scale by the
// larger axis factor so a stone never shrinks out of its own hit circle.
func (b *Board) rescale(scale geometry.Size) {
	if scale.Width == 1 && scale.Height == 1 {
		return
	}

	if b.res != nil {
		rScale := math.Max(scale.Width, scale.Height)
		scaleStones(b.res.Black, scale, rScale)
		scaleStones(b.res.White, scale, rScale)
		b.res.Edges = b.res.Edges.Scaled(scale.Width, scale.Height)
		b.res.Spacing = geometry.NewSize(b.res.Spacing.Width*scale.Width, b.res.Spacing.Height*scale.Height)
		b.res.ImageSize = b.img.Shape()
	}

	if b.params.BoardEdges != nil {
		r := b.params.BoardEdges.Scaled(scale.Width, scale.Height)
		b.params.BoardEdges = &r
	}
	if b.params.AreaMask != nil {
		r := b.params.AreaMask.Scaled(scale.Width, scale.Height)
		b.params.AreaMask = &r
	}
}

func scaleStones(stones []vision.Stone, scale geometry.Size, rScale float64) {
	for i := range stones {
		stones[i].X = int(math.Round(float64(stones[i].X) * scale.Width))
		stones[i].Y = int(math.Round(float64(stones[i].Y) * scale.Height))
		stones[i].R = int(math.Round(float64(stones[i].R) * rScale))
	}
}

// FindStoneAt returns the stone whose detection circle covers the pixel, or
// nil. The color filter restricts which lists are searched.
func (b *Board) FindStoneAt(x, y int, color vision.StoneColor) *vision.ColoredStone {
	return b.findStone(color, func(s vision.Stone) bool {
		dx, dy := float64(s.X-x), float64(s.Y-y)
		r := float64(s.R)
		if r < 1 {
			r = 1
		}
		return dx*dx+dy*dy <= r*r
	})
}

// FindStoneByPosition returns the stone at the 1-based grid position, or nil.
func (b *Board) FindStoneByPosition(col, row int, color vision.StoneColor) *vision.ColoredStone {
	return b.findStone(color, func(s vision.Stone) bool {
		return s.Col == col && s.Row == row
	})
}

// FindStoneByLabel returns the stone with the given board label (e.g. "D4"),
// or nil. Labels use consecutive letters with no skips.
func (b *Board) FindStoneByLabel(label string, color vision.StoneColor) *vision.ColoredStone {
	col, row, err := parseLabel(label)
	if err != nil {
		return nil
	}
	return b.FindStoneByPosition(col, row, color)
}

// FindNearby returns the stones within d grid cells of the given position,
// excluding the position itself.
func (b *Board) FindNearby(col, row, d int, color vision.StoneColor) []vision.ColoredStone {
	if d < 1 {
		d = 1
	}
	var out []vision.ColoredStone
	b.eachStone(color, func(s vision.Stone, c vision.StoneColor) {
		if s.Col == col && s.Row == row {
			return
		}
		if abs(s.Col-col) <= d && abs(s.Row-row) <= d {
			out = append(out, vision.ColoredStone{Stone: s, Color: c})
		}
	})
	return out
}

func (b *Board) findStone(color vision.StoneColor, match func(vision.Stone) bool) *vision.ColoredStone {
	var found *vision.ColoredStone
	b.eachStone(color, func(s vision.Stone, c vision.StoneColor) {
		if found == nil && match(s) {
			found = &vision.ColoredStone{Stone: s, Color: c}
		}
	})
	return found
}

func (b *Board) eachStone(color vision.StoneColor, fn func(vision.Stone, vision.StoneColor)) {
	if b.res == nil {
		return
	}
	if color == vision.Any || color == vision.Black {
		for _, s := range b.res.Black {
			fn(s, vision.Black)
		}
	}
	if color == vision.Any || color == vision.White {
		for _, s := range b.res.White {
			fn(s, vision.White)
		}
	}
}

// parseLabel converts a board label like "D4" to 1-based grid coordinates.
func parseLabel(label string) (col, row int, err error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if len(label) < 2 {
		return 0, 0, fmt.Errorf("label %q too short", label)
	}
	c := label[0]
	if c < 'A' || c > 'Z' {
		return 0, 0, fmt.Errorf("label %q has no column letter", label)
	}
	row, err = strconv.Atoi(label[1:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("label %q has no row number", label)
	}
	return int(c-'A') + 1, row, nil
}

// SaveImage writes the current image to a file. When maxSize is positive the
// written copy is scaled down; the session image is untouched.
func (b *Board) SaveImage(path string, maxSize int) error {
	if err := gbrimage.Save(path, b.img, maxSize); err != nil {
		return err
	}
	b.imgFile = path
	log.Printf("saved image %s", path)
	return nil
}

// SaveParams writes the parameter record, backing up any existing file, and
// returns the path written. An empty path means next to the image file; that
// form fails when the session has no backing file.
func (b *Board) SaveParams(path string) (string, error) {
	if path == "" {
		path = b.paramsPath()
	}
	if path == "" {
		return "", fmt.Errorf("no image file to store params with")
	}
	if err := b.params.Save(path, true); err != nil {
		return "", err
	}
	log.Printf("saved params %s", path)
	return path, nil
}

// LoadParams reads a parameter record; an empty path means the file stored
// next to the image.
func (b *Board) LoadParams(path string) error {
	if path == "" {
		path = b.paramsPath()
	}
	if path == "" {
		return fmt.Errorf("no image file to load params from")
	}
	p, err := params.Load(path)
	if err != nil {
		return err
	}
	b.params = p
	return nil
}

// SaveSGF writes the current result as an SGF record.
func (b *Board) SaveSGF(path string) error {
	if b.res == nil {
		return fmt.Errorf("no recognition result to save")
	}
	if err := sgf.Save(path, b.res, appName); err != nil {
		return err
	}
	log.Printf("saved SGF %s", path)
	return nil
}

// paramsPath returns the sibling parameter file path, or "" for a session
// without a backing file.
func (b *Board) paramsPath() string {
	if b.imgFile == "" {
		return ""
	}
	ext := filepath.Ext(b.imgFile)
	return strings.TrimSuffix(b.imgFile, ext) + params.FileExt
}

func (b *Board) clearResult() {
	if b.res != nil {
		for _, d := range b.res.DebugImages {
			d.Close()
		}
	}
	b.res = nil
}

// Close releases the session's pixel buffers.
func (b *Board) Close() {
	b.img.Close()
	b.srcImg.Close()
	b.img = nil
	b.srcImg = nil
	b.clearResult()
}

// Params returns the session's parameter record. Callers mutate it in place.
func (b *Board) Params() *params.Params { return b.params }

// SetParams merges the given record into the session's parameters and drops
// the current result. Geometry keys unset in p keep their current values.
func (b *Board) SetParams(p *params.Params) error {
	if p == nil {
		return fmt.Errorf("nil params")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	b.params.Merge(p)
	b.clearResult()
	return nil
}

// AreaMask returns the analysis-region override, nil when unset.
func (b *Board) AreaMask() *geometry.Rect { return b.params.AreaMask }

// SetAreaMask sets the analysis-region override.
func (b *Board) SetAreaMask(r geometry.Rect) error { return b.params.SetAreaMask(r) }

// BoardEdgesParam returns the board-edges override, nil when unset.
func (b *Board) BoardEdgesParam() *geometry.Rect { return b.params.BoardEdges }

// SetBoardEdgesParam sets the board-edges override.
func (b *Board) SetBoardEdgesParam(r geometry.Rect) error { return b.params.SetBoardEdges(r) }

// BoardSizeParam returns the board-size override, nil when unset.
func (b *Board) BoardSizeParam() *int { return b.params.BoardSize }

// SetBoardSizeParam sets the board-size override.
func (b *Board) SetBoardSizeParam(size int) error { return b.params.SetBoardSize(size) }

// TransformRect returns the recorded perspective quad, nil when unset.
func (b *Board) TransformRect() *geometry.Quad { return b.params.Transform }

// Result returns the latest recognition result, nil when none.
func (b *Board) Result() *vision.Result { return b.res }

// Image returns the current image buffer, nil when none is loaded.
func (b *Board) Image() *gbrimage.Buffer { return b.img }

// SourceImage returns the untouched source image, nil for generated boards.
func (b *Board) SourceImage() *gbrimage.Buffer { return b.srcImg }

// ImageFile returns the backing file path, "" when none.
func (b *Board) ImageFile() string { return b.imgFile }

// IsGenerated reports whether the current image is a synthesized board.
func (b *Board) IsGenerated() bool { return b.generated }

// BlackStones returns the black stones of the current result.
func (b *Board) BlackStones() []vision.Stone {
	if b.res == nil {
		return nil
	}
	return b.res.Black
}

// WhiteStones returns the white stones of the current result.
func (b *Board) WhiteStones() []vision.Stone {
	if b.res == nil {
		return nil
	}
	return b.res.White
}

// Stones returns the stones of one color, or both lists concatenated (black
// first) for Any.
func (b *Board) Stones(color vision.StoneColor) []vision.Stone {
	switch color {
	case vision.Black:
		return b.BlackStones()
	case vision.White:
		return b.WhiteStones()
	default:
		if b.res == nil {
			return nil
		}
		out := make([]vision.Stone, 0, len(b.res.Black)+len(b.res.White))
		out = append(out, b.res.Black...)
		return append(out, b.res.White...)
	}
}

// AllStones returns every stone of the current result tagged with its color,
// black first.
func (b *Board) AllStones() []vision.ColoredStone {
	var out []vision.ColoredStone
	b.eachStone(vision.Any, func(s vision.Stone, c vision.StoneColor) {
		out = append(out, vision.ColoredStone{Stone: s, Color: c})
	})
	return out
}

// DebugImages returns the intermediate pipeline images of the last run.
func (b *Board) DebugImages() map[string]*gbrimage.Buffer {
	if b.res == nil {
		return nil
	}
	return b.res.DebugImages
}

// DebugInfo summarizes the last result's scalar outputs for display.
// Spacing is rounded to two decimals.
func (b *Board) DebugInfo() map[string]any {
	if b.res == nil {
		return nil
	}
	return map[string]any{
		"edges":      b.res.Edges,
		"spacing":    geometry.NewSize(round2(b.res.Spacing.Width), round2(b.res.Spacing.Height)),
		"cross_cols": b.res.CrossCols,
		"cross_rows": b.res.CrossRows,
		"board_size": b.res.BoardSize,
		"image_size": b.res.ImageSize,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BoardSize resolves the effective board size: the result's, else the
// parameter override, else the session default.
func (b *Board) BoardSize() int {
	if b.res != nil {
		return b.res.BoardSize
	}
	if b.params.BoardSize != nil {
		return *b.params.BoardSize
	}
	return b.opts.DefaultBoardSize
}

// BoardEdges resolves the effective board rectangle: the result's, else the
// parameter override, nil when unknown.
func (b *Board) BoardEdges() *geometry.Rect {
	if b.res != nil {
		r := b.res.Edges
		return &r
	}
	return b.params.BoardEdges
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
