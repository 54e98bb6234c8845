// Command gbr is the Go board recognition desktop application: load a board
// photograph, recognize the position, adjust the analysis region, and export
// the result as SGF.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Gikiman/gbr/internal/board"
	"github.com/Gikiman/gbr/internal/mask"
	"github.com/Gikiman/gbr/internal/version"
	"github.com/Gikiman/gbr/pkg/geometry"
	"github.com/Gikiman/gbr/ui/boardcanvas"
	"github.com/Gikiman/gbr/ui/prefs"
)

const (
	appTitle = "Go Board Recognition"

	// defaultDisplayMax bounds the on-screen image; recognition always runs
	// on the full-resolution buffer.
	defaultDisplayMax = 800

	maskMinDist   = 10
	maskTolerance = 3
)

type gbrUI struct {
	win    fyne.Window
	board  *board.Board
	canvas *boardcanvas.BoardCanvas
	mask   *mask.Mask
	status *widget.Label
	prefs  *prefs.Prefs

	displayMax int

	// displayScale maps display coordinates back to image coordinates.
	displayScale geometry.Size
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.String())

	a := fyneapp.New()
	win := a.NewWindow(appTitle)

	p := prefs.Load()
	displayMax := p.DisplayMax
	if displayMax <= 0 {
		displayMax = defaultDisplayMax
	}

	ui := &gbrUI{
		win:        win,
		board:      board.New(board.Options{}),
		canvas:     boardcanvas.New(),
		status:     widget.NewLabel("Open a board image to begin"),
		prefs:      p,
		displayMax: displayMax,
	}
	ui.canvas.OnMaskChanged = ui.maskChanged

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), ui.openImage),
		widget.NewToolbarAction(theme.MediaPlayIcon(), ui.process),
		widget.NewToolbarAction(theme.SearchIcon(), ui.detectEdges),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), ui.resetImage),
		widget.NewToolbarAction(theme.GridIcon(), ui.generateBoard),
		widget.NewToolbarAction(theme.VisibilityIcon(), ui.toggleMask),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), ui.saveParams),
		widget.NewToolbarAction(theme.FileTextIcon(), ui.saveSGF),
	)

	win.SetContent(container.NewBorder(toolbar, ui.status, nil, nil, ui.canvas))
	win.Resize(fyne.NewSize(860, 920))

	win.SetOnClosed(func() {
		if err := ui.prefs.Save(); err != nil {
			log.Printf("failed to save preferences: %v", err)
		}
	})

	if len(os.Args) > 1 {
		ui.loadFile(os.Args[1])
	}

	win.ShowAndRun()
}

func (u *gbrUI) openImage() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		u.loadFile(rc.URI().Path())
	}, u.win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".tiff", ".webp", ".bmp"}))
	if u.prefs.LastDir != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(u.prefs.LastDir)); err == nil {
			fd.SetLocation(lister)
		}
	}
	fd.Show()
}

func (u *gbrUI) loadFile(path string) {
	if _, err := u.board.Load(path, true, true); err != nil {
		u.fail(err)
		return
	}
	u.prefs.LastDir = filepath.Dir(path)
	u.rebuildMask()
	if u.mask != nil && u.prefs.ShowMask {
		u.mask.Show()
	}
	u.refresh()
}

func (u *gbrUI) process() {
	if err := u.board.Process(); err != nil {
		u.fail(err)
		return
	}
	u.refresh()
}

func (u *gbrUI) detectEdges() {
	rect, size, err := u.board.DetectEdges()
	if err != nil {
		u.fail(err)
		return
	}
	if rect != nil {
		u.setStatus(fmt.Sprintf("Board edges %.0f,%.0f - %.0f,%.0f, size %d",
			rect.X, rect.Y, rect.Right(), rect.Bottom(), size))
	}
	u.refresh()
}

func (u *gbrUI) resetImage() {
	if !u.board.CanResetImage() {
		return
	}
	if err := u.board.ResetImage(); err != nil {
		u.fail(err)
		return
	}
	u.rebuildMask()
	u.refresh()
}

func (u *gbrUI) generateBoard() {
	if err := u.board.Generate(geometry.SizeInt{}); err != nil {
		u.fail(err)
		return
	}
	u.rebuildMask()
	u.refresh()
}

func (u *gbrUI) toggleMask() {
	if u.mask == nil {
		return
	}
	if u.mask.Visible() {
		u.mask.Hide()
	} else {
		u.mask.Show()
	}
	u.prefs.ShowMask = u.mask.Visible()
}

// maskChanged stores the final mask bounds as the analysis region, converted
// from display to image coordinates.
func (u *gbrUI) maskChanged(r geometry.Rect) {
	area := r.Scaled(u.displayScale.Width, u.displayScale.Height)
	if err := u.board.SetAreaMask(area); err != nil {
		u.fail(err)
		return
	}
	u.setStatus(fmt.Sprintf("Analysis region %.0f,%.0f - %.0f,%.0f",
		area.X, area.Y, area.Right(), area.Bottom()))
}

func (u *gbrUI) saveParams() {
	if _, err := u.board.SaveParams(""); err != nil {
		u.fail(err)
		return
	}
	u.setStatus("Parameters saved")
}

func (u *gbrUI) saveSGF() {
	if u.board.Result() == nil {
		u.fail(fmt.Errorf("process an image before exporting SGF"))
		return
	}
	fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		path := wc.URI().Path()
		wc.Close()
		if err := u.board.SaveSGF(path); err != nil {
			u.fail(err)
			return
		}
		u.setStatus("SGF saved to " + path)
	}, u.win)
	fd.SetFileName("board.sgf")
	fd.Show()
}

// rebuildMask recreates the mask for the current display size. The previous
// mask, if any, is discarded along with its state.
func (u *gbrUI) rebuildMask() {
	img := u.board.Image()
	if img.Empty() {
		u.mask = nil
		u.canvas.AttachMask(nil)
		return
	}

	disp, err := img.Display(u.displayMax)
	if err != nil {
		u.fail(err)
		return
	}
	shape := geometry.SizeInt{Width: disp.Bounds().Dx(), Height: disp.Bounds().Dy()}
	u.displayScale = geometry.NewSize(
		float64(img.Width())/float64(shape.Width),
		float64(img.Height())/float64(shape.Height),
	)

	u.mask = mask.New(shape, maskMinDist, maskTolerance, u.canvas)
	u.canvas.AttachMask(u.mask)

	// Restore a stored analysis region in display coordinates.
	if am := u.board.AreaMask(); am != nil {
		u.mask.SetBounds(am.Scaled(1/u.displayScale.Width, 1/u.displayScale.Height))
	}
}

func (u *gbrUI) refresh() {
	img := u.board.Image()
	if img.Empty() {
		u.canvas.SetImage(nil)
		return
	}
	disp, err := img.Display(u.displayMax)
	if err != nil {
		u.fail(err)
		return
	}
	u.canvas.SetImage(disp)

	if res := u.board.Result(); res != nil {
		u.setStatus(fmt.Sprintf("%dx%d board: %d black, %d white",
			res.BoardSize, res.BoardSize, len(res.Black), len(res.White)))
	} else if u.board.IsGenerated() {
		u.setStatus(fmt.Sprintf("Generated %dx%d board", u.board.BoardSize(), u.board.BoardSize()))
	}
}

func (u *gbrUI) setStatus(text string) {
	u.status.SetText(text)
}

func (u *gbrUI) fail(err error) {
	log.Printf("error: %v", err)
	dialog.ShowError(err, u.win)
}
