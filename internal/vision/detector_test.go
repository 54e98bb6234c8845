package vision

import (
	goimage "image"
	"image/color"
	"testing"

	gbrimage "github.com/Gikiman/gbr/internal/image"
	"github.com/Gikiman/gbr/internal/params"
	"github.com/Gikiman/gbr/pkg/geometry"

	"gocv.io/x/gocv"
)

// TestProcess_ClassifiesStoneColors runs the full circle pipeline on a
// synthetic board: one dark and one light disc on a mid-gray field, with the
// grid geometry supplied as overrides. Each color must come out of its own
// detection pass.
func TestProcess_ClassifiesStoneColors(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(180, 180, 180, 0), 420, 420, gocv.MatTypeCV8UC3)
	// 9x9 grid, spacing 40: grid point (3,3) is at (120,120), (7,7) at (280,280).
	gocv.Circle(&mat, goimage.Pt(120, 120), 14, color.RGBA{R: 15, G: 15, B: 15, A: 255}, -1)
	gocv.Circle(&mat, goimage.Pt(280, 280), 14, color.RGBA{R: 250, G: 250, B: 250, A: 255}, -1)
	buf := gbrimage.NewBuffer(mat)
	defer buf.Close()

	p := params.Default()
	if err := p.SetBoardEdges(geometry.NewRect(40, 40, 320, 320)); err != nil {
		t.Fatal(err)
	}
	if err := p.SetBoardSize(9); err != nil {
		t.Fatal(err)
	}

	res, err := New().Process(buf, p)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(res.Black) != 1 || res.Black[0].Col != 3 || res.Black[0].Row != 3 {
		t.Errorf("black stones = %+v, want one at (3,3)", res.Black)
	}
	if len(res.White) != 1 || res.White[0].Col != 7 || res.White[0].Row != 7 {
		t.Errorf("white stones = %+v, want one at (7,7)", res.White)
	}
}

func TestStoneLabel(t *testing.T) {
	cases := []struct {
		stone Stone
		want  string
	}{
		{Stone{Col: 1, Row: 1}, "A1"},
		{Stone{Col: 4, Row: 4}, "D4"},
		{Stone{Col: 9, Row: 10}, "I10"}, // no skipped letters
		{Stone{Col: 19, Row: 19}, "S19"},
	}
	for _, c := range cases {
		if got := c.stone.Label(); got != c.want {
			t.Errorf("Label(%d,%d) = %q, want %q", c.stone.Col, c.stone.Row, got, c.want)
		}
	}
}

func TestGridIndex(t *testing.T) {
	// origin 100, spacing 20, size 19
	if got := gridIndex(100, 100, 20, 19); got != 1 {
		t.Errorf("gridIndex at origin = %d, want 1", got)
	}
	if got := gridIndex(141, 100, 20, 19); got != 3 {
		t.Errorf("gridIndex near third line = %d, want 3", got)
	}
	if got := gridIndex(130, 100, 20, 19); got != 0 {
		t.Errorf("gridIndex mid-cell = %d, want 0 (rejected)", got)
	}
	if got := gridIndex(70, 100, 20, 19); got != 0 {
		t.Errorf("gridIndex before origin = %d, want 0", got)
	}
	if got := gridIndex(100+18*20, 100, 20, 19); got != 19 {
		t.Errorf("gridIndex at last line = %d, want 19", got)
	}
	if got := gridIndex(100+19*20, 100, 20, 19); got != 0 {
		t.Errorf("gridIndex past last line = %d, want 0", got)
	}
}

func TestClusterPositions(t *testing.T) {
	got := clusterPositions([]int{10, 11, 12, 50, 52, 99}, 4)
	if len(got) != 3 {
		t.Fatalf("clusters = %v, want 3 entries", got)
	}
	if got[0] != 11 || got[1] != 51 || got[2] != 99 {
		t.Errorf("cluster centers = %v", got)
	}
}

func TestSnapSize(t *testing.T) {
	cases := map[int]int{8: 9, 10: 9, 12: 13, 14: 13, 18: 19, 21: 19}
	for detected, want := range cases {
		if got := snapSize(detected, detected); got != want {
			t.Errorf("snapSize(%d) = %d, want %d", detected, got, want)
		}
	}
}

func TestStoneColorString(t *testing.T) {
	if Black.String() != "B" || White.String() != "W" || Any.String() != "" {
		t.Error("StoneColor strings wrong")
	}
}
