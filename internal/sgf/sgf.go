// Package sgf writes recognition results as SGF game records. The writer
// emits a minimal FF[4] tree: one header node followed by alternating move
// nodes, black first, which most SGF editors accept as a position record.
package sgf

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Gikiman/gbr/internal/vision"
)

// maxCoord is the largest grid index expressible in SGF point notation.
const maxCoord = 26

// Encode writes the result as an SGF record to w.
func Encode(w io.Writer, res *vision.Result, appName string) error {
	if res == nil {
		return fmt.Errorf("no result to encode")
	}
	if res.BoardSize < 2 || res.BoardSize > maxCoord {
		return fmt.Errorf("board size %d not representable in SGF", res.BoardSize)
	}

	var sb strings.Builder
	sb.WriteString("(;FF[4]GM[1]")
	fmt.Fprintf(&sb, "SZ[%d]", res.BoardSize)
	if appName != "" {
		fmt.Fprintf(&sb, "AP[%s]", appName)
	}
	sb.WriteString("\n")

	// Alternate colors while both lists last, then flush the remainder.
	black, white := res.Black, res.White
	for len(black) > 0 || len(white) > 0 {
		if len(black) > 0 {
			writeMove(&sb, "B", black[0])
			black = black[1:]
		}
		if len(white) > 0 {
			writeMove(&sb, "W", white[0])
			white = white[1:]
		}
	}

	sb.WriteString(")\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// Save encodes the result to the named file.
func Save(path string, res *vision.Result, appName string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating SGF file: %w", err)
	}
	defer f.Close()

	if err := Encode(f, res, appName); err != nil {
		return err
	}
	return f.Close()
}

// writeMove emits one move node. Grid positions are 1-based internally and
// zero-based letters on the wire.
func writeMove(sb *strings.Builder, color string, s vision.Stone) {
	fmt.Fprintf(sb, ";%s[%c%c]", color, 'a'+s.Col-1, 'a'+s.Row-1)
}
