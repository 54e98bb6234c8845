// Command recognize runs board recognition on an image without the GUI and
// prints or exports the detected position.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Gikiman/gbr/internal/board"
	gbrimage "github.com/Gikiman/gbr/internal/image"
	"github.com/Gikiman/gbr/internal/params"
	"github.com/Gikiman/gbr/internal/vision"
)

func main() {
	imagePath := flag.String("image", "", "Path to the board image")
	paramsPath := flag.String("params", "", "Parameter file (default: sibling .gpar of the image)")
	sgfOut := flag.String("sgf", "", "Write the recognized position to this SGF file")
	imgOut := flag.String("render", "", "Write a rendered board image to this file")
	detect := flag.Bool("detect-edges", false, "Run edge detection and store the result as overrides before processing")
	saveParams := flag.Bool("save-params", false, "Store the effective parameters next to the image")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: recognize -image <path> [-params <file>] [-sgf <file>] [-render <file>] [-save-params]")
		os.Exit(1)
	}

	b := board.New(board.Options{})
	defer b.Close()

	// Explicit params replace the sibling lookup.
	withSibling := *paramsPath == ""
	if _, err := b.Load(*imagePath, withSibling, false); err != nil {
		fail("Failed to load image: %v", err)
	}
	if *paramsPath != "" {
		p, err := params.Load(*paramsPath)
		if err != nil {
			fail("Failed to load params: %v", err)
		}
		if err := b.SetParams(p); err != nil {
			fail("Invalid params: %v", err)
		}
	}

	img := b.Image()
	fmt.Printf("Loaded %s: %dx%d pixels\n", *imagePath, img.Width(), img.Height())

	if *detect {
		rect, size, err := b.DetectEdges()
		if err != nil {
			fail("Edge detection failed: %v", err)
		}
		fmt.Printf("Detected edges %.0f,%.0f - %.0f,%.0f, board size %d\n",
			rect.X, rect.Y, rect.Right(), rect.Bottom(), size)
	}

	if err := b.Process(); err != nil {
		fail("Recognition failed: %v", err)
	}
	res := b.Result()

	fmt.Printf("\nBoard: %dx%d, edges %.0f,%.0f - %.0f,%.0f, spacing %.1fx%.1f\n",
		res.BoardSize, res.BoardSize,
		res.Edges.X, res.Edges.Y, res.Edges.Right(), res.Edges.Bottom(),
		res.Spacing.Width, res.Spacing.Height)
	fmt.Printf("Stones: %d black, %d white\n\n", len(res.Black), len(res.White))

	printStones("Black", res.Black)
	printStones("White", res.White)

	if *sgfOut != "" {
		if err := b.SaveSGF(*sgfOut); err != nil {
			fail("Failed to write SGF: %v", err)
		}
		fmt.Printf("\nSGF written to %s\n", *sgfOut)
	}

	if *imgOut != "" {
		rendered, err := b.Render(true, true, false)
		if err != nil {
			fail("Failed to render board: %v", err)
		}
		defer rendered.Close()
		if err := gbrimage.Save(*imgOut, rendered, 0); err != nil {
			fail("Failed to write rendered image: %v", err)
		}
		fmt.Printf("Rendered board written to %s\n", *imgOut)
	}

	if *saveParams {
		path, err := b.SaveParams("")
		if err != nil {
			fail("Failed to save params: %v", err)
		}
		fmt.Printf("Parameters written to %s\n", path)
	}
}

func printStones(name string, stones []vision.Stone) {
	if len(stones) == 0 {
		return
	}
	fmt.Printf("%s:\n", name)
	for _, s := range stones {
		fmt.Printf("  %-4s at (%d, %d) r=%d\n", s.Label(), s.X, s.Y, s.R)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
