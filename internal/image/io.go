package image

import (
	"bytes"
	"fmt"
	goimage "image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"path/filepath"
	"strings"

	_ "github.com/chai2010/webp"  // Register WebP format decoder
	_ "golang.org/x/image/tiff"   // Register TIFF format decoder

	"gocv.io/x/gocv"
)

// Load reads and decodes an image file into a new buffer.
func Load(path string) (*Buffer, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("image file not found or unreadable: %s", path)
	}
	return &Buffer{mat: mat}, nil
}

// Decode decodes raw image bytes into a new buffer. The OpenCV decoder is
// tried first; formats it does not handle (notably WebP builds without it)
// fall back to the registered Go codecs.
func Decode(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return &Buffer{mat: mat}, nil
	}
	if err == nil {
		mat.Close()
	}

	img, _, derr := goimage.Decode(bytes.NewReader(data))
	if derr != nil {
		return nil, fmt.Errorf("failed to decode image bytes: %w", derr)
	}
	return FromImage(img)
}

// Save encodes the buffer to a file, format chosen by extension. When
// maxSize is positive the written image is proportionally scaled down first;
// the buffer itself is not modified.
func Save(path string, b *Buffer, maxSize int) error {
	if b.Empty() {
		return fmt.Errorf("cannot save an empty image buffer")
	}

	out := b
	if maxSize > 0 && (b.Width() > maxSize || b.Height() > maxSize) {
		out = b.Clone()
		defer out.Close()
		if _, err := out.ResizeToMax(maxSize); err != nil {
			return err
		}
	}

	if ok := gocv.IMWrite(path, out.mat); !ok {
		return fmt.Errorf("failed to encode image to %s", path)
	}
	return nil
}

// SupportedFormats returns the image file extensions the loader understands.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tiff", ".tif", ".webp", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
