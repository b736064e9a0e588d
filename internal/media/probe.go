package media

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Dimensions are pixel measurements of a decoded image header.
type Dimensions struct {
	Width  int
	Height int
}

// ProbeDimensions reads the pixel size from an image header without decoding
// the full image. The caller decides what to do when decoding fails; no
// default is applied here.
func ProbeDimensions(data []byte) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, fmt.Errorf("decode image header: %w", err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
