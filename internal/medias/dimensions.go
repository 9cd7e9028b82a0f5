package medias

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Dimensions of an image in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// Zero returns if the dimensions are unknown.
func (d Dimensions) Zero() bool {
	return d == (Dimensions{})
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// ReadImageDimensions decodes only the header of a GIF, PNG or JPEG file.
func ReadImageDimensions(path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer f.Close()

	header, _, err := image.DecodeConfig(f)
	if err != nil {
		return Dimensions{}, fmt.Errorf("unable to decode image %q: %w", path, err)
	}
	return Dimensions{Width: header.Width, Height: header.Height}, nil
}
