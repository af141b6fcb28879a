package processing

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Processor prepares images before they are sent to a vision model
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// Info describes a decoded image
type Info struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// Info reads the image header and returns its dimensions and format
func (p *Processor) Info(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("image: unknown or unsupported format")
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Shrink bounds the long side of the image to maxDim and re-encodes it as JPEG.
// Data that is already small enough, or maxDim <= 0, is returned unchanged.
func (p *Processor) Shrink(data []byte, maxDim, quality int) ([]byte, error) {
	if maxDim <= 0 {
		return data, nil
	}

	img, err := p.decodeImageFromBytes(data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return data, nil
	}
	if w >= h {
		img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	} else {
		img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
	}

	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %v", err)
	}
	return buf.Bytes(), nil
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	// Lossless and animated WebP variants the x/image decoder rejects
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}
