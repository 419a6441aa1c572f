package integrations

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageSettings controls how pages are rewritten before they are embedded.
// Zero values keep the page as it is.
type ImageSettings struct {
	MaxWidth  int
	MaxHeight int
	Grayscale bool
	Quality   int // JPEG quality used when a page is re-encoded
}

// Page is an image ready to be embedded in a book.
type Page struct {
	Data      []byte
	MediaType string
	Width     int
	Height    int
}

// DataURL renders the page as a data: URL.
func (p Page) DataURL() string {
	return "data:" + p.MediaType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

type ImageProcessor struct {
	settings ImageSettings
}

func NewImageProcessor(settings ImageSettings) *ImageProcessor {
	if settings.Quality <= 0 || settings.Quality > 100 {
		settings.Quality = 85
	}
	return &ImageProcessor{settings: settings}
}

// Prepare checks that raw is an image and re-encodes it as JPEG when it has
// to be resized, converted to gray or is WebP, which e-readers rarely show.
func (p *ImageProcessor) Prepare(raw []byte) (Page, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Page{}, errors.Wrap(err, "unrecognized image")
	}

	width, height := p.calculateDimensions(cfg.Width, cfg.Height)
	resize := width != cfg.Width || height != cfg.Height
	if !resize && !p.settings.Grayscale && format != "webp" {
		return Page{Data: raw, MediaType: "image/" + format, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Page{}, errors.Wrapf(err, "decode %s", format)
	}
	if resize {
		img = scale(img, width, height)
	}
	if p.settings.Grayscale {
		img = toGrayscale(img)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.settings.Quality}); err != nil {
		return Page{}, errors.Wrap(err, "encode jpeg")
	}
	return Page{Data: buf.Bytes(), MediaType: "image/jpeg", Width: width, Height: height}, nil
}

// calculateDimensions fits width x height into the configured box keeping
// the aspect ratio.
func (p *ImageProcessor) calculateDimensions(width, height int) (int, int) {
	maxW, maxH := p.settings.MaxWidth, p.settings.MaxHeight
	if maxW <= 0 {
		maxW = width
	}
	if maxH <= 0 {
		maxH = height
	}
	if width <= maxW && height <= maxH {
		return width, height
	}

	ratio := float64(maxW) / float64(width)
	if r := float64(maxH) / float64(height); r < ratio {
		ratio = r
	}
	w, h := int(float64(width)*ratio), int(float64(height)*ratio)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func scale(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func toGrayscale(img image.Image) image.Image {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}
