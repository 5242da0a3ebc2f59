// Package opencv runs the filters and the preview window through OpenCV.
package opencv

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"runtime"

	"gocv.io/x/gocv"

	"go-imgfilter/pkg/pipeline"
)

// ErrNotGray is returned when OpenCV hands back a buffer that is not
// single-channel.
var ErrNotGray = errors.New("opencv: result is not single-channel")

// Backend implements pipeline.Backend with gocv.
type Backend struct{}

var _ pipeline.Backend = Backend{}

// Name reports the backend name used in run records.
func (Backend) Name() string {
	return "opencv"
}

// Grayscale converts img with COLOR_BGR2GRAY. Colour is read
// non-premultiplied, as imread does.
func (Backend) Grayscale(img image.Image) (*image.Gray, error) {
	src, err := bgrMat(img)
	if err != nil {
		return nil, fmt.Errorf("opencv: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	return toGray(gray, img.Bounds())
}

// Blur applies GaussianBlur p.Passes times with reflect-101 borders.
// Workers and TileRows are ignored; OpenCV parallelises internally.
func (Backend) Blur(img *image.Gray, p pipeline.BlurParams) (*image.Gray, error) {
	if p.Size <= 0 || p.Size%2 == 0 {
		return nil, fmt.Errorf("opencv: kernel size %d must be positive and odd", p.Size)
	}

	src, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, fmt.Errorf("opencv: %w", err)
	}
	defer src.Close()

	current := src.Clone()
	defer func() { current.Close() }()

	ksize := image.Pt(p.Size, p.Size)
	for i := 0; i < p.Passes; i++ {
		next := gocv.NewMat()
		gocv.GaussianBlur(current, &next, ksize, p.Sigma, p.Sigma, gocv.BorderDefault)
		current.Close()
		current = next
	}

	return toGray(current, img.Bounds())
}

// bgrMat copies img into an 8-bit BGR Mat using straight colour.
// gocv.ImageToMatRGB reads premultiplied samples, which darkens
// translucent pixels.
func bgrMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	data := make([]byte, 0, bounds.Dx()*bounds.Dy()*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			data = append(data, c.B, c.G, c.R)
		}
	}

	m, err := gocv.NewMatFromBytes(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8UC3, data)
	if err != nil {
		return m, err
	}
	defer m.Close()

	// The Mat above borrows data; hand back one that owns its pixels
	owned := m.Clone()
	runtime.KeepAlive(data)

	return owned, nil
}

func toGray(m gocv.Mat, bounds image.Rectangle) (*image.Gray, error) {
	if m.Empty() {
		return nil, fmt.Errorf("opencv: empty result")
	}

	out, err := m.ToImage()
	if err != nil {
		return nil, fmt.Errorf("opencv: %w", err)
	}

	gray, ok := out.(*image.Gray)
	if !ok {
		return nil, ErrNotGray
	}

	// Mats carry no origin
	gray.Rect = gray.Rect.Add(bounds.Min)
	return gray, nil
}
