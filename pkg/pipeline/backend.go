package pipeline

import (
	"image"
	"log"

	"go-imgfilter/pkg/blur"
	"go-imgfilter/pkg/grayscale"
)

// Backend performs the two image operations.
type Backend interface {
	Name() string
	Grayscale(img image.Image) (*image.Gray, error)
	Blur(img *image.Gray, p BlurParams) (*image.Gray, error)
}

// BlurParams selects the kernel and how often it is applied.
type BlurParams struct {
	Size   int
	Sigma  float64
	Passes int

	// Workers and TileRows split each pass into row tiles; backends that
	// parallelise on their own ignore them.
	Workers  int
	TileRows int
}

// DefaultBlurParams returns a 5x5 kernel with derived sigma applied 14 times
// on one worker.
func DefaultBlurParams() BlurParams {
	return BlurParams{
		Size:     blur.DefaultSize,
		Passes:   blur.DefaultPasses,
		Workers:  1,
		TileRows: blur.DefaultTileRows,
	}
}

// Native runs the pure Go filters.
type Native struct {
	Logger *log.Logger
}

var _ Backend = Native{}

func (Native) Name() string {
	return "native"
}

func (Native) Grayscale(img image.Image) (*image.Gray, error) {
	return grayscale.Convert(img), nil
}

func (n Native) Blur(img *image.Gray, p BlurParams) (*image.Gray, error) {
	k, err := blur.GaussianKernel(p.Size, p.Sigma)
	if err != nil {
		return nil, err
	}

	f := blur.Filter{
		Kernel:   k,
		Passes:   p.Passes,
		Workers:  p.Workers,
		TileRows: p.TileRows,
		Logger:   n.Logger,
	}

	return f.Apply(img), nil
}
