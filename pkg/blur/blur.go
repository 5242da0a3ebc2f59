// Package blur implements a separable Gaussian blur for 8-bit grayscale
// images, applied once or repeatedly.
package blur

import (
	"image"
	"io"
	"log"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Filter applies the same kernel a fixed number of times, each pass reading
// the previous pass's output.
type Filter struct {
	Kernel Kernel
	Passes int

	// Workers splits each pass into row tiles. Values below 2 run the pass
	// on the calling goroutine.
	Workers  int
	TileRows int

	Logger *log.Logger
}

// Apply runs every pass and returns the final buffer. src is not modified.
func (f *Filter) Apply(src *image.Gray) *image.Gray {
	logger := f.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	current := clone(src)
	for i := 0; i < f.Passes; i++ {
		current = pass(current, f.Kernel, f.Workers, f.TileRows)
		logger.Printf("blur pass %d of %d", i+1, f.Passes)
	}

	return current
}

// Pass applies one Gaussian pass to src and returns a new image with the
// same bounds.
func Pass(src *image.Gray, k Kernel) *image.Gray {
	return pass(src, k, 1, 0)
}

// Iterate applies Pass n times, feeding each result into the next pass.
func Iterate(src *image.Gray, k Kernel, n int) *image.Gray {
	f := Filter{Kernel: k, Passes: n}
	return f.Apply(src)
}

func pass(src *image.Gray, k Kernel, workers, tileRows int) *image.Gray {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	dst := image.NewGray(bounds)
	if width == 0 || height == 0 {
		return dst
	}

	// Horizontal results must be complete before any column is read
	rows := make([]float64, width*height)
	runTiles(height, workers, tileRows, func(y0, y1 int) {
		horizontal(src, rows, k, y0, y1)
	})
	runTiles(height, workers, tileRows, func(y0, y1 int) {
		vertical(rows, dst, k, y0, y1)
	})

	return dst
}

func horizontal(src *image.Gray, rows []float64, k Kernel, y0, y1 int) {
	width := src.Rect.Dx()
	offset := len(k) / 2
	taps := make([]float64, len(k))

	for y := y0; y < y1; y++ {
		line := src.Pix[y*src.Stride : y*src.Stride+width]
		for x := 0; x < width; x++ {
			for i := range taps {
				taps[i] = float64(line[reflect101(x+i-offset, width)])
			}
			rows[y*width+x] = vecmath.DotProduct(taps, k)
		}
	}
}

func vertical(rows []float64, dst *image.Gray, k Kernel, y0, y1 int) {
	width := dst.Rect.Dx()
	height := dst.Rect.Dy()
	offset := len(k) / 2
	taps := make([]float64, len(k))

	for y := y0; y < y1; y++ {
		out := dst.Pix[y*dst.Stride : y*dst.Stride+width]
		for x := range out {
			for i := range taps {
				taps[i] = rows[reflect101(y+i-offset, height)*width+x]
			}
			out[x] = round(vecmath.DotProduct(taps, k))
		}
	}
}

// reflect101 maps p into [0, n) mirroring about the edge samples
// without repeating them: gfedcb|abcdefgh|gfedcba.
func reflect101(p, n int) int {
	if n == 1 {
		return 0
	}

	for p < 0 || p >= n {
		if p < 0 {
			p = -p
		} else {
			p = 2*n - 2 - p
		}
	}

	return p
}

// round converts an accumulated sample to 8 bits, halves rounding up.
func round(v float64) uint8 {
	v = math.Floor(v + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}

	return uint8(v)
}

func clone(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	width := bounds.Dx()
	for y := 0; y < bounds.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+width], src.Pix[y*src.Stride:y*src.Stride+width])
	}

	return dst
}
