// Package bitplane splits an 8-bit grayscale image into stacked 1-bit
// planes and restores the image from them.
//
// A pixel's level is the number of white planes at its position; each level
// is worth Step intensity units, so five planes cover 0..255.
package bitplane

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-vecmath"

	"go-imgfilter/pkg/bitmap"
)

const (
	// Levels is the number of planes that carry intensity.
	Levels = 5
	// Step is the intensity each white plane contributes.
	Step = 51
	// Planes is the number of planes written per image: the intensity
	// planes followed by one all-black plane.
	Planes = Levels + 1
)

var (
	// ErrNoPlanes is returned by Restore when called without planes.
	ErrNoPlanes = errors.New("bitplane: no planes")
	// ErrSizeMismatch is returned when planes differ in size.
	ErrSizeMismatch = errors.New("bitplane: planes differ in size")
)

// Split quantises src into Planes bit planes with Floyd-Steinberg error
// diffusion. The fractional part of each level is resolved against rng, so
// the same seed gives the same planes.
func Split(src *image.Gray, rng *rand.Rand) []*image.Paletted {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	planes := make([]*image.Paletted, Planes)
	for i := range planes {
		planes[i] = bitmap.New(width, height)
	}

	quantError := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			old := float64(src.Pix[y*src.Stride+x]) + quantError[idx]

			value := old / Step
			level := math.Floor(value)
			if value-level > rng.Float64() {
				level++
			}
			level = math.Max(0, math.Min(Levels, level))

			for k := 0; k < int(level); k++ {
				planes[k].Pix[idx] = 1
			}

			diffuse(quantError, width, height, x, y, old-level*Step)
		}
	}

	return planes
}

// diffuse spreads err to the unvisited neighbours of (x, y) with the
// Floyd-Steinberg weights.
func diffuse(quantError []float64, width, height, x, y int, err float64) {
	idx := y*width + x
	if x < width-1 {
		quantError[idx+1] += err * 7 / 16
	}
	if y < height-1 {
		if x > 0 {
			quantError[idx+width-1] += err * 3 / 16
		}
		quantError[idx+width] += err * 5 / 16
		if x < width-1 {
			quantError[idx+width+1] += err * 1 / 16
		}
	}
}

// Restore rebuilds a grayscale image as Step times the number of white
// planes at each pixel, clamped to 255.
func Restore(planes []*image.Paletted) (*image.Gray, error) {
	if len(planes) == 0 {
		return nil, ErrNoPlanes
	}

	bounds := planes[0].Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	sum := make([]float64, width*height)
	plane := make([]float64, width*height)
	for i, p := range planes {
		if p.Bounds().Dx() != width || p.Bounds().Dy() != height {
			return nil, fmt.Errorf("%w: plane %d is %v, want %dx%d",
				ErrSizeMismatch, i+1, p.Bounds().Size(), width, height)
		}

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				plane[y*width+x] = 0
				if p.Pix[y*p.Stride+x] != 0 {
					plane[y*width+x] = 1
				}
			}
		}
		vecmath.AddBlockInPlace(sum, plane)
	}
	vecmath.ScaleBlockInPlace(sum, Step)

	gray := image.NewGray(image.Rect(0, 0, width, height))
	for i, v := range sum {
		gray.Pix[i] = uint8(math.Min(v, 255))
	}

	return gray, nil
}

// FileNumbers returns the 1-based file numbers of the planes written for
// the image with the given 1-based index: six consecutive numbers per image.
func FileNumbers(index int) []int {
	numbers := make([]int, Planes)
	for i := range numbers {
		numbers[i] = (index-1)*Planes + i + 1
	}

	return numbers
}
