package blur

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// DefaultSize is the side of the square blur kernel.
	DefaultSize = 5
	// DefaultPasses is how many times the blur filter smooths its input.
	DefaultPasses = 14
)

// ErrKernelSize is returned for kernel sizes that are not positive and odd.
var ErrKernelSize = errors.New("blur: kernel size must be positive and odd")

// Kernel holds the 1-D taps of a separable Gaussian. The same taps are
// applied along rows and then along columns.
type Kernel []float64

// Small kernels with an automatic sigma use fixed binomial taps so the result
// is exactly reproducible with integer arithmetic.
var smallKernels = map[int]Kernel{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// GaussianKernel creates the taps for a size x size Gaussian blur.
// A sigma <= 0 derives the deviation from the size.
func GaussianKernel(size int, sigma float64) (Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: %d", ErrKernelSize, size)
	}

	if sigma <= 0 {
		if k, ok := smallKernels[size]; ok {
			return append(Kernel(nil), k...), nil
		}
		sigma = AutoSigma(size)
	}

	if size == 1 {
		return Kernel{1}, nil
	}

	// The window evaluates exp(-ln2 * ((i-c)/c * alpha)^2), which equals
	// exp(-(i-c)^2 / (2 sigma^2)) for this alpha.
	center := float64(size-1) / 2
	alpha := center / (sigma * math.Sqrt(2*math.Ln2))

	taps, err := window.Gaussian(size, alpha)
	if err != nil {
		return nil, fmt.Errorf("blur: gaussian taps: %w", err)
	}

	// Normalize kernel
	vecmath.ScaleBlockInPlace(taps, 1/vecmath.Sum(taps))

	return Kernel(taps), nil
}

// AutoSigma returns the deviation used for a kernel of the given size when
// none is configured.
func AutoSigma(size int) float64 {
	return 0.3*(float64(size-1)*0.5-1) + 0.8
}

// Size returns the number of taps.
func (k Kernel) Size() int {
	return len(k)
}

// Matrix expands the separable taps into the equivalent square kernel.
func (k Kernel) Matrix() [][]float64 {
	matrix := make([][]float64, len(k))
	for i := range k {
		matrix[i] = make([]float64, len(k))
		for j := range k {
			matrix[i][j] = k[i] * k[j]
		}
	}

	return matrix
}
