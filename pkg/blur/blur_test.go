package blur

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"
)

func randomGray(width, height int, seed int64) *image.Gray {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, width, height))
	rng.Read(img.Pix)
	return img
}

func defaultKernel(t *testing.T) Kernel {
	t.Helper()
	k, err := GaussianKernel(DefaultSize, 0)
	if err != nil {
		t.Fatalf("GaussianKernel: %v", err)
	}
	return k
}

func TestDefaultKernelIsBinomial(t *testing.T) {
	k := defaultKernel(t)
	want := []float64{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}
	if k.Size() != len(want) {
		t.Fatalf("size = %d, want %d", k.Size(), len(want))
	}
	for i := range want {
		if k[i] != want[i] {
			t.Errorf("tap %d = %v, want %v", i, k[i], want[i])
		}
	}

	sum := 0.0
	for _, row := range k.Matrix() {
		for _, v := range row {
			sum += v
		}
	}
	if sum != 1 {
		t.Errorf("matrix sum = %v, want 1", sum)
	}
}

func TestGaussianKernelExplicitSigma(t *testing.T) {
	tests := []struct {
		size  int
		sigma float64
	}{
		{5, 1.1},
		{5, 0.5},
		{9, 0},
		{11, 2.5},
	}

	for _, tt := range tests {
		k, err := GaussianKernel(tt.size, tt.sigma)
		if err != nil {
			t.Fatalf("GaussianKernel(%d, %v): %v", tt.size, tt.sigma, err)
		}
		if k.Size() != tt.size {
			t.Fatalf("size = %d, want %d", k.Size(), tt.size)
		}

		sum := 0.0
		for _, v := range k {
			sum += v
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("GaussianKernel(%d, %v) sums to %v", tt.size, tt.sigma, sum)
		}

		c := tt.size / 2
		for i := 0; i < c; i++ {
			if math.Abs(k[i]-k[tt.size-1-i]) > 1e-15 {
				t.Errorf("GaussianKernel(%d, %v) not symmetric at %d", tt.size, tt.sigma, i)
			}
			if k[i] >= k[i+1] {
				t.Errorf("GaussianKernel(%d, %v) not increasing towards center at %d", tt.size, tt.sigma, i)
			}
		}
	}
}

func TestGaussianKernelMatchesFormula(t *testing.T) {
	const sigma = 1.3
	k, err := GaussianKernel(7, sigma)
	if err != nil {
		t.Fatal(err)
	}

	want := make([]float64, 7)
	sum := 0.0
	for i := range want {
		d := float64(i - 3)
		want[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += want[i]
	}
	for i := range want {
		if math.Abs(k[i]-want[i]/sum) > 1e-12 {
			t.Errorf("tap %d = %v, want %v", i, k[i], want[i]/sum)
		}
	}
}

func TestGaussianKernelRejectsBadSize(t *testing.T) {
	for _, size := range []int{0, -3, 4, 6} {
		if _, err := GaussianKernel(size, 0); !errors.Is(err, ErrKernelSize) {
			t.Errorf("GaussianKernel(%d) error = %v, want ErrKernelSize", size, err)
		}
	}
}

func TestReflect101(t *testing.T) {
	tests := []struct {
		p, n, want int
	}{
		{0, 5, 0},
		{4, 5, 4},
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{-1, 2, 1},
		{-2, 2, 0},
		{3, 2, 1},
		{-2, 1, 0},
		{2, 1, 0},
	}

	for _, tt := range tests {
		if got := reflect101(tt.p, tt.n); got != tt.want {
			t.Errorf("reflect101(%d, %d) = %d, want %d", tt.p, tt.n, got, tt.want)
		}
	}
}

func TestPassImpulseResponse(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 9, 9))
	img.SetGray(4, 4, color.Gray{Y: 255})

	out := Pass(img, defaultKernel(t))

	tests := []struct {
		x, y int
		want uint8
	}{
		{4, 4, 36}, // 255 * 6/16 * 6/16
		{4, 3, 24}, // 255 * 6/16 * 4/16
		{5, 4, 24},
		{2, 2, 1}, // 255 / 256
		{6, 6, 1},
		{1, 4, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := out.GrayAt(tt.x, tt.y).Y; got != tt.want {
			t.Errorf("pixel (%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPassPreservesDimensions(t *testing.T) {
	for _, rect := range []image.Rectangle{
		image.Rect(0, 0, 7, 3),
		image.Rect(0, 0, 1, 1),
		image.Rect(0, 0, 1, 6),
		image.Rect(10, 20, 15, 22),
	} {
		src := image.NewGray(rect)
		out := Pass(src, defaultKernel(t))
		if out.Bounds() != rect {
			t.Errorf("bounds = %v, want %v", out.Bounds(), rect)
		}
	}
}

func TestConstantImageIsFixedPoint(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 12, 5))
	for i := range src.Pix {
		src.Pix[i] = 173
	}

	out := Iterate(src, defaultKernel(t), DefaultPasses)
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Fatalf("constant image changed after blur")
	}
}

func TestSinglePixel(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 1, 1))
	src.Pix[0] = 99

	out := Iterate(src, defaultKernel(t), DefaultPasses)
	if out.Bounds().Dx() != 1 || out.Bounds().Dy() != 1 {
		t.Fatalf("bounds = %v, want 1x1", out.Bounds())
	}
	if out.Pix[0] != 99 {
		t.Errorf("pixel = %d, want 99", out.Pix[0])
	}
}

func TestIterateMatchesManualPasses(t *testing.T) {
	k := defaultKernel(t)
	src := randomGray(31, 17, 1)

	manual := src
	for i := 0; i < DefaultPasses; i++ {
		manual = Pass(manual, k)
	}

	iterated := Iterate(src, k, DefaultPasses)
	if !bytes.Equal(manual.Pix, iterated.Pix) {
		t.Fatalf("Iterate differs from %d manual passes", DefaultPasses)
	}
}

func TestIterateIsCumulative(t *testing.T) {
	k := defaultKernel(t)
	src := randomGray(20, 20, 2)

	once := Pass(src, k)
	twice := Iterate(src, k, 2)
	if bytes.Equal(once.Pix, twice.Pix) {
		t.Fatalf("second pass did not smooth the first pass's output")
	}
	if !bytes.Equal(Pass(once, k).Pix, twice.Pix) {
		t.Fatalf("Iterate(2) differs from Pass(Pass(src))")
	}
}

func TestIterateDoesNotModifySource(t *testing.T) {
	src := randomGray(8, 8, 3)
	before := append([]byte(nil), src.Pix...)

	Iterate(src, defaultKernel(t), 3)
	if !bytes.Equal(before, src.Pix) {
		t.Fatalf("source buffer was modified")
	}
}

func TestTiledPassMatchesSequential(t *testing.T) {
	k := defaultKernel(t)
	src := randomGray(53, 41, 4)
	want := Iterate(src, k, 3)

	for _, tt := range []struct {
		workers, tileRows int
	}{
		{2, 1},
		{3, 7},
		{4, 0},
		{8, 16},
		{16, 100},
	} {
		f := Filter{Kernel: k, Passes: 3, Workers: tt.workers, TileRows: tt.tileRows}
		got := f.Apply(src)
		if !bytes.Equal(got.Pix, want.Pix) {
			t.Errorf("workers=%d tileRows=%d differs from sequential result", tt.workers, tt.tileRows)
		}
	}
}

func TestRunTilesCoversEveryRow(t *testing.T) {
	const height = 23
	seen := make([]int, height)
	done := make(chan [2]int, height)

	runTiles(height, 4, 5, func(y0, y1 int) {
		done <- [2]int{y0, y1}
	})
	close(done)

	for band := range done {
		for y := band[0]; y < band[1]; y++ {
			seen[y]++
		}
	}
	for y, n := range seen {
		if n != 1 {
			t.Errorf("row %d visited %d times", y, n)
		}
	}
}
