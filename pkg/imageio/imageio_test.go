package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func testGray(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 37)
	}
	return img
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"4.jpeg", JPEG},
		{"out/photo.JPG", JPEG},
		{"a.png", PNG},
		{"111.bmp", BMP},
		{"scan.tif", TIFF},
		{"scan.tiff", TIFF},
	}

	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if err != nil {
			t.Fatalf("FormatFor(%q): %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("FormatFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	for _, path := range []string{"noext", "image.gif", "x.webp"} {
		if _, err := FormatFor(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("FormatFor(%q) error = %v, want ErrUnsupportedFormat", path, err)
		}
	}
}

func TestLosslessRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := testGray(13, 7)

	for _, name := range []string{"out.png", "out.bmp", "out.tiff"} {
		path := filepath.Join(dir, name)
		if err := Save(path, src); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}

		got, err := LoadGray(path)
		if err != nil {
			t.Fatalf("LoadGray(%s): %v", name, err)
		}
		if got.Bounds() != src.Bounds() {
			t.Fatalf("%s bounds = %v, want %v", name, got.Bounds(), src.Bounds())
		}
		if !bytes.Equal(got.Pix, src.Pix) {
			t.Errorf("%s pixels changed in round trip", name)
		}
	}
}

func TestJPEGKeepsSingleChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "4.jpeg")
	if err := Save(path, testGray(16, 9)); err != nil {
		t.Fatal(err)
	}

	img, format, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if Channels(img) != 1 {
		t.Errorf("channels = %d, want 1", Channels(img))
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 9 {
		t.Errorf("bounds = %v, want 16x9", img.Bounds())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}

	if _, err := LoadGray(filepath.Join(t.TempDir(), "missing.bmp")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadGray error = %v, want ErrNotFound", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("definitely not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := Load(path)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("error = %v, want ErrInvalidFormat", err)
	}
}

func TestSaveUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "out.png")
	if err := Save(path, testGray(2, 2)); !errors.Is(err, ErrWrite) {
		t.Fatalf("error = %v, want ErrWrite", err)
	}
}

func TestSaveUnsupportedFormatWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xyz")
	if err := Save(path, testGray(2, 2)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("output file exists after failed save")
	}
}

func TestLoadGrayConvertsColour(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	src.SetNRGBA(2, 0, color.NRGBA{B: 255, A: 255})

	path := filepath.Join(t.TempDir(), "rgb.png")
	if err := Save(path, src); err != nil {
		t.Fatal(err)
	}

	gray, err := LoadGray(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint8{76, 150, 29}
	if !bytes.Equal(gray.Pix, want) {
		t.Fatalf("pixels = %v, want %v", gray.Pix, want)
	}
}

func TestChannels(t *testing.T) {
	rect := image.Rect(0, 0, 1, 1)
	tests := []struct {
		name string
		img  image.Image
		want int
	}{
		{"gray", image.NewGray(rect), 1},
		{"gray16", image.NewGray16(rect), 1},
		{"rgba", image.NewRGBA(rect), 3},
		{"nrgba", image.NewNRGBA(rect), 3},
		{"gray palette", image.NewPaletted(rect, color.Palette{color.Black, color.White}), 1},
		{"colour palette", image.NewPaletted(rect, color.Palette{color.Black, color.RGBA{R: 255, A: 255}}), 3},
	}

	for _, tt := range tests {
		if got := Channels(tt.img); got != tt.want {
			t.Errorf("%s: Channels = %d, want %d", tt.name, got, tt.want)
		}
	}
}
