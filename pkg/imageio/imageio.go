// Package imageio loads and stores single images, choosing the container
// format from the file extension.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	// Decoders registered for image.Decode
	_ "image/gif"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go-imgfilter/pkg/grayscale"
)

// JPEGQuality is the quality JPEG outputs are written with.
const JPEGQuality = 95

var (
	// ErrNotFound means the input path does not resolve to a file.
	ErrNotFound = errors.New("imageio: file not found")
	// ErrInvalidFormat means the input bytes could not be decoded as an image.
	ErrInvalidFormat = errors.New("imageio: invalid image data")
	// ErrWrite means the output could not be created or written.
	ErrWrite = errors.New("imageio: cannot write image")
	// ErrUnsupportedFormat means the output extension has no encoder.
	ErrUnsupportedFormat = errors.New("imageio: unsupported output format")
)

// Format is an output container format.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// FormatFor returns the output format implied by path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// Load decodes the image at path and returns it with the decoder's format
// name.
func Load(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrInvalidFormat, path, err)
	}

	return img, format, nil
}

// LoadGray loads path as 8-bit single-channel samples. Colour inputs are
// reduced with grayscale.Convert.
func LoadGray(path string) (*image.Gray, error) {
	img, _, err := Load(path)
	if err != nil {
		return nil, err
	}

	if gray, ok := img.(*image.Gray); ok {
		return gray, nil
	}

	return grayscale.Convert(img), nil
}

// Save encodes img to path. The format is checked before the file is
// created, so an unsupported extension leaves nothing behind. A failed
// encode removes the partial file.
func Save(path string, img image.Image) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err := Encode(file, img, format); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}

	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Channels reports how many colour channels img carries, ignoring alpha.
func Channels(img image.Image) int {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.Paletted:
		for _, c := range m.Palette {
			r, g, b, _ := c.RGBA()
			if r != g || g != b {
				return 3
			}
		}
		return 1
	}

	if img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model {
		return 1
	}

	return 3
}
