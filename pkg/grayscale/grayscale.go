// Package grayscale converts colour images to single-channel luminance.
package grayscale

import (
	"image"
	"image/color"
)

// Rec.601 luma weights (0.299, 0.587, 0.114) in 14-bit fixed point.
const (
	weightR = 4899
	weightG = 9617
	weightB = 1868
	shift   = 14
)

// Luminance maps one RGB sample to its 8-bit luma value.
func Luminance(r, g, b uint8) uint8 {
	y := uint32(r)*weightR + uint32(g)*weightG + uint32(b)*weightB
	return uint8((y + 1<<(shift-1)) >> shift)
}

// Convert returns a single-channel copy of img with the same bounds.
// Alpha is ignored; colour values are read non-premultiplied.
func Convert(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	width := bounds.Dx()
	height := bounds.Dy()

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+width], src.Pix[y*src.Stride:y*src.Stride+width])
		}
	case *image.NRGBA:
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+width*4]
			out := gray.Pix[y*gray.Stride : y*gray.Stride+width]
			for x := range out {
				out[x] = Luminance(row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	default:
		// Direct pixel access is not available, fall back to the colour model
		for y := 0; y < height; y++ {
			out := gray.Pix[y*gray.Stride : y*gray.Stride+width]
			for x := range out {
				c := color.NRGBAModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.NRGBA)
				out[x] = Luminance(c.R, c.G, c.B)
			}
		}
	}

	return gray
}
