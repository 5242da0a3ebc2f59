// Package bitmap reads and writes 1-bit BMP files, the container used for
// bit planes.
package bitmap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
)

var (
	// ErrNotOneBit is returned when decoding a BMP with more than one bit per pixel.
	ErrNotOneBit = errors.New("bitmap: not a 1-bit BMP")
	// ErrInvalidHeader is returned for data that does not start with a BMP header.
	ErrInvalidHeader = errors.New("bitmap: invalid BMP header")
)

// Palette maps index 0 to black and index 1 to white.
var Palette = color.Palette{color.Gray{Y: 0}, color.Gray{Y: 255}}

const (
	signature     = 0x4D42 // "BM"
	fileHeaderLen = 14
	infoHeaderLen = 40
	paletteLen    = 8
	dataOffset    = fileHeaderLen + infoHeaderLen + paletteLen
	pixelsPerM    = 2835 // 72 dpi
)

// header is the BITMAPFILEHEADER followed by the BITMAPINFOHEADER.
type header struct {
	FileType        uint16
	FileSize        uint32
	Reserved1       uint16
	Reserved2       uint16
	OffsetData      uint32
	Size            uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	SizeImage       uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// New returns an all-black bit plane of the given size.
func New(width, height int) *image.Paletted {
	return image.NewPaletted(image.Rect(0, 0, width, height), Palette)
}

// HalfSplit returns a plane whose left half (x < width/2) is black and
// right half is white.
func HalfSplit(width, height int) *image.Paletted {
	m := New(width, height)
	mid := width / 2
	for y := 0; y < height; y++ {
		for x := mid; x < width; x++ {
			m.SetColorIndex(x, y, 1)
		}
	}

	return m
}

// rowSize is the byte length of one row padded to a 4-byte boundary.
func rowSize(width int) int {
	return ((width + 31) / 32) * 4
}

// Encode writes m as a bottom-up 1-bit BMP. Any non-zero palette index is
// stored as a white pixel.
func Encode(w io.Writer, m *image.Paletted) error {
	bounds := m.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	stride := rowSize(width)

	h := header{
		FileType:        signature,
		FileSize:        uint32(dataOffset + stride*height),
		OffsetData:      dataOffset,
		Size:            infoHeaderLen,
		Width:           int32(width),
		Height:          int32(height),
		Planes:          1,
		BitCount:        1,
		SizeImage:       uint32(stride * height),
		XPixelsPerMeter: pixelsPerM,
		YPixelsPerMeter: pixelsPerM,
		ColorsUsed:      2,
		ColorsImportant: 2,
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return err
	}

	// Palette entries are BGRX: black, then white
	if _, err := bw.Write([]byte{0, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0}); err != nil {
		return err
	}

	row := make([]byte, stride)
	for y := height - 1; y >= 0; y-- {
		for i := range row {
			row[i] = 0
		}
		for x := 0; x < width; x++ {
			if m.ColorIndexAt(bounds.Min.X+x, bounds.Min.Y+y) != 0 {
				row[x/8] |= 0x80 >> (x % 8)
			}
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Decode reads a 1-bit BMP. Pixels whose palette colour is closer to white
// get index 1, the rest index 0.
func Decode(r io.Reader) (*image.Paletted, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if h.FileType != signature || h.Size < infoHeaderLen {
		return nil, ErrInvalidHeader
	}
	if h.BitCount != 1 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrNotOneBit, h.BitCount)
	}
	if h.Compression != 0 {
		return nil, fmt.Errorf("%w: compressed data", ErrInvalidHeader)
	}
	if h.Width <= 0 || h.Height == 0 || h.OffsetData < fileHeaderLen+h.Size {
		return nil, ErrInvalidHeader
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// rest starts right after the fixed header
	paletteStart := int(h.Size - infoHeaderLen)
	dataStart := int(h.OffsetData) - fileHeaderLen - infoHeaderLen
	if paletteStart+paletteLen > len(rest) || dataStart > len(rest) {
		return nil, fmt.Errorf("%w: truncated", ErrInvalidHeader)
	}

	var white [2]bool
	for i := range white {
		entry := rest[paletteStart+i*4 : paletteStart+i*4+3]
		luma := int(entry[0]) + int(entry[1]) + int(entry[2])
		white[i] = luma > 3*127
	}

	width := int(h.Width)
	height := int(h.Height)
	bottomUp := true
	if height < 0 {
		height = -height
		bottomUp = false
	}

	stride := rowSize(width)
	data := rest[dataStart:]
	if len(data) < stride*height {
		return nil, fmt.Errorf("%w: truncated pixel data", ErrInvalidHeader)
	}

	m := New(width, height)
	for y := 0; y < height; y++ {
		srcY := y
		if bottomUp {
			srcY = height - 1 - y
		}
		row := data[srcY*stride : srcY*stride+stride]
		for x := 0; x < width; x++ {
			bit := (row[x/8] >> (7 - x%8)) & 1
			if white[bit] {
				m.SetColorIndex(x, y, 1)
			}
		}
	}

	return m, nil
}

// WriteFile encodes m to path.
func WriteFile(path string, m *image.Paletted) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(file, m); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	return file.Close()
}

// ReadFile decodes the 1-bit BMP at path.
func ReadFile(path string) (*image.Paletted, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	m, err := Decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}
