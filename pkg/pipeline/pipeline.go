// Package pipeline wires loading, filtering, saving and displaying a single
// image into the grayscale and blur runs.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"time"

	xdraw "golang.org/x/image/draw"

	"go-imgfilter/pkg/imageio"
	"go-imgfilter/pkg/stats"
)

// Window titles used when Options.Title is empty.
const (
	GrayscaleTitle = "Grayscale Image"
	BlurTitle      = "Blurred Image"
)

// ErrPasses is returned by Blur.Run when fewer than one pass is requested.
var ErrPasses = errors.New("pipeline: blur needs at least one pass")

// Displayer shows an image and returns once the viewer dismisses it.
type Displayer interface {
	Show(title string, img image.Image) error
}

// Options are shared by both pipelines.
type Options struct {
	// Backend defaults to Native.
	Backend Backend
	// Display is skipped when nil.
	Display Displayer
	Title   string

	// MaxWidth and MaxHeight bound the preview; the saved image is never
	// resized. Zero leaves that axis unbounded.
	MaxWidth  int
	MaxHeight int

	Logger *log.Logger
}

func (o *Options) backend() Backend {
	if o.Backend == nil {
		return Native{Logger: o.Logger}
	}
	return o.Backend
}

func (o *Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return o.Logger
}

func (o *Options) show(defaultTitle string, img image.Image) error {
	if o.Display == nil {
		return nil
	}

	title := o.Title
	if title == "" {
		title = defaultTitle
	}

	o.logger().Printf("Showing %q, press any key to close", title)
	if err := o.Display.Show(title, Preview(img, o.MaxWidth, o.MaxHeight)); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

// Grayscale converts Input to single-channel luminance and writes Output.
type Grayscale struct {
	Input  string
	Output string
	Options
}

// Run executes the pipeline. The output format is validated before the
// input is read, and nothing is written when loading fails.
func (g *Grayscale) Run() (stats.Record, error) {
	logger := g.logger()
	backend := g.backend()
	rec := stats.Record{
		Operation: "grayscale",
		Backend:   backend.Name(),
		Input:     g.Input,
		Output:    g.Output,
		Timestamp: time.Now(),
	}

	if _, err := imageio.FormatFor(g.Output); err != nil {
		return rec, err
	}

	start := time.Now()
	img, format, err := imageio.Load(g.Input)
	if err != nil {
		return rec, err
	}
	rec.LoadTime = time.Since(start).Seconds()
	logger.Printf("Loaded %s (%s, %dx%d)", g.Input, format, img.Bounds().Dx(), img.Bounds().Dy())

	filterStart := time.Now()
	gray, err := backend.Grayscale(img)
	if err != nil {
		return rec, fmt.Errorf("grayscale: %w", err)
	}
	rec.FilterTime = time.Since(filterStart).Seconds()

	if err := save(g.Output, gray, &rec); err != nil {
		return rec, err
	}
	rec.TotalTime = time.Since(start).Seconds()
	logger.Printf("Wrote %s in %.3fs", g.Output, rec.TotalTime)

	return rec, g.show(GrayscaleTitle, gray)
}

// Blur loads Input as grayscale, blurs it and writes Output.
type Blur struct {
	Input  string
	Output string
	Params BlurParams
	Options
}

// Run executes the pipeline under the same failure rules as Grayscale.Run.
// Params must ask for at least one pass.
func (b *Blur) Run() (stats.Record, error) {
	logger := b.logger()
	backend := b.backend()
	p := b.Params
	rec := stats.Record{
		Operation:  "blur",
		Backend:    backend.Name(),
		Input:      b.Input,
		Output:     b.Output,
		Timestamp:  time.Now(),
		Passes:     &p.Passes,
		KernelSize: &p.Size,
		Sigma:      &p.Sigma,
		Workers:    &p.Workers,
	}

	if p.Passes < 1 {
		return rec, fmt.Errorf("%w: got %d", ErrPasses, p.Passes)
	}
	if _, err := imageio.FormatFor(b.Output); err != nil {
		return rec, err
	}

	start := time.Now()
	img, err := imageio.LoadGray(b.Input)
	if err != nil {
		return rec, err
	}
	rec.LoadTime = time.Since(start).Seconds()
	logger.Printf("Loaded %s (%dx%d)", b.Input, img.Bounds().Dx(), img.Bounds().Dy())

	filterStart := time.Now()
	blurred, err := backend.Blur(img, p)
	if err != nil {
		return rec, fmt.Errorf("blur: %w", err)
	}
	rec.FilterTime = time.Since(filterStart).Seconds()
	logger.Printf("Applied %d pass(es) of a %dx%d kernel in %.3fs", p.Passes, p.Size, p.Size, rec.FilterTime)

	if err := save(b.Output, blurred, &rec); err != nil {
		return rec, err
	}
	rec.TotalTime = time.Since(start).Seconds()
	logger.Printf("Wrote %s in %.3fs", b.Output, rec.TotalTime)

	return rec, b.show(BlurTitle, blurred)
}

func save(path string, img *image.Gray, rec *stats.Record) error {
	start := time.Now()
	if err := imageio.Save(path, img); err != nil {
		return err
	}
	rec.SaveTime = time.Since(start).Seconds()
	rec.Width = img.Bounds().Dx()
	rec.Height = img.Bounds().Dy()
	rec.Channels = imageio.Channels(img)

	return nil
}

// Preview returns img scaled down to fit maxWidth x maxHeight, keeping the
// aspect ratio. Images that already fit are returned unchanged.
func Preview(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return img
	}

	scale := 1.0
	if maxWidth > 0 && w > maxWidth {
		scale = float64(maxWidth) / float64(w)
	}
	if maxHeight > 0 && h > maxHeight {
		if s := float64(maxHeight) / float64(h); s < scale {
			scale = s
		}
	}
	if scale == 1.0 {
		return img
	}

	rect := image.Rect(0, 0, max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale)))
	var dst xdraw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	xdraw.CatmullRom.Scale(dst, rect, img, bounds, xdraw.Src, nil)

	return dst
}
