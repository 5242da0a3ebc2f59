package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Record holds timing and metadata for one pipeline run
type Record struct {
	Operation string    `json:"operation"`
	Backend   string    `json:"backend"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Channels  int       `json:"channels"`
	Timestamp time.Time `json:"timestamp"`

	LoadTime   float64 `json:"load_time"`
	FilterTime float64 `json:"filter_time"`
	SaveTime   float64 `json:"save_time"`
	TotalTime  float64 `json:"total_time"`

	// Blur-specific data
	Passes     *int     `json:"passes,omitempty"`
	KernelSize *int     `json:"kernel_size,omitempty"`
	Sigma      *float64 `json:"sigma,omitempty"`
	Workers    *int     `json:"workers,omitempty"`
}

// WriteResults writes records to a new results file in dir and returns its
// path. The file name is prefix followed by the first record's timestamp.
func WriteResults(dir, prefix string, records []Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	timestamp := records[0].Timestamp.Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(dir, fmt.Sprintf("%s%s.txt", prefix, timestamp))

	file, err := os.Create(resultsFile)
	if err != nil {
		return "", fmt.Errorf("failed to create results file: %w", err)
	}
	defer file.Close()

	if err := WriteReport(file, records); err != nil {
		return "", err
	}

	return resultsFile, file.Close()
}

// WriteReport formats records as a plain-text report.
func WriteReport(w io.Writer, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	p := &printer{w: w}
	p.printf("=== Image Filter Results ===\n")
	p.printf("Timestamp: %s\n\n", records[0].Timestamp.Format("2006-01-02 15:04:05"))

	for _, r := range records {
		p.printf("=== %s (%s) ===\n", r.Operation, r.Backend)
		p.printf("Input: %s\n", r.Input)
		p.printf("Output: %s\n", r.Output)
		p.printf("Dimensions: %dx%d, %d channel(s)\n", r.Width, r.Height, r.Channels)

		if r.KernelSize != nil {
			p.printf("Kernel size: %d\n", *r.KernelSize)
		}
		if r.Sigma != nil {
			p.printf("Sigma: %g\n", *r.Sigma)
		}
		if r.Passes != nil {
			p.printf("Passes: %d\n", *r.Passes)
		}
		if r.Workers != nil {
			p.printf("Workers: %d\n", *r.Workers)
		}

		p.printf("Load time: %.3fs\n", r.LoadTime)
		p.printf("Filter time: %.3fs\n", r.FilterTime)
		p.printf("Save time: %.3fs\n", r.SaveTime)
		p.printf("Total execution time: %.3fs\n", r.TotalTime)
		p.printf("\n")
	}

	return p.err
}

// printer keeps the first write error so the report body stays readable.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
