package stats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func blurRecord() Record {
	passes, size, workers := 14, 5, 1
	sigma := 0.0
	return Record{
		Operation:  "blur",
		Backend:    "native",
		Input:      "1.bmp",
		Output:     "111.bmp",
		Width:      500,
		Height:     500,
		Channels:   1,
		Timestamp:  time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
		TotalTime:  0.25,
		Passes:     &passes,
		KernelSize: &size,
		Sigma:      &sigma,
		Workers:    &workers,
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, []Record{blurRecord()}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"=== blur (native) ===",
		"Input: 1.bmp",
		"Output: 111.bmp",
		"Dimensions: 500x500, 1 channel(s)",
		"Kernel size: 5",
		"Passes: 14",
		"Total execution time: 0.250s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report is missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReportSkipsUnsetFields(t *testing.T) {
	var buf bytes.Buffer
	r := Record{Operation: "grayscale", Backend: "native", Timestamp: time.Now()}
	if err := WriteReport(&buf, []Record{r}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Passes:") {
		t.Errorf("grayscale report mentions passes:\n%s", buf.String())
	}
}

func TestWriteResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	path, err := WriteResults(dir, "blur_", []Record{blurRecord()})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "blur_2026-10-17_09-30-00.txt" {
		t.Errorf("results file = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "=== Image Filter Results ===") {
		t.Errorf("unexpected results file contents:\n%s", data)
	}
}

func TestWriteResultsEmpty(t *testing.T) {
	path, err := WriteResults(t.TempDir(), "x_", nil)
	if err != nil || path != "" {
		t.Fatalf("WriteResults(nil) = %q, %v", path, err)
	}
}
