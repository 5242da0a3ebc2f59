package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"go-imgfilter/pkg/config"
	"go-imgfilter/pkg/opencv"
	"go-imgfilter/pkg/pipeline"
	"go-imgfilter/pkg/queue"
	"go-imgfilter/pkg/stats"
)

func main() {
	var cfg config.Grayscale
	if _, err := config.Parse("grayscale", os.Args[1:], &cfg); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			config.Usage(os.Stderr, "grayscale", &cfg)
			os.Exit(0)
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	startTime := time.Now()
	log.Printf("=== Starting Grayscale Conversion ===")
	log.Printf("Input path: %s", cfg.Input)
	log.Printf("Output path: %s", cfg.Output)
	log.Printf("Backend: %s", cfg.Backend)

	logger := log.Default()
	p := pipeline.Grayscale{
		Input:  cfg.Input,
		Output: cfg.Output,
		Options: pipeline.Options{
			Title:     cfg.Display.Title,
			MaxWidth:  int(cfg.Display.MaxWidth),
			MaxHeight: int(cfg.Display.MaxHeight),
			Logger:    logger,
		},
	}

	switch cfg.Backend {
	case "native":
		p.Backend = pipeline.Native{Logger: logger}
	case "opencv":
		p.Backend = opencv.Backend{}
	default:
		log.Fatalf("Unknown backend %q", cfg.Backend)
	}
	if cfg.Display.Enabled {
		p.Display = opencv.Window{}
	}

	rec, err := p.Run()
	if err != nil {
		log.Fatalf("Grayscale conversion failed: %v", err)
	}

	if cfg.Report.Dir != "" {
		path, err := stats.WriteResults(cfg.Report.Dir, cfg.Report.Prefix+"grayscale_", []stats.Record{rec})
		if err != nil {
			log.Printf("Failed to write results: %v", err)
		} else {
			log.Printf("Results written to: %s", path)
		}
	}

	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		id, err := queue.Publish(ctx, cfg.Redis.Addr, cfg.Redis.Stream, rec)
		cancel()
		if err != nil {
			log.Printf("Failed to journal run: %v", err)
		} else {
			log.Printf("Journaled run %s on %s", id, cfg.Redis.Stream)
		}
	}

	log.Printf("=== Conversion Complete ===")
	log.Printf("Total execution time: %.2fs", time.Since(startTime).Seconds())
}
