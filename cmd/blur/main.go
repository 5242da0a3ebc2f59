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
	var cfg config.Blur
	if _, err := config.Parse("blur", os.Args[1:], &cfg); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			config.Usage(os.Stderr, "blur", &cfg)
			os.Exit(0)
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	params := pipeline.DefaultBlurParams()
	params.Workers = int(cfg.Workers)
	params.TileRows = int(cfg.TileRows)

	startTime := time.Now()
	log.Printf("=== Starting Iterative Gaussian Blur ===")
	log.Printf("Start time: %s", startTime.Format("2006-01-02 15:04:05"))
	log.Printf("Kernel size: %d", params.Size)
	log.Printf("Passes: %d", params.Passes)
	log.Printf("Workers: %d", cfg.Workers)
	log.Printf("Input path: %s", cfg.Input)
	log.Printf("Output path: %s", cfg.Output)

	logger := log.Default()
	p := pipeline.Blur{
		Input:  cfg.Input,
		Output: cfg.Output,
		Params: params,
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
		log.Fatalf("Blur failed: %v", err)
	}

	if cfg.Report.Dir != "" {
		path, err := stats.WriteResults(cfg.Report.Dir, cfg.Report.Prefix+"blur_", []stats.Record{rec})
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

	log.Printf("=== Processing Complete ===")
	log.Printf("Total execution time: %.2fs", time.Since(startTime).Seconds())
}
