package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"go-imgfilter/pkg/config"
	"go-imgfilter/pkg/queue"
	"go-imgfilter/pkg/stats"
)

func main() {
	var cfg config.Runs
	if _, err := config.Parse("runs", os.Args[1:], &cfg); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			config.Usage(os.Stderr, "runs", &cfg)
			os.Exit(0)
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.Redis.Addr == "" {
		log.Fatalf("No Redis address configured (set -redis-addr or IMGFILTER_REDIS_ADDR)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	journal, err := queue.NewJournal(ctx, cfg.Redis.Addr, cfg.Redis.Stream)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer journal.Close()

	entries, err := journal.Recent(ctx, cfg.Count)
	if err != nil {
		log.Fatalf("Failed to read journal: %v", err)
	}

	if len(entries) == 0 {
		log.Printf("No runs recorded on %s", cfg.Redis.Stream)
		return
	}

	records := make([]stats.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record)
	}

	if err := stats.WriteReport(os.Stdout, records); err != nil {
		log.Fatalf("Failed to print runs: %v", err)
	}
}
