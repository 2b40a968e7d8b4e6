package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/castmeta/mediawiki-scraper/internal/app"
	"github.com/castmeta/mediawiki-scraper/internal/config"
	"github.com/castmeta/mediawiki-scraper/internal/util"
)

// Exit codes: 0 on a record written to stdout, 1 on any failure. Logs go to
// stderr so stdout stays a clean single-record JSON stream for the host.
func main() {
	op := flag.String("op", "performer-by-url", "operation to run")
	pageURL := flag.String("url", "", "wiki page URL to scrape")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall scrape deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *op, *pageURL, *timeout); err != nil {
		logger.Error("Scrape failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, op, pageURL string, timeout time.Duration) error {
	switch op {
	case "performer-by-url":
	case "performer-by-name":
		return fmt.Errorf("operation %q requires a site search index and is not supported; pass the page URL with -url instead", op)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	if pageURL == "" {
		return fmt.Errorf("-url is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to assemble services: %w", err)
	}
	defer container.Close()

	record, err := container.Assembler.ScrapePerformerByURL(ctx, pageURL)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(record)
}
