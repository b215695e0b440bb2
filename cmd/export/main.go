package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"inkblot-storefront/internal/config"
	"inkblot-storefront/internal/exporter"
	catalogsvc "inkblot-storefront/internal/service/catalog"
	"inkblot-storefront/internal/storefront"
)

func main() {
	var (
		filePath string
		limit    int
	)
	flag.StringVar(&filePath, "file", "", "Path to write the CSV to (default stdout)")
	flag.IntVar(&limit, "limit", storefront.MaxProducts, "Maximum number of products to export")
	flag.Parse()

	logger := log.New(os.Stderr, "[export] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	client, err := storefront.New(storefront.Options{
		Domain:     cfg.Storefront.Domain,
		Token:      cfg.Storefront.Token,
		APIVersion: cfg.Storefront.APIVersion,
		Timeout:    cfg.Storefront.Timeout,
		Retry: storefront.RetryPolicy{
			MaxRetries:     cfg.Storefront.MaxRetries,
			InitialBackoff: cfg.Storefront.RetryBackoff,
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatalf("init storefront client: %v", err)
	}

	var out io.Writer = os.Stdout
	if filePath != "" {
		f, err := os.Create(filePath)
		if err != nil {
			logger.Fatalf("create file: %v", err)
		}
		defer f.Close()
		out = f
	}

	exp := exporter.NewCSVExporter(out, catalogsvc.New(client, logger), limit)

	start := time.Now()
	count, err := exp.Run(context.Background())
	if err != nil {
		logger.Fatalf("export failed: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Exported %d products from %s in %s\n", count, cfg.Storefront.Domain, time.Since(start).Truncate(time.Millisecond))
}
