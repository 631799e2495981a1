// Command flightscrape runs one Google Flights search for a fixed URL,
// saves the flights to flight_results.json and prints how many it found.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/scraper"
	"github.com/use-agent/flightscrape/storage"
)

const (
	searchURL  = "https://www.google.com/travel/flights/search?tfs=CBwQAhoeEgoyMDI1LTA0LTAxagcIARIDREVMcgcIARIDU0ZPQAFIAXABggELCP___________wGYAQI&curr=USD"
	outputFile = "flight_results.json"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(config.NewLogger(config.LogConfig{Level: cfg.Log.Level, Format: "text"}, os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	session, err := scraper.NewFromConfig(cfg, storage.NewJSONFileSink(outputFile))
	if err != nil {
		return err
	}

	res, err := session.Search(ctx, searchURL)
	if err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", res.Path)
	fmt.Printf("Successfully scraped %d flights\n", len(res.Outcome.Flights))
	return nil
}
