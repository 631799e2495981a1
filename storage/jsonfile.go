// Package storage persists search outcomes: the results file written after
// every successful search and an optional SQLite search history.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/use-agent/flightscrape/models"
)

// DefaultResultsFile is written in the working directory.
const DefaultResultsFile = "flight_results.json"

// JSONFileSink writes each outcome to a single JSON file, replacing the
// previous contents. Concurrent saves are serialised.
type JSONFileSink struct {
	Path string

	mu     sync.Mutex
	encode func(w io.Writer, outcome models.ScrapeOutcome) error
}

// NewJSONFileSink returns a sink writing to path, or DefaultResultsFile
// when path is empty.
func NewJSONFileSink(path string) *JSONFileSink {
	if path == "" {
		path = DefaultResultsFile
	}
	return &JSONFileSink{Path: path, encode: encodeOutcome}
}

// Save writes outcome as UTF-8 JSON with two-space indentation. Non-ASCII
// text and characters such as '<' or '&' are written as is.
//
// The outcome is written to a temporary file next to Path and renamed over
// it, so a failed save leaves the previous results intact.
func (s *JSONFileSink) Save(outcome models.ScrapeOutcome) (string, error) {
	if outcome.Flights == nil {
		outcome.Flights = []models.FlightRecord{}
	}
	encode := s.encode
	if encode == nil {
		encode = encodeOutcome
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir, name := filepath.Split(s.Path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create results file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if err := encode(tmp, outcome); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close results file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("chmod results file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return "", fmt.Errorf("replace results file: %w", err)
	}

	if abs, err := filepath.Abs(s.Path); err == nil {
		return abs, nil
	}
	return s.Path, nil
}

func encodeOutcome(w io.Writer, outcome models.ScrapeOutcome) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}

// Load reads a results file written by Save.
func Load(path string) (models.ScrapeOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ScrapeOutcome{}, fmt.Errorf("read results file: %w", err)
	}
	var out models.ScrapeOutcome
	if err := json.Unmarshal(data, &out); err != nil {
		return models.ScrapeOutcome{}, fmt.Errorf("decode results file: %w", err)
	}
	return out, nil
}
