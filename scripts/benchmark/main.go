package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/flightscrape/models"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "flightscrape API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of searches per route for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Search URLs covering short and long result lists.
var testRoutes = []struct {
	Label string
	URL   string
}{
	{"DEL-SFO", "https://www.google.com/travel/flights/search?tfs=CBwQAhoeEgoyMDI1LTA0LTAxagcIARIDREVMcgcIARIDU0ZPQAFIAXABggELCP___________wGYAQI&curr=USD"},
	{"JFK-LAX", "https://www.google.com/travel/flights?q=Flights%20to%20LAX%20from%20JFK&curr=USD"},
	{"LHR-CDG", "https://www.google.com/travel/flights?q=Flights%20to%20CDG%20from%20LHR&curr=EUR"},
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	TotalMs    int64  `json:"total_ms"`
	Flights    int    `json:"flights"`
	Attempts   int    `json:"attempts"`
	Reveals    int    `json:"reveals"`
	Missing    int    `json:"missing_fields"`
	HTTPStatus int    `json:"http_status"`
	Success    bool   `json:"success"`
	ErrorCode  string `json:"error_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

type routeAverages struct {
	TotalMs  float64 `json:"total_ms"`
	Flights  float64 `json:"flights"`
	Attempts float64 `json:"attempts"`
	Reveals  float64 `json:"reveals"`
}

type routeResult struct {
	URL      string         `json:"url"`
	Label    string         `json:"label"`
	Runs     []runResult    `json:"runs"`
	Averages *routeAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp    string        `json:"timestamp"`
	APIURL       string        `json:"api_url"`
	RunsPerRoute int           `json:"runs_per_route"`
	Results      []routeResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== flightscrape benchmark ===")
	fmt.Printf("API URL:    %s\n", *apiURL)
	fmt.Printf("Runs/route: %d\n", *runs)
	fmt.Printf("Output:     %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure flightscrape-server is running\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		APIURL:       *apiURL,
		RunsPerRoute: *runs,
	}

	for _, t := range testRoutes {
		fmt.Printf("Benchmarking [%s] ...\n", t.Label)
		rr := routeResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			r := benchmarkSearch(t.URL, i)
			if r.Success {
				fmt.Printf("OK  %dms  %d flights  %d reveals\n", r.TotalMs, r.Flights, r.Reveals)
			} else {
				fmt.Printf("FAILED: [%s] %s\n", r.ErrorCode, r.Error)
			}
			rr.Runs = append(rr.Runs, r)
		}

		rr.Averages = computeAverages(rr.Runs)
		report.Results = append(report.Results, rr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkSearch(searchURL string, run int) runResult {
	r := runResult{Run: run}

	bodyBytes, err := json.Marshal(models.SearchRequest{URL: searchURL})
	if err != nil {
		r.Error = fmt.Sprintf("marshal error: %v", err)
		return r
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/search", bytes.NewReader(bodyBytes))
	if err != nil {
		r.Error = fmt.Sprintf("request error: %v", err)
		return r
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		r.Error = fmt.Sprintf("request failed: %v", err)
		return r
	}
	defer resp.Body.Close()
	r.HTTPStatus = resp.StatusCode

	var sr models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		r.Error = fmt.Sprintf("decode error: %v", err)
		return r
	}

	r.Success = sr.Success
	r.TotalMs = sr.Timing.TotalMs
	r.Flights = sr.Count
	r.Attempts = sr.Attempts
	r.Reveals = sr.Reveals
	if sr.Outcome != nil {
		r.Missing = countMissing(sr.Outcome.Flights)
	}
	if sr.Error != nil {
		r.ErrorCode = sr.Error.Code
		r.Error = sr.Error.Message
	}
	return r
}

// countMissing counts fields that fell back to the placeholder.
func countMissing(flights []models.FlightRecord) int {
	n := 0
	for _, f := range flights {
		n += len(f.MissingFields())
	}
	return n
}

func computeAverages(runs []runResult) *routeAverages {
	var successCount int
	var avg routeAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.Flights += float64(r.Flights)
		avg.Attempts += float64(r.Attempts)
		avg.Reveals += float64(r.Reveals)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.Flights /= n
	avg.Attempts /= n
	avg.Reveals /= n
	return &avg
}

func printTable(results []routeResult) {
	fmt.Println(strings.Repeat("─", 70))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Route\tAvg Latency\tFlights\tAttempts\tReveals\n")
	fmt.Fprintf(w, "─────\t───────────\t───────\t────────\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", r.Label)
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%.1f\t%.1f\t%.1f\n",
			r.Label,
			int64(r.Averages.TotalMs),
			r.Averages.Flights,
			r.Averages.Attempts,
			r.Averages.Reveals,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 70))
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
