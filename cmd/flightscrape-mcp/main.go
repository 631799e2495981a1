package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/flightscrape/models"
)

func main() {
	apiURL := os.Getenv("FLIGHTS_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("FLIGHTS_API_KEY")

	s := server.NewMCPServer(
		"flightscrape",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_flights",
		mcp.WithDescription("Open a Google Flights search results URL in a browser, reveal every result and return the flights found (airline, times, duration, stops, price, emissions)."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("A fully-formed Google Flights search results URL"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Serve a cached result younger than this many milliseconds (default: 0, always search)"),
		),
	)
	s.AddTool(searchTool, handleSearchFlights(apiURL, apiKey))

	extractTool := mcp.NewTool("extract_flights_html",
		mcp.WithDescription("Extract flights from an already rendered Google Flights results page. Only rows present in the HTML are returned."),
		mcp.WithString("html",
			mcp.Required(),
			mcp.Description("The rendered results page HTML"),
		),
		mcp.WithString("url",
			mcp.Description("The search URL the page was rendered from"),
		),
	)
	s.AddTool(extractTool, handleExtractHTML(apiURL, apiKey))

	tripTool := mcp.NewTool("parse_trip_info",
		mcp.WithDescription("Read the origin, destination and date encoded in a flight search URL without opening it."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The flight search URL"),
		),
	)
	s.AddTool(tripTool, handleTripInfo(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the flightscrape API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(client, req, apiKey)
}

// apiGet sends a GET request to the flightscrape API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return do(client, req, apiKey)
}

func do(client *http.Client, req *http.Request, apiKey string) ([]byte, error) {
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleSearchFlights(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		searchURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := models.SearchRequest{
			URL:    searchURL,
			MaxAge: request.GetInt("max_age", 0),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search request failed: %v", err)), nil
		}
		return searchResult(respBody, "search failed"), nil
	}
}

func handleExtractHTML(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		html, err := request.RequireString("html")
		if err != nil {
			return mcp.NewToolResultError("html is required"), nil
		}

		payload := models.ExtractRequest{
			HTML: html,
			URL:  request.GetString("url", ""),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/extract", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extract request failed: %v", err)), nil
		}
		return searchResult(respBody, "extraction failed"), nil
	}
}

func handleTripInfo(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		searchURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/trip?url="+url.QueryEscape(searchURL))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("trip request failed: %v", err)), nil
		}

		var tripResp models.TripResponse
		if err := json.Unmarshal(respBody, &tripResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse trip response: %v", err)), nil
		}
		if !tripResp.Success {
			return mcp.NewToolResultError(errorText(tripResp.Error, "trip lookup failed")), nil
		}
		return mcp.NewToolResultText(formatTrip(tripResp.Trip)), nil
	}
}

// searchResult turns a SearchResponse body into a tool result.
func searchResult(body []byte, fallback string) *mcp.CallToolResult {
	var resp models.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err))
	}
	if !resp.Success {
		return mcp.NewToolResultError(errorText(resp.Error, fallback))
	}
	return mcp.NewToolResultText(formatSearch(resp))
}

func errorText(detail *models.ErrorDetail, fallback string) string {
	if detail == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", detail.Code, detail.Message)
}

func formatTrip(t models.TripInfo) string {
	return fmt.Sprintf("Origin: %s\nDestination: %s\nDate: %s",
		orUnknown(t.Origin), orUnknown(t.Destination), orUnknown(t.Date))
}

// formatSearch renders one line per flight under a trip header.
func formatSearch(resp models.SearchResponse) string {
	var sb strings.Builder
	sb.WriteString(formatTrip(resp.Trip))
	sb.WriteString("\n")
	if resp.Outcome != nil {
		sb.WriteString(fmt.Sprintf("Source: %s\n", resp.Outcome.SearchURL))
	}
	if resp.CacheStatus != "" {
		sb.WriteString(fmt.Sprintf("Cache: %s\n", resp.CacheStatus))
	}
	sb.WriteString(fmt.Sprintf("\nFound %d flights:\n\n", resp.Count))

	if resp.Outcome == nil {
		return sb.String()
	}
	for i, f := range resp.Outcome.Flights {
		sb.WriteString(fmt.Sprintf("%d. %s | %s - %s | %s | %s | %s | %s (%s)\n",
			i+1, f.Airline, f.DepartureTime, f.ArrivalTime, f.Duration, f.Stops,
			f.Price, f.CO2Emissions, f.EmissionsVariation))
	}
	return sb.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
