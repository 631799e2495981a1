package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/flightscrape/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned by History.Get for an unknown search id.
var ErrNotFound = errors.New("search not found")

// SearchRecord is one stored search with its flights in page order.
type SearchRecord struct {
	ID        string                `json:"id"`
	SearchURL string                `json:"search_url"`
	Trip      models.TripInfo       `json:"trip"`
	Attempts  int                   `json:"attempts"`
	Reveals   int                   `json:"reveals"`
	CreatedAt time.Time             `json:"created_at"`
	Flights   []models.FlightRecord `json:"flights"`
}

// Outcome returns the record's persisted-shape payload.
func (r SearchRecord) Outcome() models.ScrapeOutcome {
	return models.NewScrapeOutcome(r.SearchURL, r.Flights)
}

// History stores completed searches in SQLite.
type History struct {
	db  *sql.DB
	now func() time.Time
}

// OpenHistory opens (creating if needed) the database at path.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// A single connection keeps writers from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("pragma foreign_keys = on"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &History{db: db, now: time.Now}, nil
}

// Close closes the database.
func (h *History) Close() error { return h.db.Close() }

// Record stores a search and returns its new id.
func (h *History) Record(ctx context.Context, outcome models.ScrapeOutcome, trip models.TripInfo, attempts, reveals int) (string, error) {
	id := uuid.NewString()

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`insert into searches (id, search_url, origin, destination, travel_date, attempts, reveals, created_at)
		values (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, outcome.SearchURL, trip.Origin, trip.Destination, trip.Date, attempts, reveals, h.now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("insert search: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`insert into flights (search_id, position, airline, departure_time, arrival_time, duration,
		stops, price, co2_emissions, emissions_variation)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, f := range outcome.Flights {
		_, err := stmt.ExecContext(ctx, id, i,
			f.Airline, f.DepartureTime, f.ArrivalTime, f.Duration,
			f.Stops, f.Price, f.CO2Emissions, f.EmissionsVariation,
		)
		if err != nil {
			return "", fmt.Errorf("insert flight %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// Get loads a stored search by id.
func (h *History) Get(ctx context.Context, id string) (*SearchRecord, error) {
	rec := &SearchRecord{ID: id}
	var created int64
	err := h.db.QueryRowContext(ctx,
		`select search_url, origin, destination, travel_date, attempts, reveals, created_at
		from searches where id = ?`, id,
	).Scan(&rec.SearchURL, &rec.Trip.Origin, &rec.Trip.Destination, &rec.Trip.Date,
		&rec.Attempts, &rec.Reveals, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()

	rows, err := h.db.QueryContext(ctx,
		`select airline, departure_time, arrival_time, duration, stops, price, co2_emissions, emissions_variation
		from flights where search_id = ? order by position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rec.Flights = []models.FlightRecord{}
	for rows.Next() {
		var f models.FlightRecord
		if err := rows.Scan(&f.Airline, &f.DepartureTime, &f.ArrivalTime, &f.Duration,
			&f.Stops, &f.Price, &f.CO2Emissions, &f.EmissionsVariation); err != nil {
			return nil, err
		}
		rec.Flights = append(rec.Flights, f)
	}
	return rec, rows.Err()
}

// Latest returns the most recent stored search for searchURL.
func (h *History) Latest(ctx context.Context, searchURL string) (*SearchRecord, error) {
	var id string
	err := h.db.QueryRowContext(ctx,
		`select id from searches where search_url = ? order by created_at desc limit 1`, searchURL,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return h.Get(ctx, id)
}
