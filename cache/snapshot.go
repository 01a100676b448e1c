package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is a point-in-time bulk dump of a store's contents, suitable for
// shipping a warm cache to another process or machine without replaying
// every upstream request that built it. It uses msgpack rather than JSON
// since alpaca's own wire protocol already pays that encoding cost
// routinely, and a snapshot of a day's worth of price rows is otherwise a
// meaningfully larger JSON payload.
type Snapshot struct {
	TakenAt      time.Time     `msgpack:"taken_at"`
	Applications []Application `msgpack:"applications"`
	Markets      []Market      `msgpack:"markets"`
	Prices       []PriceSeries `msgpack:"prices"`
}

// PriceSeries is one Market's price history within a Snapshot.
type PriceSeries struct {
	Epic string     `msgpack:"epic"`
	Rows []PriceRow `msgpack:"rows"`
}

// WriteSnapshot encodes a Snapshot of every application, market, and the
// given epics' full price history to w.
func (s *SQLiteStore) WriteSnapshot(ctx context.Context, w io.Writer, epics []string, takenAt time.Time) error {
	snap := Snapshot{TakenAt: takenAt}

	apps, err := s.allApplications(ctx)
	if err != nil {
		return fmt.Errorf("cache: snapshot applications: %w", err)
	}
	snap.Applications = apps

	markets, err := s.allMarkets(ctx)
	if err != nil {
		return fmt.Errorf("cache: snapshot markets: %w", err)
	}
	snap.Markets = markets

	for _, epic := range epics {
		rows, err := s.PriceRange(ctx, epic, time.Unix(0, 0), time.Now())
		if err != nil {
			return fmt.Errorf("cache: snapshot prices for %s: %w", epic, err)
		}
		snap.Prices = append(snap.Prices, PriceSeries{Epic: epic, Rows: rows})
	}

	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(&snap); err != nil {
		return fmt.Errorf("cache: encode snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot decodes a Snapshot from r and upserts every application,
// market, and price row it contains into the store. Markets are loaded
// before prices so InsertPriceRow's foreign-key check never fails on a
// market that is present later in the same snapshot.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, r io.Reader) error {
	var snap Snapshot
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return fmt.Errorf("cache: decode snapshot: %w", err)
	}

	for _, app := range snap.Applications {
		if err := s.UpsertApplication(ctx, app); err != nil {
			return fmt.Errorf("cache: load snapshot application %s: %w", app.Key, err)
		}
	}
	for _, m := range snap.Markets {
		if err := s.UpsertMarket(ctx, m); err != nil {
			return fmt.Errorf("cache: load snapshot market %s: %w", m.Epic, err)
		}
	}
	for _, series := range snap.Prices {
		for _, row := range series.Rows {
			if err := s.InsertPriceRow(ctx, series.Epic, row); err != nil {
				return fmt.Errorf("cache: load snapshot price row for %s: %w", series.Epic, err)
			}
		}
	}
	return nil
}

func (s *SQLiteStore) allApplications(ctx context.Context) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM apps`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var apps []Application
	for _, key := range keys {
		app, err := s.Application(ctx, key)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, nil
}

func (s *SQLiteStore) allMarkets(ctx context.Context) ([]Market, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT epic FROM markets_forex`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var epics []string
	for rows.Next() {
		var epic string
		if err := rows.Scan(&epic); err != nil {
			return nil, err
		}
		epics = append(epics, epic)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var markets []Market
	for _, epic := range epics {
		m, err := s.Market(ctx, epic)
		if err != nil {
			return nil, err
		}
		markets = append(markets, *m)
	}
	return markets, nil
}
