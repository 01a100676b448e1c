package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore is the default Store implementation, backed by a single
// SQLite database file via the pure-Go modernc.org/sqlite driver. Writes
// are serialized through writeMu so that concurrent callers never race on
// the single underlying connection's write lock. Reads may be issued from
// many goroutines, but the pool holds one connection, so they run one at a
// time.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// Open opens (creating if necessary) a SQLite-backed Store at path. Callers
// should call Migrate before using the store.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	// SQLite allows only one writer at a time; a single connection avoids
	// "database is locked" errors under concurrent writers and lets
	// writeMu be the sole write-serialization point.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version)
	return version, err
}

func (s *SQLiteStore) setSchemaVersion(ctx context.Context, tx *sql.Tx, version int) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version))
	return err
}

func (s *SQLiteStore) UpsertApplication(ctx context.Context, app Application) error {
	if !app.Status.Valid() {
		return fmt.Errorf("cache: invalid application status %d", app.Status)
	}
	if !app.Allowances.valid() {
		return fmt.Errorf("cache: application allowances must be non-negative")
	}
	if app.Created.After(time.Now()) {
		return fmt.Errorf("cache: application created date %s is in the future", app.Created)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO apps (key, name, status, equity, quote, li_app, li_acco, li_trade, li_histo, subs, created, updated)
		VALUES (?, ?, ?, 1, 1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name=excluded.name, status=excluded.status,
			li_app=excluded.li_app, li_acco=excluded.li_acco,
			li_trade=excluded.li_trade, li_histo=excluded.li_histo,
			subs=excluded.subs, updated=excluded.updated`,
		app.Key, app.Name, int(app.Status),
		app.Allowances.OverallRequests, app.Allowances.AccountRequests,
		app.Allowances.AccountTrading, app.Allowances.HistoricalData,
		app.Allowances.ConcurrentSubs,
		app.Created.Format("2006-01-02"), app.Updated.Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache: upsert application %s: %w", app.Key, err)
	}
	return nil
}

func (s *SQLiteStore) Application(ctx context.Context, key string) (*Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, name, status, li_app, li_acco, li_trade, li_histo, subs, created, updated
		FROM apps WHERE key = ?`, key)

	var app Application
	var status int
	var created string
	var updated int64
	if err := row.Scan(&app.Key, &app.Name, &status,
		&app.Allowances.OverallRequests, &app.Allowances.AccountRequests,
		&app.Allowances.AccountTrading, &app.Allowances.HistoricalData,
		&app.Allowances.ConcurrentSubs, &created, &updated); err != nil {
		return nil, fmt.Errorf("cache: application %s: %w", key, err)
	}
	app.Status = ApplicationStatus(status)
	var err error
	app.Created, err = time.Parse("2006-01-02", created)
	if err != nil {
		return nil, fmt.Errorf("cache: application %s: parse created date: %w", key, err)
	}
	app.Updated = time.Unix(updated, 0).UTC()
	return &app, nil
}

func (s *SQLiteStore) UpsertMarket(ctx context.Context, m Market) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markets_forex (epic, instrument_name, instrument_type, currencies, expiry, market_status, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(epic) DO UPDATE SET
			instrument_name=excluded.instrument_name, instrument_type=excluded.instrument_type,
			currencies=excluded.currencies, expiry=excluded.expiry,
			market_status=excluded.market_status, updated=excluded.updated`,
		m.Epic, m.InstrumentName, m.InstrumentType, strings.Join(m.Currencies, ","), m.Expiry,
		m.MarketStatus, m.Updated.Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache: upsert market %s: %w", m.Epic, err)
	}
	return nil
}

func (s *SQLiteStore) Market(ctx context.Context, epic string) (*Market, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT epic, instrument_name, instrument_type, currencies, expiry, market_status, updated
		FROM markets_forex WHERE epic = ?`, epic)

	var m Market
	var currencies string
	var updated int64
	if err := row.Scan(&m.Epic, &m.InstrumentName, &m.InstrumentType, &currencies, &m.Expiry, &m.MarketStatus, &updated); err != nil {
		return nil, fmt.Errorf("cache: market %s: %w", epic, err)
	}
	if currencies != "" {
		m.Currencies = strings.Split(currencies, ",")
	}
	m.Updated = time.Unix(updated, 0).UTC()
	return &m, nil
}

func (s *SQLiteStore) priceTable(epic string) string {
	return "price_" + sanitizeEpic(epic)
}

func sanitizeEpic(epic string) string {
	var b strings.Builder
	for _, r := range epic {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (s *SQLiteStore) InsertPriceRow(ctx context.Context, epic string, row PriceRow) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.marketExists(ctx, epic); err != nil {
		return err
	}

	table := s.priceTable(epic)
	if err := s.ensurePriceTable(ctx, table); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (date, open_bid, open_ask, close_bid, close_ask, low_bid, low_ask, high_bid, high_ask, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			open_bid=excluded.open_bid, open_ask=excluded.open_ask,
			close_bid=excluded.close_bid, close_ask=excluded.close_ask,
			low_bid=excluded.low_bid, low_ask=excluded.low_ask,
			high_bid=excluded.high_bid, high_ask=excluded.high_ask,
			volume=excluded.volume`, table),
		row.Date.Unix(),
		int64(row.Open.Bid), int64(row.Open.Ask),
		int64(row.Close.Bid), int64(row.Close.Ask),
		int64(row.Low.Bid), int64(row.Low.Ask),
		int64(row.High.Bid), int64(row.High.Ask),
		row.Volume,
	)
	if err != nil {
		return fmt.Errorf("cache: insert price row for %s: %w", epic, err)
	}
	return nil
}

func (s *SQLiteStore) marketExists(ctx context.Context, epic string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM markets_forex WHERE epic = ?`, epic).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, ErrMarketNotFound
	}
	if err != nil {
		return false, fmt.Errorf("cache: check market %s: %w", epic, err)
	}
	return true, nil
}

func (s *SQLiteStore) ensurePriceTable(ctx context.Context, table string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			date INTEGER PRIMARY KEY,
			open_bid INTEGER NOT NULL, open_ask INTEGER NOT NULL,
			close_bid INTEGER NOT NULL, close_ask INTEGER NOT NULL,
			low_bid INTEGER NOT NULL, low_ask INTEGER NOT NULL,
			high_bid INTEGER NOT NULL, high_ask INTEGER NOT NULL,
			volume INTEGER NOT NULL
		)`, table))
	return err
}

func (s *SQLiteStore) PriceRange(ctx context.Context, epic string, from, to time.Time) ([]PriceRow, error) {
	table := s.priceTable(epic)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT date, open_bid, open_ask, close_bid, close_ask, low_bid, low_ask, high_bid, high_ask, volume
		FROM %s WHERE date >= ? AND date <= ? ORDER BY date ASC`, table),
		from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("cache: price range for %s: %w", epic, err)
	}
	defer rows.Close()

	var out []PriceRow
	for rows.Next() {
		var date int64
		var openBid, openAsk, closeBid, closeAsk, lowBid, lowAsk, highBid, highAsk, volume int64
		if err := rows.Scan(&date, &openBid, &openAsk, &closeBid, &closeAsk, &lowBid, &lowAsk, &highBid, &highAsk, &volume); err != nil {
			return nil, fmt.Errorf("cache: price range for %s: scan row: %w", epic, err)
		}
		out = append(out, PriceRow{
			Date:   time.Unix(date, 0).UTC(),
			Open:   OHLC{Bid: FixedPoint(openBid), Ask: FixedPoint(openAsk)},
			Close:  OHLC{Bid: FixedPoint(closeBid), Ask: FixedPoint(closeAsk)},
			Low:    OHLC{Bid: FixedPoint(lowBid), Ask: FixedPoint(lowAsk)},
			High:   OHLC{Bid: FixedPoint(highBid), Ask: FixedPoint(highAsk)},
			Volume: volume,
		})
	}
	return out, rows.Err()
}
