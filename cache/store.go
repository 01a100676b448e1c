package cache

import (
	"context"
	"time"

	"github.com/igmarkets/ig-go/internal/errs"
)

// ErrMarketNotFound is returned by InsertPriceRow when the parent Market
// row does not exist yet.
var ErrMarketNotFound = errs.New(errs.InvalidRequest, "market not found in cache").
	WithSuggestion("call UpsertMarket before inserting price rows for this epic")

// Store is the persistence abstraction for reference data and price
// history. All methods are context-aware; writes are serialized by the
// implementation so that callers never need their own external locking.
type Store interface {
	// SchemaVersion reports the schema version currently applied.
	SchemaVersion(ctx context.Context) (int, error)
	// Migrate brings the schema up to the latest known version, applying
	// pending migrations in order.
	Migrate(ctx context.Context) error

	// UpsertApplication inserts an Application row, or updates an existing
	// one with the same key; an existing row keeps its Created date.
	UpsertApplication(ctx context.Context, app Application) error
	// Application fetches an Application by key.
	Application(ctx context.Context, key string) (*Application, error)

	// UpsertMarket inserts or replaces a Market row.
	UpsertMarket(ctx context.Context, m Market) error
	// Market fetches a Market by epic.
	Market(ctx context.Context, epic string) (*Market, error)

	// InsertPriceRow stores a price observation for epic, replacing any
	// existing row with the same Date. It returns ErrMarketNotFound if epic
	// has no cached Market row.
	InsertPriceRow(ctx context.Context, epic string, row PriceRow) error
	// PriceRange returns the cached price rows for epic between from and
	// to (inclusive), ordered by date ascending.
	PriceRange(ctx context.Context, epic string, from, to time.Time) ([]PriceRow, error)

	// Close releases any resources held by the store.
	Close() error
}
