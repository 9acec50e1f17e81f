package shortener

import "context"

// Repository is the durable alias -> URL mapping.
type Repository interface {
	// InsertIfAbsent stores link only when its alias is unused. It returns the inserted row
	// and true, or nil and false when the insert was suppressed by an existing row.
	InsertIfAbsent(ctx context.Context, link *Link) (*Link, bool, error)

	// GetByAlias returns ErrNotFound when the alias is not registered.
	GetByAlias(ctx context.Context, alias Alias) (*Link, error)
}

// ClickCounter sums the click ledger.
type ClickCounter interface {
	TotalClicks(ctx context.Context, alias Alias) (int64, error)
}

// Cache is the advisory resolution cache. Entries expire after the TTL the
// implementation was configured with.
type Cache interface {
	// Get returns ErrCacheMiss when the alias is not cached.
	Get(ctx context.Context, alias Alias) (string, error)
	Set(ctx context.Context, alias Alias, targetURL string) error
}
