package analytics

import (
	"context"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

// Ledger persists aggregated clicks.
type Ledger interface {
	// AppendClicks commits one row per alias, all in a single transaction. Either every
	// count is recorded or none is.
	AppendClicks(ctx context.Context, at time.Time, counts map[shortener.Alias]int64) error
}
