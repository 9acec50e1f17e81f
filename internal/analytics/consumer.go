package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/shortlink/internal/messaging"
)

// ErrVisitRejected is returned when the aggregator did not accept a streamed visit.
var ErrVisitRejected = errors.New("visit rejected by aggregator")

// NewVisitHandler feeds streamed visits into agg. A visit the aggregator drops is nacked so
// another group member can count it.
func NewVisitHandler(agg *Aggregator) messaging.Handler[VisitEvent] {
	return func(_ context.Context, event *VisitEvent) error {
		if event.Alias == "" {
			return fmt.Errorf("visit without alias: %w", messaging.ErrDiscard)
		}

		if !agg.Submit(event.Alias) {
			return fmt.Errorf("%w: %s (%s)", ErrVisitRejected, event.Alias, agg.State())
		}

		return nil
	}
}
