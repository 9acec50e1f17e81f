package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// StreamRecorder forwards visits to the visit stream instead of counting them in process.
type StreamRecorder struct {
	publish messaging.Publish[VisitEvent]
	logger  *zap.Logger

	// mu orders Record's wg.Add against Shutdown's wg.Wait.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewStreamRecorder creates a recorder publishing through publish.
func NewStreamRecorder(publish messaging.Publish[VisitEvent], logger *zap.Logger) *StreamRecorder {
	return &StreamRecorder{publish: publish, logger: logger}
}

// Record publishes in the background; failures are logged and the visit is lost. Visits
// recorded after Shutdown are dropped.
func (r *StreamRecorder) Record(_ context.Context, alias shortener.Alias) {
	event := &VisitEvent{Alias: alias, VisitedAt: time.Now().UTC()}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Debug("visit stream closed, dropping visit", zap.String("alias", string(alias)))

		return
	}

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		if err := r.publish(event); err != nil {
			r.logger.Error("failed to publish visit",
				zap.String("alias", string(alias)),
				zap.Error(err),
			)
		}
	}()
}

// Shutdown stops accepting visits and waits for pending publishes.
func (r *StreamRecorder) Shutdown() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()

	return nil
}
