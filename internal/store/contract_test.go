package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linkStore is the full contract every backend implements.
type linkStore interface {
	shortener.Repository
	shortener.ClickCounter
	AppendClicks(ctx context.Context, at time.Time, counts map[shortener.Alias]int64) error
	Ping(ctx context.Context) error
}

func newLink(alias shortener.Alias, target string) *shortener.Link {
	return &shortener.Link{
		Alias:     alias,
		TargetURL: target,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// runStoreContract exercises s; each subtest uses its own aliases so s can be shared.
func runStoreContract(t *testing.T, s linkStore) {
	t.Helper()

	ctx := context.Background()

	t.Run("inserts a new link", func(t *testing.T) {
		link := newLink("c-insert", "https://example.com")

		got, inserted, err := s.InsertIfAbsent(ctx, link)

		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Equal(t, link.Alias, got.Alias)
		assert.Equal(t, link.TargetURL, got.TargetURL)
	})

	t.Run("suppresses insert of a taken alias", func(t *testing.T) {
		_, _, err := s.InsertIfAbsent(ctx, newLink("c-taken", "https://first.com"))
		require.NoError(t, err)

		got, inserted, err := s.InsertIfAbsent(ctx, newLink("c-taken", "https://second.com"))

		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Nil(t, got)

		stored, err := s.GetByAlias(ctx, "c-taken")
		require.NoError(t, err)
		assert.Equal(t, "https://first.com", stored.TargetURL)
	})

	t.Run("gets a link by alias", func(t *testing.T) {
		link := newLink("c-get", "https://example.com/get")
		_, _, err := s.InsertIfAbsent(ctx, link)
		require.NoError(t, err)

		got, err := s.GetByAlias(ctx, "c-get")

		require.NoError(t, err)
		assert.Equal(t, link.TargetURL, got.TargetURL)
		assert.WithinDuration(t, link.CreatedAt, got.CreatedAt, time.Second)
	})

	t.Run("returns ErrNotFound for unknown alias", func(t *testing.T) {
		_, err := s.GetByAlias(ctx, "c-missing")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("only one concurrent insert wins", func(t *testing.T) {
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)

		for i := range 10 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, inserted, err := s.InsertIfAbsent(ctx, newLink("c-race", "https://example.com/"+string(rune('a'+i))))
				assert.NoError(t, err)

				if inserted {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, 1, wins)
	})

	t.Run("sums appended clicks", func(t *testing.T) {
		now := time.Now()

		require.NoError(t, s.AppendClicks(ctx, now, map[shortener.Alias]int64{"c-clicks": 3, "c-other": 1}))
		require.NoError(t, s.AppendClicks(ctx, now.Add(time.Second), map[shortener.Alias]int64{"c-clicks": 4}))

		total, err := s.TotalClicks(ctx, "c-clicks")
		require.NoError(t, err)
		assert.Equal(t, int64(7), total)

		other, err := s.TotalClicks(ctx, "c-other")
		require.NoError(t, err)
		assert.Equal(t, int64(1), other)
	})

	t.Run("reports zero clicks for unvisited alias", func(t *testing.T) {
		total, err := s.TotalClicks(ctx, "c-never")

		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("appending an empty batch is a no-op", func(t *testing.T) {
		assert.NoError(t, s.AppendClicks(ctx, time.Now(), map[shortener.Alias]int64{}))
	})

	t.Run("pings", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}
