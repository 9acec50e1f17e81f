package shortener_test

import (
	"context"
	"errors"
	"sync"

	"github.com/serroba/shortlink/internal/shortener"
)

var errBoom = errors.New("boom")

type fakeRepo struct {
	mu        sync.Mutex
	links     map[shortener.Alias]*shortener.Link
	insertErr error
	getErr    error
	inserts   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{links: make(map[shortener.Alias]*shortener.Link)}
}

func (f *fakeRepo) InsertIfAbsent(_ context.Context, link *shortener.Link) (*shortener.Link, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inserts++

	if f.insertErr != nil {
		return nil, false, f.insertErr
	}

	if _, ok := f.links[link.Alias]; ok {
		return nil, false, nil
	}

	stored := *link
	f.links[link.Alias] = &stored

	return &stored, true, nil
}

func (f *fakeRepo) GetByAlias(_ context.Context, alias shortener.Alias) (*shortener.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	link, ok := f.links[alias]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	stored := *link

	return &stored, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[shortener.Alias]string
	getErr  error
	setErr  error
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[shortener.Alias]string)}
}

func (f *fakeCache) Get(_ context.Context, alias shortener.Alias) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets++

	if f.getErr != nil {
		return "", f.getErr
	}

	target, ok := f.entries[alias]
	if !ok {
		return "", shortener.ErrCacheMiss
	}

	return target, nil
}

func (f *fakeCache) Set(_ context.Context, alias shortener.Alias, targetURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return f.setErr
	}

	f.entries[alias] = targetURL

	return nil
}

func (f *fakeCache) cached(alias shortener.Alias) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target, ok := f.entries[alias]

	return target, ok
}

type fakeCounter struct {
	totals map[shortener.Alias]int64
	err    error
}

func (f *fakeCounter) TotalClicks(_ context.Context, alias shortener.Alias) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}

	return f.totals[alias], nil
}

// sequence returns a generator that yields aliases in order and then repeats the last one.
func sequence(aliases ...string) shortener.AliasGenerator {
	var (
		mu sync.Mutex
		i  int
	)

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		alias := aliases[min(i, len(aliases)-1)]
		i++

		return alias
	}
}
