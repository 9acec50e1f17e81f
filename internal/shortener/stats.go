package shortener

import "context"

// StatsReader reports the running click total of a link.
type StatsReader struct {
	links  Repository
	clicks ClickCounter
}

// NewStatsReader creates a statistics reader.
func NewStatsReader(links Repository, clicks ClickCounter) *StatsReader {
	return &StatsReader{links: links, clicks: clicks}
}

// Stats returns ErrNotFound when the alias is not registered. Clicks still pending in the
// aggregator are not included.
func (s *StatsReader) Stats(ctx context.Context, alias Alias) (*LinkStats, error) {
	link, err := s.links.GetByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}

	total, err := s.clicks.TotalClicks(ctx, alias)
	if err != nil {
		return nil, err
	}

	return &LinkStats{
		Alias:       link.Alias,
		TargetURL:   link.TargetURL,
		TotalClicks: total,
	}, nil
}
