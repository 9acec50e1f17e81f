package shortener

import "time"

// Alias is the short identifier a link is published under.
type Alias string

// Link maps an alias to its target URL. Links are immutable once registered.
type Link struct {
	Alias     Alias
	TargetURL string
	CreatedAt time.Time
}

// Registration is the outcome of registering a link.
type Registration struct {
	Link     *Link
	ShortURL string
}

// LinkStats is the statistics view of a single link.
type LinkStats struct {
	Alias       Alias
	TargetURL   string
	TotalClicks int64
}
