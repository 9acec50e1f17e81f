package analytics

import (
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

// TopicLinkVisited carries one message per successful redirect.
const TopicLinkVisited = "link.visited"

// VisitEvent is emitted when an alias is resolved.
type VisitEvent struct {
	Alias     shortener.Alias `json:"alias"`
	VisitedAt time.Time       `json:"visitedAt"`
}
