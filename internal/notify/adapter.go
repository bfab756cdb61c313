// Package notify digests the placement activity log and posts summaries to
// chat platforms (Slack, Discord).
package notify

import (
	"context"
	"time"
)

// Adapter is the interface platform-specific implementations must satisfy.
// Notify is outbound-only: adapters post digests, they never listen.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Post delivers a digest to the platform.
	Post(ctx context.Context, d Digest) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// Digest is one interval's worth of board activity, formatted for chat.
type Digest struct {
	Title string    // headline, e.g. "Corkboard activity: 7 placements"
	Lines []string  // one line per notable entry or summary row
	Color string    // sidebar color hint (e.g. "#36a64f")
	Since time.Time // start of the covered window
	Until time.Time // end of the covered window
}
