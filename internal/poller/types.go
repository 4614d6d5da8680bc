// internal/poller/types.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/sabwatch/internal/status"
)

// Client abstracts the managed service's status API.
// Implementations make exactly one request per call: no retries, no state.
type Client interface {
	FetchStatus(ctx context.Context) (status.Snapshot, error)
}

// PollResult is what one poll cycle produced.
type PollResult struct {
	At       time.Time
	Snapshot status.Snapshot
	Err      error // non-nil means the poll cycle failed; Snapshot is zero
}
