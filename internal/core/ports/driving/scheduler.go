package driving

import "context"

// Scheduler runs background tasks such as periodic re-indexing.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until Stop is called or the context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error
}
