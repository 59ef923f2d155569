package port

import "context"

// ErrorReporter forwards caught unit failures to the error-tracking
// collaborator. Implementations must never fail themselves; a report that
// cannot be delivered is dropped.
type ErrorReporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}
