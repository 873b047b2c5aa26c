package types

import "context"

// Recorder groups operations of one run into a telemetry session.
type Recorder interface {
	// Record runs fn inside a span called name. The error from fn is
	// recorded on the span and returned unchanged.
	Record(ctx context.Context, name string, fn func(ctx context.Context) error) error
	LogError(ctx context.Context, message string)
}
