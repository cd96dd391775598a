package logging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a fresh random session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// Track runs fn under a session: the context passed to fn carries a session
// ID (an existing one is kept), and the outcome is logged with its duration.
func Track(ctx context.Context, command, path string, fn func(context.Context) error) error {
	if GetSessionID(ctx) == "" {
		ctx = WithSessionID(ctx, NewSessionID())
	}

	start := time.Now()
	DebugContext(ctx, "command_started", "command", command, "path", path)

	err := fn(ctx)
	CommandFinished(ctx, command, path, time.Since(start), err)
	return err
}
