package server

import (
	"context"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
	"github.com/preston-bernstein/tennis-live-feed/internal/poller"
)

// Poller defines the minimal raw logger behavior needed by the server.
type Poller interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Status() poller.Status
	Captures() []poller.Capture
}

// Feed defines the synchronizer lifecycle the server drives.
type Feed interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	State() matches.FeedState
}
