package server

import (
	"log/slog"

	"github.com/preston-bernstein/tennis-live-feed/internal/channel"
	"github.com/preston-bernstein/tennis-live-feed/internal/config"
	"github.com/preston-bernstein/tennis-live-feed/internal/feed"
	"github.com/preston-bernstein/tennis-live-feed/internal/metrics"
	"github.com/preston-bernstein/tennis-live-feed/internal/providers"
	"github.com/preston-bernstein/tennis-live-feed/internal/snapshots"
)

type feedComponents struct {
	sync    *feed.Synchronizer
	channel *channel.Manager
}

// sessionID reports the live push session, empty while disconnected.
func (c feedComponents) sessionID() string {
	if c.channel == nil {
		return ""
	}
	return c.channel.Status().SessionID
}

func buildFeed(cfg config.Config, provider providers.MatchProvider, cache *snapshots.Cache, logger *slog.Logger, recorder *metrics.Recorder) feedComponents {
	var comps feedComponents

	factory := func(sink channel.Sink) feed.Channel {
		comps.channel = channel.NewManager(channel.Config{
			URL:    cfg.Feed.WSURL,
			Dialer: channel.NewWebsocketDialer(cfg.Channel.HandshakeTimeout),
			Policy: channel.NewReconnectPolicy(
				cfg.Channel.ReconnectPolicy,
				cfg.Channel.ReconnectDelay,
				cfg.Channel.ReconnectMaxDelay,
			),
			Logger:   logger,
			Recorder: recorder,
		}, sink)
		return comps.channel
	}

	opts := feed.Options{
		Provider:         provider,
		Channel:          factory,
		ThrottleInterval: cfg.Feed.ThrottleInterval,
		CoalesceDelay:    cfg.Feed.CoalesceDelay,
		FetchTimeout:     cfg.Feed.FetchTimeout,
		RecencyGuard:     cfg.Feed.RecencyGuard,
		Logger:           logger,
		Recorder:         recorder,
	}
	if cache != nil {
		opts.Cache = cache
	}
	comps.sync = feed.New(opts)
	return comps
}
