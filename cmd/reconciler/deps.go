package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/reconciler/internal/audit"
	"github.com/MikeSquared-Agency/reconciler/internal/config"
	"github.com/MikeSquared-Agency/reconciler/internal/hermes"
	"github.com/MikeSquared-Agency/reconciler/internal/slack"
	"github.com/MikeSquared-Agency/reconciler/internal/store"
)

// deps holds the optional outputs of a run. Each is nil unless configured.
type deps struct {
	store  *store.Store
	bus    *hermes.Client
	poster *slack.Poster
	logger *slog.Logger
}

func connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (*deps, error) {
	d := &deps{logger: logger}

	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		d.store = db
		logger.Info("database connected")
	}

	if cfg.NatsURL != "" {
		bus, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.bus = bus
		logger.Info("NATS connected", "url", cfg.NatsURL)
	}

	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		d.poster = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, logger)
		logger.Info("slack poster ready", "channel", cfg.SlackChannel)
	}

	return d, nil
}

// sinks converts the configured outputs to audit sinks, leaving absent ones
// as untyped nil.
func (d *deps) sinks() audit.Sinks {
	var s audit.Sinks
	if d.store != nil {
		s.Store = d.store
	}
	if d.bus != nil {
		s.Publisher = d.bus
	}
	if d.poster != nil {
		s.Notifier = d.poster
	}
	return s
}

// flush waits for published events to reach the server before a short-lived
// process exits.
func (d *deps) flush(ctx context.Context) {
	if d.bus == nil {
		return
	}
	if err := d.bus.Flush(ctx); err != nil {
		d.logger.Warn("nats flush failed", "error", err)
	}
}

func (d *deps) Close() {
	if d.bus != nil {
		d.bus.Close()
	}
	if d.store != nil {
		d.store.Close()
	}
}
