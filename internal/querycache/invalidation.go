package querycache

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/kafka"
)

// InvalidationEvent asks every query service to drop its cached parses,
// for example after stopword lists or stemmers change on deploy.
type InvalidationEvent struct {
	Reason    string    `json:"reason"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Invalidator is the cache operation an InvalidationListener triggers.
type Invalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// InvalidationListener turns invalidation events consumed from Kafka into
// cache flushes.
type InvalidationListener struct {
	cache  Invalidator
	logger *slog.Logger
}

func NewInvalidationListener(cache Invalidator) *InvalidationListener {
	return &InvalidationListener{
		cache:  cache,
		logger: slog.Default().With("component", "cache-invalidation"),
	}
}

// HandleMessage satisfies kafka.MessageHandler.
func (l *InvalidationListener) HandleMessage(ctx context.Context, key, value []byte) error {
	ev, err := kafka.DecodeJSON[InvalidationEvent](value)
	if err != nil {
		return err
	}
	deleted, err := l.cache.Invalidate(ctx)
	if err != nil {
		return err
	}
	l.logger.Info("cache flushed on request",
		"reason", ev.Reason,
		"source", ev.Source,
		"keys_deleted", deleted,
	)
	return nil
}
