package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/resilience"
)

// Publisher is the Kafka producer surface the collector uses.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// CollectorConfig tunes batching. Zero values select defaults.
type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	Retry         resilience.RetryConfig
}

// Collector buffers parse events and publishes them to Kafka in batches,
// either when BatchSize events are pending or every FlushInterval. Track
// never blocks: when the buffer is full the event is dropped and counted.
type Collector struct {
	publisher Publisher
	cfg       CollectorConfig
	eventCh   chan ParseEvent
	logger    *slog.Logger
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	dropped   atomic.Int64
	published atomic.Int64
}

func NewCollector(publisher Publisher, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Collector{
		publisher: publisher,
		cfg:       cfg,
		eventCh:   make(chan ParseEvent, cfg.BufferSize),
		logger:    slog.Default().With("component", "analytics-collector"),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the publish loop. It runs until Close is called or ctx is
// cancelled; in both cases buffered events get a final flush.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
		"flush_interval", c.cfg.FlushInterval,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.cfg.BatchSize)
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, toKafkaEvent(event))
			if len(batch) >= c.cfg.BatchSize {
				batch = c.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = c.flush(ctx, batch)
		case <-c.quit:
			c.drain(batch)
			return
		case <-ctx.Done():
			c.drain(batch)
			return
		}
	}
}

// drain moves whatever is still buffered into batch and flushes it.
func (c *Collector) drain(batch []kafka.Event) {
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, toKafkaEvent(event))
		default:
			c.finalFlush(batch)
			return
		}
	}
}

// Track queues event for publishing. Events tracked after Close are
// dropped.
func (c *Collector) Track(event ParseEvent) {
	if c.closed.Load() {
		c.dropped.Add(1)
		return
	}
	select {
	case c.eventCh <- event:
	default:
		if c.dropped.Add(1)%1000 == 1 {
			c.logger.Warn("analytics events dropped (buffer full)", "dropped_total", c.dropped.Load())
		}
	}
}

// Close stops accepting events, flushes what is buffered and waits for the
// loop to exit. Start must have been called. Close is idempotent, and Track
// remains safe to call afterwards.
func (c *Collector) Close() {
	c.closed.Store(true)
	c.closeOnce.Do(func() { close(c.quit) })
	<-c.done
}

// Dropped returns how many events were discarded because the buffer was full.
func (c *Collector) Dropped() int64 { return c.dropped.Load() }

// Published returns how many events reached Kafka.
func (c *Collector) Published() int64 { return c.published.Load() }

func (c *Collector) flush(ctx context.Context, batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 {
		return batch
	}
	err := resilience.Retry(ctx, "publish analytics batch", c.cfg.Retry, func(ctx context.Context) error {
		return c.publisher.PublishBatch(ctx, batch)
	})
	if err != nil {
		c.logger.Error("analytics batch dropped", "events", len(batch), "error", err)
		c.dropped.Add(int64(len(batch)))
	} else {
		c.published.Add(int64(len(batch)))
	}
	return batch[:0]
}

func (c *Collector) finalFlush(batch []kafka.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.flush(ctx, batch)
}

// toKafkaEvent keys events by language so one language's events stay
// ordered within a partition.
func toKafkaEvent(e ParseEvent) kafka.Event {
	return kafka.Event{Key: e.Language, Value: e}
}
