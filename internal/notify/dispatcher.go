package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"blkout/internal/notify/metrics"
	"blkout/pkg/platform/circuit"
)

// Dispatcher fans one event out to every configured endpoint concurrently.
// Endpoint failures are independent: one slow or dead platform never blocks
// the others, and no failure propagates to the caller.
type Dispatcher struct {
	endpoints []Endpoint
	client    *WebhookClient
	log       DeliveryLogStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
	breakers  map[string]*circuit.Breaker
}

func NewDispatcher(
	endpoints []Endpoint,
	client *WebhookClient,
	log DeliveryLogStore,
	logger *slog.Logger,
	m *metrics.Metrics,
	timeout time.Duration,
) *Dispatcher {
	if log == nil {
		log = NewMemoryDeliveryLog()
	}
	breakers := make(map[string]*circuit.Breaker, len(endpoints))
	for _, endpoint := range endpoints {
		breakers[endpoint.Platform] = circuit.New(endpoint.Platform)
	}
	return &Dispatcher{
		endpoints: endpoints,
		client:    client,
		log:       log,
		logger:    logger,
		metrics:   m,
		timeout:   timeout,
		breakers:  breakers,
	}
}

// DeliveryLog exposes the attempt trail for operational queries.
func (d *Dispatcher) DeliveryLog() DeliveryLogStore { return d.log }

// Dispatch delivers the event to all endpoints and records every attempt.
// It blocks until all deliveries finish or time out; the worker calls it off
// the request path.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	if len(d.endpoints) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, endpoint := range d.endpoints {
		g.Go(func() error {
			d.deliver(gctx, endpoint, event)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, endpoint Endpoint, event Event) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// An open circuit degrades the retry budget to a single probe so a dead
	// platform stops consuming backoff time on every event.
	breaker := d.breakers[endpoint.Platform]
	attempts := retryAttempts
	if breaker.IsOpen() {
		attempts = 1
	}

	start := time.Now()
	err := d.client.SendAttempts(sendCtx, endpoint, event, attempts)
	elapsed := time.Since(start)

	if err != nil {
		if _, change := breaker.RecordFailure(); change.Opened {
			d.logger.WarnContext(ctx, "webhook circuit opened", "platform", endpoint.Platform)
		}
	} else {
		if _, change := breaker.RecordSuccess(); change.Closed {
			d.logger.InfoContext(ctx, "webhook circuit closed", "platform", endpoint.Platform)
		}
	}

	attempt := DeliveryAttempt{
		Platform:    endpoint.Platform,
		Workflow:    event.WorkflowSlug(),
		Delivered:   err == nil,
		AttemptedAt: event.OccurredAt,
	}
	if err != nil {
		attempt.Error = err.Error()
		d.logger.WarnContext(ctx, "webhook delivery failed",
			"platform", endpoint.Platform,
			"workflow", attempt.Workflow,
			"submission_id", event.Record.ID,
			"error", err.Error(),
		)
	} else {
		d.logger.InfoContext(ctx, "webhook delivered",
			"platform", endpoint.Platform,
			"workflow", attempt.Workflow,
			"submission_id", event.Record.ID,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	d.metrics.RecordDelivery(endpoint.Platform, err == nil, elapsed.Seconds())
	if logErr := d.log.Append(ctx, event.Record.ID, attempt); logErr != nil {
		d.logger.ErrorContext(ctx, "delivery log append failed",
			"submission_id", event.Record.ID,
			"error", logErr.Error(),
		)
	}
}
