package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/telemetry"
)

// ErrClosed is returned by Shutdown when called twice.
var ErrClosed = errors.New("notify: dispatcher closed")

const reasonQueueFull = "queue full"

type Options struct {
	Workers        int
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxElapsed     time.Duration
	AttemptTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.QueueSize < 1 {
		o.QueueSize = 1
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 500 * time.Millisecond
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 15 * time.Second
	}
	return o
}

// Dispatcher fans each lead out to every sink on a worker pool. Dispatch
// never blocks; per-sink failures are retried with exponential backoff and
// then dead-lettered.
type Dispatcher struct {
	sinks  []Sink
	dead   DeadLetterStore
	log    *zap.Logger
	tracer trace.Tracer
	opts   Options

	queue  chan models.Lead
	mu     sync.RWMutex
	closed bool

	ctx     context.Context
	cancel  context.CancelFunc
	group   errgroup.Group
	rejects sync.WaitGroup
}

func NewDispatcher(sinks []Sink, dead DeadLetterStore, log *zap.Logger, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sinks:  sinks,
		dead:   dead,
		log:    log,
		tracer: telemetry.Tracer("leadsite/notify"),
		opts:   opts,
		queue:  make(chan models.Lead, opts.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	for i := 0; i < d.opts.Workers; i++ {
		d.group.Go(func() error {
			for lead := range d.queue {
				d.fanOut(lead)
			}
			return nil
		})
	}
	d.log.Info("dispatcher started",
		zap.Int("workers", d.opts.Workers),
		zap.Int("queue_size", d.opts.QueueSize),
		zap.Int("sinks", len(d.sinks)))
}

// Dispatch enqueues lead for delivery and returns immediately. When the
// queue is full every sink is dead-lettered in the background; Shutdown
// waits for those writes. After Shutdown the dead letters are written inline.
func (d *Dispatcher) Dispatch(lead models.Lead) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("dispatch after shutdown, dead-lettering all sinks", zap.String("lead_id", lead.ID))
		d.reject(lead)
		return
	}
	select {
	case d.queue <- lead:
		return
	default:
	}
	d.log.Warn("dispatch queue full, dead-lettering all sinks", zap.String("lead_id", lead.ID))
	d.rejects.Add(1)
	go func() {
		defer d.rejects.Done()
		d.reject(lead)
	}()
}

func (d *Dispatcher) reject(lead models.Lead) {
	for _, s := range d.sinks {
		d.deadLetter(lead, s.Name(), 0, errors.New(reasonQueueFull))
	}
}

// Shutdown stops accepting leads and waits for queued ones to be delivered.
// When ctx expires first, in-flight retries are abandoned (and dead-lettered).
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.group.Wait()
		d.rejects.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) fanOut(lead models.Lead) {
	ctx, span := d.tracer.Start(d.ctx, "notify.fanout", trace.WithAttributes(attribute.String("lead.id", lead.ID)))
	defer span.End()

	errs := make([]error, len(d.sinks))
	var wg sync.WaitGroup
	for i, s := range d.sinks {
		wg.Add(1)
		go func(i int, s Sink) {
			defer wg.Done()
			errs[i] = d.deliver(ctx, s, lead)
		}(i, s)
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fan-out incomplete")
		d.log.Error("lead notification fan-out failed", zap.String("lead_id", lead.ID), zap.Error(err))
		return
	}
	d.log.Info("lead notified", zap.String("lead_id", lead.ID), zap.Int("sinks", len(d.sinks)))
}

func (d *Dispatcher) deliver(ctx context.Context, s Sink, lead models.Lead) error {
	ctx, span := d.tracer.Start(ctx, "notify.deliver", trace.WithAttributes(attribute.String("sink", s.Name())))
	defer span.End()

	attempts := 0
	op := func() error {
		attempts++
		actx, cancel := context.WithTimeout(ctx, d.opts.AttemptTimeout)
		defer cancel()
		err := s.Deliver(actx, lead)
		if err != nil {
			d.log.Warn("sink attempt failed",
				zap.String("sink", s.Name()),
				zap.String("lead_id", lead.ID),
				zap.Int("attempt", attempts),
				zap.Error(err))
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.opts.InitialBackoff
	b.MaxElapsedTime = d.opts.MaxElapsed
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(d.opts.MaxAttempts-1)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		d.deadLetter(lead, s.Name(), attempts, err)
		return fmt.Errorf("%s: %w", s.Name(), err)
	}
	span.SetAttributes(attribute.Int("attempts", attempts))
	return nil
}

func (d *Dispatcher) deadLetter(lead models.Lead, sink string, attempts int, cause error) {
	if d.dead == nil {
		return
	}
	payload, _ := json.Marshal(lead)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := d.dead.Save(ctx, models.DeadLetter{
		LeadID:   lead.ID,
		Sink:     sink,
		Attempts: attempts,
		Error:    cause.Error(),
		Payload:  string(payload),
	})
	if err != nil {
		d.log.Error("dead letter save failed",
			zap.String("lead_id", lead.ID),
			zap.String("sink", sink),
			zap.NamedError("cause", cause),
			zap.Error(err))
	}
}
