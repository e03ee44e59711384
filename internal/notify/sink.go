// Package notify delivers accepted leads to external collaborators without
// holding up the request that accepted them.
package notify

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/parisxmas/leadsite/internal/models"
)

// Sink is one external collaborator a lead is delivered to.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, lead models.Lead) error
}

// DeadLetterStore keeps deliveries that ran out of retries.
type DeadLetterStore interface {
	Save(ctx context.Context, dl models.DeadLetter) error
}

// Permanent marks err as not worth retrying (bad credentials, rejected payload).
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// LogSink stands in for a collaborator that has no credentials configured.
// It only logs the lead it would have delivered.
type LogSink struct {
	name string
	log  *zap.Logger
}

func NewLogSink(name string, log *zap.Logger) *LogSink {
	return &LogSink{name: name, log: log}
}

func (s *LogSink) Name() string { return s.name }

func (s *LogSink) Deliver(_ context.Context, lead models.Lead) error {
	s.log.Info("sink not configured, lead logged only",
		zap.String("sink", s.name),
		zap.String("lead_id", lead.ID),
		zap.String("service", lead.TipoServico))
	return nil
}

// StoreSink adapts a lead repository to a Sink.
type StoreSink struct {
	name  string
	store interface {
		Create(ctx context.Context, lead models.Lead) (string, error)
	}
}

func NewStoreSink(name string, store interface {
	Create(ctx context.Context, lead models.Lead) (string, error)
}) *StoreSink {
	return &StoreSink{name: name, store: store}
}

func (s *StoreSink) Name() string { return s.name }

func (s *StoreSink) Deliver(ctx context.Context, lead models.Lead) error {
	_, err := s.store.Create(ctx, lead)
	return err
}
