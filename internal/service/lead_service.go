package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parisxmas/leadsite/internal/models"
)

const DefaultSource = "website"

// MissingFieldsError reports required lead fields that were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

// Dispatcher hands an accepted lead to the notification fan-out. It must not block.
type Dispatcher interface {
	Dispatch(lead models.Lead)
}

// Provenance is what intake learns about the requester, never from the body.
// Source is the tag of the entry point that took the lead; empty means
// DefaultSource.
type Provenance struct {
	IP        string
	UserAgent string
	Source    string
}

type LeadService struct {
	dispatcher Dispatcher
	diag       *DiagnosticLog
	log        *zap.Logger
	now        func() time.Time
}

// NewLeadService wires intake to the fan-out. A nil diag disables the
// diagnostic append (production).
func NewLeadService(dispatcher Dispatcher, diag *DiagnosticLog, log *zap.Logger) *LeadService {
	return &LeadService{dispatcher: dispatcher, diag: diag, log: log, now: time.Now}
}

// Accept validates the input, stamps identity and provenance, appends the
// diagnostic line and dispatches. The returned lead is final.
func (s *LeadService) Accept(ctx context.Context, in models.LeadInput, prov Provenance) (models.Lead, error) {
	if missing := in.Missing(); len(missing) > 0 {
		return models.Lead{}, &MissingFieldsError{Fields: missing}
	}

	now := s.now()
	source := prov.Source
	if source == "" {
		source = DefaultSource
	}
	lead := models.Lead{
		ID:           NewLeadID(now),
		LeadFields:   in.LeadFields,
		Source:       source,
		ClientSource: strings.TrimSpace(in.Source),
		CreatedAt:    now.UTC().Format(time.RFC3339),
		IP:           prov.IP,
		UserAgent:    prov.UserAgent,
	}

	if s.diag != nil {
		if err := s.diag.Append(lead); err != nil {
			return models.Lead{}, err
		}
	}

	s.dispatcher.Dispatch(lead)
	s.log.Info("lead accepted",
		zap.String("lead_id", lead.ID),
		zap.String("source", lead.Source),
		zap.String("service", lead.TipoServico))
	return lead, nil
}

// NewLeadID returns lead_<unix millis>_<9 random hex chars>.
func NewLeadID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("lead_%d_%s", now.UnixMilli(), suffix)
}

// DiagnosticLog appends accepted leads as JSON lines to a local file. It is
// a development aid, not a store.
type DiagnosticLog struct {
	path string
	mu   sync.Mutex
}

func NewDiagnosticLog(path string) *DiagnosticLog {
	return &DiagnosticLog{path: path}
}

func (d *DiagnosticLog) Append(lead models.Lead) error {
	line, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("diagnostic log: encode: %w", err)
	}
	line = append(line, '\n')

	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("diagnostic log: open: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("diagnostic log: write: %w", err)
	}
	return f.Close()
}
