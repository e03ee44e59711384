// Package email sends operator notifications over SMTP.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/notify"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Sink struct {
	client sender
	from   string
	to     string
}

func New(cfg Config) (*Sink, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(10 * time.Second),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("email: create client: %w", err)
	}
	return &Sink{client: client, from: cfg.From, to: cfg.To}, nil
}

func (s *Sink) Name() string { return "email" }

func (s *Sink) Deliver(ctx context.Context, lead models.Lead) error {
	m, err := s.message(lead)
	if err != nil {
		return notify.Permanent(err)
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	return nil
}

func (s *Sink) message(lead models.Lead) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("email: from address: %w", err)
	}
	if err := m.To(s.to); err != nil {
		return nil, fmt.Errorf("email: to address: %w", err)
	}
	// A malformed visitor address only loses the Reply-To header.
	if lead.Email != "" {
		_ = m.ReplyTo(lead.Email)
	}
	m.Subject(notify.Subject(lead))
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, notify.OperatorMessage(lead))
	return m, nil
}
