package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/parisxmas/leadsite/internal/auth"
	"github.com/parisxmas/leadsite/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const tokenTTL = 24 * time.Hour

type DeadLetterReader interface {
	ListRecent(ctx context.Context, limit int) ([]models.DeadLetter, error)
	CountBySink(ctx context.Context) (map[string]int, error)
}

type LeadCounter interface {
	Count(ctx context.Context) (int, error)
}

// AdminService backs the operator API. There is a single admin account,
// configured by email and bcrypt hash.
type AdminService struct {
	email     string
	passHash  string
	jwtSecret string
	dead      DeadLetterReader
	leads     LeadCounter
}

// NewAdminService builds the service. leads may be nil when no document
// store is configured.
func NewAdminService(email, passHash, jwtSecret string, dead DeadLetterReader, leads LeadCounter) *AdminService {
	return &AdminService{email: email, passHash: passHash, jwtSecret: jwtSecret, dead: dead, leads: leads}
}

type LoginResult struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

func (s *AdminService) Login(email, password string) (*LoginResult, error) {
	if s.passHash == "" || !strings.EqualFold(email, s.email) {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, s.passHash) {
		return nil, ErrInvalidCredentials
	}
	token, err := s.Token()
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresIn: int(tokenTTL.Seconds())}, nil
}

// Token mints an admin token without a password check; used by the CLI.
func (s *AdminService) Token() (string, error) {
	return auth.GenerateToken(s.jwtSecret, s.email, auth.RoleAdmin, tokenTTL)
}

func (s *AdminService) DeadLetters(ctx context.Context, limit int) ([]models.DeadLetter, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.dead.ListRecent(ctx, limit)
}

type Dashboard struct {
	StoredLeads       *int           `json:"storedLeads,omitempty"`
	DeadLetterCount   int            `json:"deadLetterCount"`
	DeadLettersBySink map[string]int `json:"deadLettersBySink"`
	Funnel            map[string]int `json:"funnel"`
}

// Dashboard aggregates operator counters. Store errors on the optional lead
// count are tolerated; dead-letter errors are not.
func (s *AdminService) Dashboard(ctx context.Context, funnel map[string]int) (*Dashboard, error) {
	bySink, err := s.dead.CountBySink(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range bySink {
		total += n
	}
	d := &Dashboard{DeadLetterCount: total, DeadLettersBySink: bySink, Funnel: funnel}
	if s.leads != nil {
		if n, err := s.leads.Count(ctx); err == nil {
			d.StoredLeads = &n
		}
	}
	return d, nil
}
