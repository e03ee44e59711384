package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/leadsite/internal/auth"
	"github.com/parisxmas/leadsite/internal/models"
)

type stubDeadLetters struct {
	rows    []models.DeadLetter
	bySink  map[string]int
	err     error
	lastLim int
}

func (s *stubDeadLetters) ListRecent(_ context.Context, limit int) ([]models.DeadLetter, error) {
	s.lastLim = limit
	return s.rows, s.err
}

func (s *stubDeadLetters) CountBySink(context.Context) (map[string]int, error) {
	return s.bySink, s.err
}

type stubCounter struct {
	n   int
	err error
}

func (s stubCounter) Count(context.Context) (int, error) { return s.n, s.err }

func newAdmin(t *testing.T, dead *stubDeadLetters, leads LeadCounter) *AdminService {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	return NewAdminService("ops@example.com", hash, "s3cret", dead, leads)
}

func TestAdminLogin(t *testing.T) {
	svc := newAdmin(t, &stubDeadLetters{}, nil)

	res, err := svc.Login("OPS@example.com", "correct horse")
	require.NoError(t, err)
	claims, err := auth.ValidateToken("s3cret", res.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.Equal(t, 86400, res.ExpiresIn)

	_, err = svc.Login("ops@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("someone@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminLoginWithoutConfiguredHash(t *testing.T) {
	svc := NewAdminService("ops@example.com", "", "s3cret", &stubDeadLetters{}, nil)
	_, err := svc.Login("ops@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminDeadLettersClampsLimit(t *testing.T) {
	dead := &stubDeadLetters{}
	svc := newAdmin(t, dead, nil)

	for _, tt := range []struct{ in, want int }{{0, 50}, {-3, 50}, {10, 10}, {1000, 50}} {
		_, err := svc.DeadLetters(context.Background(), tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, dead.lastLim, "limit %d", tt.in)
	}
}

func TestAdminDashboard(t *testing.T) {
	dead := &stubDeadLetters{bySink: map[string]int{"email": 2, "whatsapp": 1}}
	svc := newAdmin(t, dead, stubCounter{n: 7})

	d, err := svc.Dashboard(context.Background(), map[string]int{"step1": 4})
	require.NoError(t, err)
	assert.Equal(t, 3, d.DeadLetterCount)
	require.NotNil(t, d.StoredLeads)
	assert.Equal(t, 7, *d.StoredLeads)
	assert.Equal(t, 4, d.Funnel["step1"])

	svc = newAdmin(t, dead, stubCounter{err: errors.New("down")})
	d, err = svc.Dashboard(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, d.StoredLeads)

	svc = newAdmin(t, &stubDeadLetters{err: errors.New("locked")}, nil)
	_, err = svc.Dashboard(context.Background(), nil)
	assert.Error(t, err)
}
