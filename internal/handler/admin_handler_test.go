package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parisxmas/leadsite/internal/funnel"
	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/service"
)

var errStore = errors.New("sqlite: database is locked at /var/lib/leadsite/leadsite.db")

type brokenDeadLetters struct{}

func (brokenDeadLetters) ListRecent(context.Context, int) ([]models.DeadLetter, error) {
	return nil, errStore
}

func (brokenDeadLetters) CountBySink(context.Context) (map[string]int, error) {
	return nil, errStore
}

type brokenFunnel struct{}

func (brokenFunnel) Hit(context.Context, string, string) error { return errStore }

func (brokenFunnel) Counts(context.Context) (map[string]int, error) { return nil, errStore }

type emptyFunnel struct{}

func (emptyFunnel) Hit(context.Context, string, string) error { return nil }

func (emptyFunnel) Counts(context.Context) (map[string]int, error) { return map[string]int{}, nil }

func serve(t *testing.T, h http.HandlerFunc) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["message"])
	assert.Equal(t, false, body["success"])
	return body
}

func TestAdminErrorsHideDetailInProduction(t *testing.T) {
	svc := service.NewAdminService("ops@example.com", "", "secret", brokenDeadLetters{}, nil)
	broken := funnel.New(brokenFunnel{}, zap.NewNop())
	healthy := funnel.New(emptyFunnel{}, zap.NewNop())

	for _, expose := range []bool{false, true} {
		handlers := map[string]http.HandlerFunc{
			"dead letters":    NewAdminHandler(svc, healthy, expose).DeadLetters,
			"funnel":          NewAdminHandler(svc, broken, expose).Funnel,
			"funnel png":      NewAdminHandler(svc, broken, expose).FunnelPNG,
			"dashboard count": NewDashboardHandler(svc, broken, expose).Dashboard,
			"dashboard store": NewDashboardHandler(svc, healthy, expose).Dashboard,
		}
		for name, h := range handlers {
			body := serve(t, h)
			if expose {
				assert.Contains(t, body["error"], "database is locked", name)
			} else {
				assert.NotContains(t, body, "error", name)
			}
		}
	}
}
