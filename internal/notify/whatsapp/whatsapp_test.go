package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/leadsite/internal/models"
)

func TestDeliverPostsTextMessage(t *testing.T) {
	var got textMessage
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer ts.Close()

	s := New(ts.URL+"/", "12345", "tok", "5571988887777")
	err := s.Deliver(context.Background(), models.Lead{ID: "lead_1", LeadFields: models.LeadFields{Nome: "Ana"}})
	require.NoError(t, err)

	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "5571988887777", got.To)
	assert.Equal(t, "text", got.Type)
	assert.Contains(t, got.Text.Body, "Nome: Ana")
}

func TestDeliverClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		permanent bool
	}{
		{"unauthorized", http.StatusUnauthorized, true},
		{"bad request", http.StatusBadRequest, true},
		{"rate limited", http.StatusTooManyRequests, false},
		{"server error", http.StatusBadGateway, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"nope"}`, tt.status)
			}))
			defer ts.Close()

			err := New(ts.URL, "1", "tok", "55").Deliver(context.Background(), models.Lead{ID: "lead_1"})
			require.Error(t, err)
			var perm *backoff.PermanentError
			assert.Equal(t, tt.permanent, errors.As(err, &perm))
		})
	}
}
