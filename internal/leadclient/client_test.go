package leadclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/leadsite/internal/models"
)

func sampleFields() models.LeadFields {
	return models.LeadFields{
		Nome:             "Ana",
		WhatsApp:         "71999999999",
		Email:            "a@b.com",
		TipoServico:      "landing",
		DescricaoProjeto: "Página para evento",
		Orcamento:        "5k-10k",
		Prazo:            "30 dias",
		Urgencia:         "alta",
	}
}

type captureOpener struct {
	links []string
	err   error
}

func (o *captureOpener) Open(_ context.Context, link string) error {
	o.links = append(o.links, link)
	return o.err
}

func decodeText(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("text")
}

func TestSubmitPersistsAndOpensFullMessage(t *testing.T) {
	var got map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, LeadsPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true,"message":"Lead received successfully","leadId":"lead_1_abc"}`))
	}))
	defer ts.Close()

	op := &captureOpener{}
	out := New(ts.URL, "+55 (71) 98888-7777", op, WithSource("cli")).Submit(context.Background(), sampleFields())

	require.NoError(t, out.Err)
	assert.True(t, out.OK())
	assert.True(t, out.Persisted)
	assert.True(t, out.Notified)
	assert.Equal(t, "lead_1_abc", out.LeadID)

	assert.Equal(t, "Ana", got["nome"])
	assert.Equal(t, "cli", got["source"])
	assert.NotEmpty(t, got["timestamp"])

	require.Equal(t, []string{out.DeepLink}, op.links)
	assert.True(t, strings.HasPrefix(out.DeepLink, "https://wa.me/5571988887777?text="))
	assert.Equal(t, FullMessage(sampleFields()), decodeText(t, out.DeepLink))
}

func TestSubmitBackendFailureStillNotifies(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"validation error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success":false,"message":"Missing required fields: nome"}`))
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`<html>oops</html>`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			op := &captureOpener{}
			out := New(ts.URL, "5571988887777", op).Submit(context.Background(), sampleFields())

			assert.True(t, out.OK())
			assert.False(t, out.Persisted)
			assert.True(t, out.Notified)
			assert.Error(t, out.Err)
			assert.Empty(t, out.LeadID)
			assert.Equal(t, FallbackMessage(sampleFields()), decodeText(t, out.DeepLink))
		})
	}
}

func TestSubmitUnreachableBackend(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	op := &captureOpener{}
	out := New(base, "5571988887777", op).Submit(context.Background(), sampleFields())
	assert.False(t, out.Persisted)
	assert.True(t, out.Notified)
	assert.Len(t, op.links, 1)
}

func TestSubmitOpenerFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"leadId":"lead_2"}`))
	}))
	defer ts.Close()

	out := New(ts.URL, "1", &captureOpener{err: errors.New("no browser")}).Submit(context.Background(), sampleFields())
	assert.True(t, out.Persisted)
	assert.False(t, out.Notified)
	assert.ErrorContains(t, out.Err, "no browser")
}

func TestDeepLink(t *testing.T) {
	link := DeepLink("+55 71 9999-0000", "Olá & até já?")
	assert.Equal(t, "https://wa.me/557199990000?text=Ol%C3%A1%20%26%20at%C3%A9%20j%C3%A1%3F", link)

	link = DeepLink("5571", "Olá mundo 1+1")
	assert.Equal(t, "https://wa.me/5571?text=Ol%C3%A1%20mundo%201%2B1", link)
	assert.NotContains(t, strings.TrimPrefix(link, "https://wa.me/5571?text="), "+")
	assert.Equal(t, "Olá & até já?", decodeText(t, link))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5571988887777", NormalizePhone("+55 (71) 98888-7777"))
	assert.Equal(t, "", NormalizePhone("abc"))
}

func TestMessageTemplates(t *testing.T) {
	g := goldie.New(t)
	g.Assert(t, "full_message", []byte(FullMessage(sampleFields())))
	g.Assert(t, "fallback_message", []byte(FallbackMessage(sampleFields())))
}

func TestSettle(t *testing.T) {
	ok := Settle("5571", sampleFields(), "lead_9", nil)
	assert.True(t, ok.OK())
	assert.True(t, ok.Persisted)
	assert.False(t, ok.Notified)
	assert.Equal(t, "lead_9", ok.LeadID)
	assert.Equal(t, FullMessage(sampleFields()), decodeText(t, ok.DeepLink))

	failed := Settle("5571", sampleFields(), "", errors.New("diagnostic log: open: denied"))
	assert.True(t, failed.OK())
	assert.False(t, failed.Persisted)
	assert.Empty(t, failed.LeadID)
	assert.ErrorContains(t, failed.Err, "denied")
	assert.Equal(t, FallbackMessage(sampleFields()), decodeText(t, failed.DeepLink))
}
