package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parisxmas/leadsite/internal/auth"
	"github.com/parisxmas/leadsite/internal/funnel"
	"github.com/parisxmas/leadsite/internal/handler"
	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/repository"
	"github.com/parisxmas/leadsite/internal/service"
	"github.com/parisxmas/leadsite/internal/web"
)

const (
	testSecret   = "test-secret"
	testLimit    = 1 << 20
	adminEmail   = "ops@example.com"
	adminPasswd  = "correct horse"
	scenarioBody = `{"nome":"Ana","whatsapp":"71999999999","email":"a@b.com","tipoServico":"landing"}`
)

type recordingDispatcher struct {
	mu    sync.Mutex
	leads []models.Lead
}

func (d *recordingDispatcher) Dispatch(lead models.Lead) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leads = append(d.leads, lead)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.leads)
}

type env struct {
	handler http.Handler
	disp    *recordingDispatcher
	dead    *repository.DeadLetterRepo
}

func newEnv(t *testing.T, exposeErrors bool, diag *service.DiagnosticLog) *env {
	t.Helper()
	log := zap.NewNop()
	disp := &recordingDispatcher{}
	dead, err := repository.NewDeadLetterRepo(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dead.Close() })

	hash, err := auth.HashPassword(adminPasswd)
	require.NoError(t, err)
	adminSvc := service.NewAdminService(adminEmail, hash, testSecret, dead, nil)
	f := funnel.New(repository.NewMemoryFunnelRepo(), log)
	leadSvc := service.NewLeadService(disp, diag, log)
	submitter := web.NewLocalSubmitter(leadSvc, "5571999999999")
	site := web.NewSite("https://example.com", web.NewSessionStore(time.Hour), f, submitter, log)

	r := New(Options{JWTSecret: testSecret, BodyLimit: testLimit, ExposeErrors: exposeErrors, Log: log},
		handler.NewLeadHandler(leadSvc, exposeErrors, log),
		handler.NewAuthHandler(adminSvc),
		handler.NewDashboardHandler(adminSvc, f, exposeErrors),
		handler.NewAdminHandler(adminSvc, f, exposeErrors),
		site,
	)
	return &env{handler: r, disp: disp, dead: dead}
}

func (e *env) do(t *testing.T, method, path, body string, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	var m map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	}
	return rec, m
}

func TestLeadAccepted(t *testing.T) {
	e := newEnv(t, true, nil)
	rec, body := e.do(t, http.MethodPost, "/api/leads", scenarioBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Lead received successfully", body["message"])
	assert.Regexp(t, `^lead_\d{13}_[0-9a-f]{9}$`, body["leadId"])
	assert.Equal(t, 1, e.disp.count())
}

func TestLeadMissingFields(t *testing.T) {
	e := newEnv(t, true, nil)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"scenario B empty nome", `{"nome":"","whatsapp":"71999999999","email":"a@b.com","tipoServico":"landing"}`,
			"Missing required fields: nome"},
		{"two missing in order", `{"tipoServico":"landing","whatsapp":"1","nome":" "}`,
			"Missing required fields: nome, email"},
		{"empty object", `{}`, "Missing required fields: nome, whatsapp, email, tipoServico"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := e.do(t, http.MethodPost, "/api/leads", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.want, body["message"])
		})
	}
	assert.Zero(t, e.disp.count())
}

func TestLeadInvalidJSON(t *testing.T) {
	e := newEnv(t, true, nil)
	for _, b := range []string{"", "{", "[]", `{"nome":5}`} {
		rec, body := e.do(t, http.MethodPost, "/api/leads", b)
		assert.Equal(t, http.StatusBadRequest, rec.Code, b)
		assert.Equal(t, "Invalid JSON body", body["message"], b)
	}
}

func TestLeadMethodNotAllowed(t *testing.T) {
	e := newEnv(t, true, nil)
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec, body := e.do(t, m, "/api/leads", scenarioBody)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, m)
		assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"), m)
		assert.Equal(t, "Method not allowed", body["message"], m)
	}
	assert.Zero(t, e.disp.count())
}

func TestLeadDistinctIDsForIdenticalBodies(t *testing.T) {
	e := newEnv(t, true, nil)
	_, a := e.do(t, http.MethodPost, "/api/leads", scenarioBody)
	_, b := e.do(t, http.MethodPost, "/api/leads", scenarioBody)
	assert.NotEqual(t, a["leadId"], b["leadId"])
}

func TestLeadBodyTooLarge(t *testing.T) {
	e := newEnv(t, true, nil)
	big := `{"nome":"Ana","whatsapp":"1","email":"a@b.com","tipoServico":"x","descricaoProjeto":"` +
		strings.Repeat("a", testLimit) + `"}`
	rec, body := e.do(t, http.MethodPost, "/api/leads", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request body too large", body["message"])
	assert.Zero(t, e.disp.count())

	req := httptest.NewRequest(http.MethodPost, "/api/leads", struct{ *bytes.Reader }{bytes.NewReader([]byte(big))})
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLeadDiagnosticFailure(t *testing.T) {
	bad := service.NewDiagnosticLog(t.TempDir() + "/missing/leads.jsonl")

	t.Run("development", func(t *testing.T) {
		e := newEnv(t, true, bad)
		rec, body := e.do(t, http.MethodPost, "/api/leads", scenarioBody)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", body["message"])
		assert.Contains(t, body["error"], "diagnostic log")
		assert.Zero(t, e.disp.count())
	})
	t.Run("production", func(t *testing.T) {
		e := newEnv(t, false, bad)
		rec, body := e.do(t, http.MethodPost, "/api/leads", scenarioBody)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, body, "error")
	})
}

func TestLeadProvenance(t *testing.T) {
	e := newEnv(t, true, nil)
	e.do(t, http.MethodPost, "/api/leads", `{"nome":"Ana","whatsapp":"1","email":"a@b.com","tipoServico":"x","source":"ads"}`,
		"X-Forwarded-For", "203.0.113.7, 10.0.0.1", "User-Agent", "test-agent")
	require.Equal(t, 1, e.disp.count())
	lead := e.disp.leads[0]
	assert.Equal(t, "203.0.113.7", lead.IP)
	assert.Equal(t, "test-agent", lead.UserAgent)
	assert.Equal(t, service.DefaultSource, lead.Source)
	assert.Equal(t, "ads", lead.ClientSource)
}

func TestWizardLeadKeepsVisitorProvenance(t *testing.T) {
	e := newEnv(t, true, nil)
	srv := httptest.NewServer(e.handler)
	defer srv.Close()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	post := func(form url.Values) string {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/orcamento", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		req.Header.Set("User-Agent", "Mozilla/5.0 visitor")
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(b)
	}

	post(url.Values{"action": {"next"}, "nome": {"Ana"}, "whatsapp": {"71999999999"}, "email": {"a@b.com"}})
	post(url.Values{"action": {"next"}, "tipoServico": {"landing"}, "descricaoProjeto": {"Evento"}})
	page := post(url.Values{"action": {"next"}, "orcamento": {"5k-10k"}, "prazo": {"30-dias"}})
	assert.Contains(t, page, "Protocolo: lead_")

	require.Equal(t, 1, e.disp.count())
	lead := e.disp.leads[0]
	assert.Equal(t, "203.0.113.7", lead.IP)
	assert.Equal(t, "Mozilla/5.0 visitor", lead.UserAgent)
	assert.Equal(t, web.WizardSource, lead.Source)
	assert.Equal(t, "Ana", lead.Nome)
	assert.Empty(t, lead.ClientSource)
}

func login(t *testing.T, e *env) string {
	t.Helper()
	rec, body := e.do(t, http.MethodPost, "/api/admin/login", `{"email":"`+adminEmail+`","password":"`+adminPasswd+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	return body["token"].(string)
}

func TestAdminRoutes(t *testing.T) {
	e := newEnv(t, true, nil)
	require.NoError(t, e.dead.Save(context.Background(), models.DeadLetter{
		LeadID: "lead_1", Sink: "email", Attempts: 3, Error: "smtp down", Payload: "{}",
	}))

	rec, _ := e.do(t, http.MethodGet, "/api/admin/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/admin/login", `{"email":"`+adminEmail+`","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	bearer := "Bearer " + login(t, e)

	rec, body := e.do(t, http.MethodGet, "/api/admin/dashboard", "", "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["deadLetterCount"])

	rec, body = e.do(t, http.MethodGet, "/api/admin/dead-letters?limit=5", "", "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, body = e.do(t, http.MethodGet, "/api/admin/funnel", "", "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["stages"], len(funnel.Stages))

	rec, _ = e.do(t, http.MethodGet, "/api/admin/funnel.png", "", "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec, body = e.do(t, http.MethodDelete, "/api/admin/dashboard", "", "Authorization", bearer)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", body["message"])
}

func TestSiteRoutes(t *testing.T) {
	e := newEnv(t, true, nil)
	rec, body := e.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = e.do(t, http.MethodGet, "/orcamento", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passo 1 de 3")

	rec, _ = e.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
