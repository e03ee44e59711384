// Package web serves the public site: the landing page, the three-step quote
// wizard and the SEO files.
package web

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	g "maragu.dev/gomponents"

	"github.com/parisxmas/leadsite/internal/funnel"
	"github.com/parisxmas/leadsite/internal/leadclient"
	"github.com/parisxmas/leadsite/internal/middleware"
	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/service"
	"github.com/parisxmas/leadsite/internal/wizard"
)

// WizardSource tags leads taken by the server-rendered wizard.
const WizardSource = "wizard"

// Submitter records a completed wizard for the visitor described by prov.
type Submitter interface {
	Submit(ctx context.Context, fields models.LeadFields, prov service.Provenance) leadclient.Outcome
}

// Intake is the part of the lead service the wizard needs.
type Intake interface {
	Accept(ctx context.Context, in models.LeadInput, prov service.Provenance) (models.Lead, error)
}

// LocalSubmitter hands wizard leads to intake in-process, so they keep the
// visitor's address and user agent.
type LocalSubmitter struct {
	intake Intake
	phone  string
}

func NewLocalSubmitter(intake Intake, destinationPhone string) *LocalSubmitter {
	return &LocalSubmitter{intake: intake, phone: destinationPhone}
}

func (s *LocalSubmitter) Submit(ctx context.Context, fields models.LeadFields, prov service.Provenance) leadclient.Outcome {
	lead, err := s.intake.Accept(ctx, models.LeadInput{LeadFields: fields}, prov)
	return leadclient.Settle(s.phone, fields, lead.ID, err)
}

type Site struct {
	baseURL   string
	sessions  *SessionStore
	funnel    *funnel.Funnel
	submitter Submitter
	log       *zap.Logger
}

func NewSite(baseURL string, sessions *SessionStore, f *funnel.Funnel, submitter Submitter, log *zap.Logger) *Site {
	return &Site{baseURL: baseURL, sessions: sessions, funnel: f, submitter: submitter, log: log}
}

var stepStages = map[int]string{1: funnel.StageStep1, 2: funnel.StageStep2, 3: funnel.StageStep3}

func render(w http.ResponseWriter, status int, page g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = page.Render(w)
}

func (s *Site) Landing(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, landingPage(AudienceFrom(r.Context())))
}

// Wizard renders the current state of the visitor's quote wizard.
func (s *Site) Wizard(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.ctrl.Phase() == wizard.PhaseSuccess {
		render(w, http.StatusOK, successPage(sess.outcome))
		return
	}
	s.funnel.Reach(r.Context(), sess.ID, stepStages[sess.ctrl.Step()])
	errs := sess.errors
	sess.errors = nil
	render(w, http.StatusOK, wizardPage(sess.ctrl, errs))
}

// WizardAction applies a posted step: action=next validates and advances (or
// submits from the last step), back retreats, reset starts over.
func (s *Site) WizardAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := s.sessions.Load(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch r.PostForm.Get("action") {
	case "reset":
		sess.reset()
	case "back":
		sess.ctrl.Update(postedFields(r, sess.ctrl.Step()))
		sess.ctrl.Retreat()
	default:
		sess.ctrl.Update(postedFields(r, sess.ctrl.Step()))
		tr, errs := sess.ctrl.Advance()
		switch tr {
		case wizard.Blocked:
			sess.errors = errs
		case wizard.Submit:
			s.funnel.Reach(r.Context(), sess.ID, funnel.StageSubmitted)
			out := s.submitter.Submit(r.Context(), sess.ctrl.LeadFields(), service.Provenance{
				IP:        middleware.ClientIP(r),
				UserAgent: r.UserAgent(),
				Source:    WizardSource,
			})
			if out.Err != nil {
				s.log.Warn("wizard submission incomplete",
					zap.Bool("persisted", out.Persisted),
					zap.Bool("notified", out.Notified),
					zap.Error(out.Err))
			}
			sess.outcome = &out
			sess.ctrl.Settle()
		}
	}
	http.Redirect(w, r, "/orcamento", http.StatusSeeOther)
}

func postedFields(r *http.Request, step int) map[string]string {
	out := map[string]string{}
	for _, f := range stepForms[step] {
		if vs, ok := r.PostForm[f.Name]; ok && len(vs) > 0 {
			out[f.Name] = vs[0]
		}
	}
	return out
}

func (s *Site) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", s.baseURL)
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

func (s *Site) Sitemap(w http.ResponseWriter, r *http.Request) {
	set := urlset{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: s.baseURL + "/", ChangeFreq: "weekly", Priority: 1.0},
			{Loc: s.baseURL + "/orcamento", ChangeFreq: "monthly", Priority: 0.8},
		},
	}
	for _, a := range []Audience{AudienceEmpresas, AudienceProfissionais} {
		set.URLs = append(set.URLs, sitemapURL{Loc: s.baseURL + "/?publico=" + string(a), ChangeFreq: "monthly", Priority: 0.6})
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		s.log.Error("sitemap encode failed", zap.Error(err))
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
