package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/parisxmas/leadsite/internal/auth"
	"github.com/parisxmas/leadsite/internal/handler"
	mw "github.com/parisxmas/leadsite/internal/middleware"
	"github.com/parisxmas/leadsite/internal/web"
)

type Options struct {
	JWTSecret    string
	BodyLimit    int64
	ExposeErrors bool
	Log          *zap.Logger
}

func New(
	opts Options,
	leadH *handler.LeadHandler,
	authH *handler.AuthHandler,
	dashH *handler.DashboardHandler,
	adminH *handler.AdminHandler,
	site *web.Site,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Recovery(opts.Log, opts.ExposeErrors))
	r.Use(mw.Logger(opts.Log))
	r.Use(mw.CORS)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/healthz", web.Health)

	// Public site
	r.Group(func(r chi.Router) {
		r.Use(web.AudienceMiddleware)
		r.Get("/", site.Landing)
		r.Get("/orcamento", site.Wizard)
		r.Post("/orcamento", site.WizardAction)
		r.Get("/robots.txt", site.Robots)
		r.Get("/sitemap.xml", site.Sitemap)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.BodyLimit(opts.BodyLimit))

		// Every method reaches the handler so non-POST gets Allow: POST.
		r.HandleFunc("/leads", leadH.Create)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", authH.Login)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(opts.JWTSecret))
				r.Get("/dashboard", dashH.Dashboard)
				r.Get("/dead-letters", adminH.DeadLetters)
				r.Get("/funnel", adminH.Funnel)
				r.Get("/funnel.png", adminH.FunnelPNG)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"Not found"}`))
	})

	return r
}
