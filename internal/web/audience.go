package web

import (
	"context"
	"net/http"
	"strings"
)

const (
	audienceParam  = "publico"
	audienceCookie = "leadsite_publico"
)

// Audience is the site variant a visitor is shown.
type Audience string

const (
	AudienceGeral         Audience = "geral"
	AudienceEmpresas      Audience = "empresas"
	AudienceProfissionais Audience = "profissionais"
)

func ParseAudience(s string) (Audience, bool) {
	switch a := Audience(strings.ToLower(strings.TrimSpace(s))); a {
	case AudienceGeral, AudienceEmpresas, AudienceProfissionais:
		return a, true
	}
	return "", false
}

type audienceKey struct{}

// AudienceFrom returns the variant chosen for the request.
func AudienceFrom(ctx context.Context) Audience {
	if a, ok := ctx.Value(audienceKey{}).(Audience); ok {
		return a
	}
	return AudienceGeral
}

func WithAudience(ctx context.Context, a Audience) context.Context {
	return context.WithValue(ctx, audienceKey{}, a)
}

// AudienceMiddleware resolves the variant from ?publico=, falling back to
// the cookie that caches the last explicit choice.
func AudienceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := AudienceGeral
		if q, ok := ParseAudience(r.URL.Query().Get(audienceParam)); ok {
			a = q
			http.SetCookie(w, &http.Cookie{
				Name:     audienceCookie,
				Value:    string(a),
				Path:     "/",
				MaxAge:   365 * 24 * 3600,
				SameSite: http.SameSiteLaxMode,
			})
		} else if c, err := r.Cookie(audienceCookie); err == nil {
			if v, ok := ParseAudience(c.Value); ok {
				a = v
			}
		}
		next.ServeHTTP(w, r.WithContext(WithAudience(r.Context(), a)))
	})
}
