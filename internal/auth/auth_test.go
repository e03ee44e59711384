package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("s3cret", "ops@example.com", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = ValidateToken("other", tok)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	tok, err := GenerateToken("s3cret", "ops@example.com", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken("s3cret", tok)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPassword("hunter2", hash))
	assert.False(t, CheckPassword("hunter3", hash))
	assert.False(t, CheckPassword("hunter2", "not-a-hash"))
}

func TestMiddleware(t *testing.T) {
	admin, err := GenerateToken("s3cret", "ops@example.com", RoleAdmin, time.Hour)
	require.NoError(t, err)
	viewer, err := GenerateToken("s3cret", "v@example.com", "viewer", time.Hour)
	require.NoError(t, err)

	h := Middleware("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUser(r.Context()).Email))
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + viewer, http.StatusForbidden},
		{"admin", "Bearer " + admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "ops@example.com", rec.Body.String())
			}
		})
	}
}
