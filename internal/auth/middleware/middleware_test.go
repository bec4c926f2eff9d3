package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_IssueAndParse(t *testing.T) {
	a := NewAuthService("test-secret", time.Hour)
	tok, exp, err := a.IssueJWT("user_1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user_1", c.Subject)

	_, err = NewAuthService("other-secret", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestAuthService_Expired(t *testing.T) {
	a := NewAuthService("test-secret", time.Minute)
	a.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _, err := a.IssueJWT("user_1")
	require.NoError(t, err)

	_, err = NewAuthService("test-secret", time.Minute).Parse(tok)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret", time.Hour)
	current := "user_2"
	var seen string
	h := JWTMiddleware(a, func() string { return current })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
	}))

	stale, _, err := a.IssueJWT("user_1")
	require.NoError(t, err)
	fresh, _, err := a.IssueJWT("user_2")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"previous incarnation", "Bearer " + stale, http.StatusUnauthorized},
		{"current", "Bearer " + fresh, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/session/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
	assert.Equal(t, "user_2", seen)
}

func TestEntryGate(t *testing.T) {
	assert.NoError(t, NewEntryGate("").Check("anything"))
	assert.False(t, NewEntryGate("").Enabled())

	hash, err := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	require.NoError(t, err)
	g := NewEntryGate(string(hash))
	assert.True(t, g.Enabled())
	assert.NoError(t, g.Check("open-sesame"))
	assert.ErrorIs(t, g.Check("wrong"), ErrBadEntryCode)
	assert.ErrorIs(t, g.Check(""), ErrBadEntryCode)
}

func TestHashEntryCode(t *testing.T) {
	h, err := HashEntryCode("42")
	require.NoError(t, err)
	assert.NoError(t, NewEntryGate(h).Check("42"))
}
