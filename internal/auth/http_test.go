package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"BuildStore/internal/auth"
)

const secret = "test-secret-test-secret-test-secret!"

func newServer(t *testing.T) *auth.Server {
	t.Helper()
	creds, err := auth.NewCredentials("admin", "admin123")
	require.NoError(t, err)
	return &auth.Server{
		Log:      zap.NewNop(),
		Creds:    creds,
		JWT:      auth.NewTokenMaker(secret),
		TokenTTL: time.Hour,
	}
}

func login(t *testing.T, h http.Handler, remote, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": user, "password": pass})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLoginAndWhoAmI(t *testing.T) {
	h := newServer(t).Routes()

	rec := login(t, h, "10.0.0.1:1234", "admin", "admin123")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var lr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lr))
	require.NotEmpty(t, lr.AccessToken)
	assert.EqualValues(t, 3600, lr.ExpiresIn)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+lr.AccessToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":"admin","role":"admin"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejects(t *testing.T) {
	h := newServer(t).Routes()

	assert.Equal(t, http.StatusUnauthorized, login(t, h, "10.0.0.2:1", "admin", "nope").Code)
	assert.Equal(t, http.StatusUnauthorized, login(t, h, "10.0.0.2:1", "root", "admin123").Code)
	assert.Equal(t, http.StatusBadRequest, login(t, h, "10.0.0.2:1", "", "").Code)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"user":"admin"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	h := newServer(t).Routes()

	for i := 0; i < 5; i++ {
		rec := login(t, h, "10.0.0.3:1", "admin", "wrong")
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	rec := login(t, h, "10.0.0.3:1", "admin", "admin123")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// other clients are unaffected
	assert.Equal(t, http.StatusOK, login(t, h, "10.0.0.4:1", "admin", "admin123").Code)
}

func TestRequireAdmin(t *testing.T) {
	tm := auth.NewTokenMaker(secret)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, found := auth.AdminFromContext(r.Context())
		if !found || a.Username != "admin" {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	h := auth.RequireAdmin(tm)(ok)

	adminTok, err := tm.New("admin", auth.RoleAdmin, time.Minute)
	require.NoError(t, err)
	viewerTok, err := tm.New("viewer", "viewer", time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"admin", "Bearer " + adminTok, http.StatusNoContent},
		{"no header", "", http.StatusUnauthorized},
		{"basic scheme", "Basic YWRtaW46YWRtaW4=", http.StatusUnauthorized},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong role", "Bearer " + viewerTok, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
