package authproxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stayonbrand/gatekeeper/internal/logging"
	"github.com/stayonbrand/gatekeeper/internal/server/identity"
)

func newTestServer(t *testing.T, mailjetURL string) *Server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := logging.NewText(io.Discard)
	config := &Config{
		FrontendOrigin: "http://localhost:3000",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		CSRFTokenTTL:   10 * time.Minute,
		MailjetBaseURL: mailjetURL,
		MailjetListID:  "12345",
	}
	provider := identity.NewDevProvider(rdb, []byte(config.JWTSecret), config.TokenTTL, logger)
	return NewServer(config, provider, rdb, logger)
}

func csrfToken(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Get(ts.URL + "/csrf-token")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body["csrfToken"])
	return body["csrfToken"]
}

func postJSON(t *testing.T, ts *httptest.Server, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(csrfHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestPostWithoutCSRFToken_Forbidden(t *testing.T) {
	s := newTestServer(t, "http://mailjet.invalid")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp, body := postJSON(t, ts, "/auth/login", "", map[string]string{
		"email": "user@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Invalid CSRF token", body["error"])
}

func TestPreflight_AnswersWithCORSHeaders(t *testing.T) {
	s := newTestServer(t, "http://mailjet.invalid")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), csrfHeader)
}

func TestSignupAndLogin_Flow(t *testing.T) {
	s := newTestServer(t, "http://mailjet.invalid")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp, body := postJSON(t, ts, "/auth/signup-username", csrfToken(t, ts), map[string]string{
		"email": "user@example.com", "username": "user", "password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, body["user"])

	resp, body = postJSON(t, ts, "/auth/login", csrfToken(t, ts), map[string]string{
		"email": "user@example.com", "password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["accessToken"])
}

func TestSignup_DuplicateEmail(t *testing.T) {
	s := newTestServer(t, "http://mailjet.invalid")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	payload := map[string]string{"email": "dup@example.com", "username": "dup", "password": "pw"}
	resp, _ := postJSON(t, ts, "/auth/signup-username", csrfToken(t, ts), payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, ts, "/auth/signup-username", csrfToken(t, ts), payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "User already exists", body["error"])
}

func TestSignup_InvalidEmailFormat(t *testing.T) {
	s := newTestServer(t, "http://mailjet.invalid")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp, body := postJSON(t, ts, "/auth/signup-username", csrfToken(t, ts), map[string]string{
		"email": "not-an-email", "username": "u", "password": "pw",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid email format", body["error"])
}

func TestLogin_MailtoPrefixStripped(t *testing.T) {
	s := newTestServer(t, "http://mailjet.invalid")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp, _ := postJSON(t, ts, "/auth/signup-username", csrfToken(t, ts), map[string]string{
		"email": "link@example.com", "username": "link", "password": "pw",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, ts, "/auth/login", csrfToken(t, ts), map[string]string{
		"email": "mailto:link@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["accessToken"])
}

func TestForgotPassword_Message(t *testing.T) {
	s := newTestServer(t, "http://mailjet.invalid")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp, _ := postJSON(t, ts, "/auth/signup-username", csrfToken(t, ts), map[string]string{
		"email": "reset@example.com", "username": "reset", "password": "pw",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, ts, "/auth/forgot-password", csrfToken(t, ts), map[string]string{
		"email": "reset@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Password reset email sent", body["message"])
}

func TestWaitlistSubscribe(t *testing.T) {
	var gotPath string
	mailjet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "mj-key", user)
		w.WriteHeader(http.StatusCreated)
	}))
	defer mailjet.Close()

	s := newTestServer(t, mailjet.URL)
	s.waitlist.apiKey = "mj-key"
	s.waitlist.secretKey = "mj-secret"
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp, body := postJSON(t, ts, "/waitlist/subscribe", csrfToken(t, ts), map[string]string{
		"email": "Fan@Example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Successfully subscribed to the waitlist!", body["message"])
	require.Equal(t, "/v3/REST/contactslist/12345/managecontact", gotPath)
}

func TestWaitlistSubscribe_AlreadySubscribed(t *testing.T) {
	mailjet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer mailjet.Close()

	s := newTestServer(t, mailjet.URL)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	resp, body := postJSON(t, ts, "/waitlist/subscribe", csrfToken(t, ts), map[string]string{
		"email": "fan@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "You are already subscribed!", body["message"])
}
