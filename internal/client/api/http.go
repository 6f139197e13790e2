package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stayonbrand/gatekeeper/internal/logging"
)

const csrfHeader = "X-CSRF-Token"

var _ Client = (*HTTPClient)(nil)

// HTTPClient talks JSON to the auth proxy under a configurable base URL.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	logger  logging.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CSRFToken fetches a fresh anti-forgery token.
func (c *HTTPClient) CSRFToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/csrf-token", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get CSRF token: status %d", resp.StatusCode)
	}

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode CSRF token: %w", err)
	}
	return body.CSRFToken, nil
}

// post sends payload as JSON and decodes a 2xx body into out. Before the
// request it tries to obtain a CSRF token; a failed acquisition is logged
// and the request proceeds without the header.
func (c *HTTPClient) post(ctx context.Context, path string, payload any, out any) error {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		c.logger.Warn(ctx, "CSRF token fetch failed, proceeding without it", "error", err)
		token = ""
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(csrfHeader, token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeBackendError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeBackendError extracts the message from a non-2xx body. The backend
// uses "error" in some endpoints and "message" in others.
func decodeBackendError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			msg = body.Error
		} else {
			msg = body.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &BackendError{Status: resp.StatusCode, Message: msg}
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var body struct {
		AccessToken string `json:"accessToken"`
		Token       string `json:"token"`
		User        *User  `json:"user"`
	}

	payload := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/auth/login", payload, &body); err != nil {
		return nil, err
	}

	token := body.AccessToken
	if token == "" {
		token = body.Token
	}
	return &LoginResult{AccessToken: token, User: body.User}, nil
}

func (c *HTTPClient) Signup(ctx context.Context, email, password, username string) (*SignupResult, error) {
	var res SignupResult

	payload := map[string]string{"email": email, "password": password, "username": username}
	if err := c.post(ctx, "/auth/signup-username", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (*MessageResult, error) {
	var res MessageResult

	payload := map[string]string{"email": email}
	if err := c.post(ctx, "/auth/forgot-password", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, code, newPassword string) (*MessageResult, error) {
	var res MessageResult

	payload := map[string]string{"email": email, "code": code, "newPassword": newPassword}
	if err := c.post(ctx, "/auth/reset-password", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
