package authproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stayonbrand/gatekeeper/internal/logging"
)

// WaitlistClient subscribes addresses to a Mailjet contact list.
type WaitlistClient struct {
	baseURL   string
	apiKey    string
	secretKey string
	listID    string
	http      *http.Client
	logger    logging.Logger
}

func NewWaitlistClient(config *Config, logger logging.Logger) *WaitlistClient {
	return &WaitlistClient{
		baseURL:   strings.TrimRight(config.MailjetBaseURL, "/"),
		apiKey:    config.MailjetAPIKey,
		secretKey: config.MailjetSecretKey,
		listID:    config.MailjetListID,
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

type manageContactRequest struct {
	Email  string `json:"Email"`
	Action string `json:"Action"`
}

// Subscribe adds the email to the configured list. A 400 from Mailjet
// means the contact already exists on the list.
func (c *WaitlistClient) Subscribe(ctx context.Context, email string) (string, error) {
	body, err := json.Marshal(manageContactRequest{Email: email, Action: "addnoforce"})
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/v3/REST/contactslist/%s/managecontact", c.baseURL, c.listID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return "You are already subscribed!", nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return "Successfully subscribed to the waitlist!", nil
	default:
		return "", fmt.Errorf("mailjet returned status %d", resp.StatusCode)
	}
}

func (s *Server) handleWaitlistSubscribe(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	email, ok := s.cleanEmail(w, strings.ToLower(req.Email))
	if !ok {
		return
	}
	message, err := s.waitlist.Subscribe(r.Context(), email)
	if err != nil {
		s.logger.Error(r.Context(), "waitlist subscription error", "email", email, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to subscribe, please try again later")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": message})
}
