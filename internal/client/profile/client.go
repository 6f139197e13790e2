package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/stayonbrand/gatekeeper/internal/common"
)

// Fetcher is the profile backend contract consumed by the session state.
//
// GetUser returns common.ErrorNotFound for an unknown email; any other
// non-success response is a hard failure. GetOrCreateUser provisions a new
// record on not-found and applies the tier mapping when the backend record
// carries no tier.
type Fetcher interface {
	GetUser(ctx context.Context, email string) (*Profile, error)
	CreateUser(ctx context.Context, email string) (*Profile, error)
	GetOrCreateUser(ctx context.Context, email string) (*Profile, error)
}

// HTTPFetcher talks to the keycard API with a bearer token.
type HTTPFetcher struct {
	baseURL string
	token   string
	tiers   *TierMap
	hc      *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(baseURL, token string, timeout time.Duration, tiers *TierMap) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: baseURL,
		token:   token,
		tiers:   tiers,
		hc:      &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) GetUser(ctx context.Context, email string) (*Profile, error) {
	u := f.baseURL + "/user/" + url.PathEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, common.ErrorNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user: %s", resp.Status)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return Normalize(&p), nil
}

func (f *HTTPFetcher) CreateUser(ctx context.Context, email string) (*Profile, error) {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/user", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create user: %s", resp.Status)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return Normalize(&p), nil
}

// GetOrCreateUser looks a profile up by email and provisions one when the
// lookup comes back not-found.
func (f *HTTPFetcher) GetOrCreateUser(ctx context.Context, email string) (*Profile, error) {
	p, err := f.GetUser(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		p, err = f.CreateUser(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	if p.ActiveTier == nil && f.tiers != nil {
		tier := f.tiers.Tier(p.UserUUID)
		p.ActiveTier = &tier
	}
	return p, nil
}
