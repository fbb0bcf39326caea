package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// tokenResponse is the token endpoint's JSON payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// acquire obtains a token, consulting storage before the network. Exactly
// one acquire runs at a time; the singleflight group in Token guarantees it.
func (m *Manager) acquire(ctx context.Context) (*token, error) {
	if m.storage != nil {
		if t := m.loadStored(ctx); t != nil {
			return t, nil
		}
	}

	t, err := m.exchange(ctx)
	if err != nil {
		return nil, err
	}

	if m.storage != nil {
		saveCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := m.storage.Save(saveCtx, t.value, t.expiresAt)
		cancel()
		if err != nil {
			// The token is still valid for this process; persistence only
			// benefits the next one.
			m.logger.Warn("failed to persist access token", "error", err)
		}
	}
	return t, nil
}

// loadStored adopts a token from storage when it has more than ExpiryMargin
// of life left. Storage access shares the manager's request timeout.
func (m *Manager) loadStored(ctx context.Context) *token {
	loadCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	value, expiry, err := m.storage.Load(loadCtx)
	if err != nil {
		m.logger.Warn("token storage load failed", "error", err)
		return nil
	}
	if value == "" {
		return nil
	}
	if remaining := time.Until(expiry); remaining <= ExpiryMargin {
		m.logger.Debug("stored access token too close to expiry",
			"remaining", remaining.Round(time.Second),
		)
		return nil
	}
	return &token{value: value, expiresAt: expiry, fromStorage: true}
}

// exchange performs the client-credentials grant against the token endpoint.
func (m *Manager) exchange(ctx context.Context) (*token, error) {
	reqCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	form := url.Values{
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled by Invalidate, Close, or the initiating caller:
			// not a transport failure.
			return nil, ctx.Err()
		}
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ExchangeError{
			Message: fmt.Sprintf("token endpoint returned status %d", resp.StatusCode),
		}
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ExchangeError{Message: "token endpoint returned malformed JSON", Err: err}
	}
	if payload.AccessToken == "" {
		return nil, &ExchangeError{Message: "token endpoint returned no access token"}
	}
	if payload.ExpiresIn <= 0 {
		return nil, &ExchangeError{Message: "token endpoint returned no token lifetime"}
	}

	ttl := time.Duration(payload.ExpiresIn) * time.Second
	if ttl <= ExpiryMargin {
		return nil, &ExchangeError{
			Message: fmt.Sprintf("token lifetime of %s is too short to cache", ttl),
		}
	}

	return &token{value: payload.AccessToken, expiresAt: time.Now().Add(ttl)}, nil
}
