package tailscale

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Keys returns the IDs of all auth keys in the tailnet.
func (c *Client) Keys(ctx context.Context) ([]string, error) {
	var result struct {
		Keys []struct {
			ID string `json:"id"`
		} `json:"keys"`
	}
	uri := fmt.Sprintf("tailnet/%s/keys", url.PathEscape(c.tailnet))
	if err := c.get(ctx, uri, &result); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Keys))
	for _, key := range result.Keys {
		ids = append(ids, key.ID)
	}
	return ids, nil
}

// Key returns a single auth key by ID. The secret key material is not
// included; it is only returned once, by CreateAuthKey.
func (c *Client) Key(ctx context.Context, keyID string) (*AuthKey, error) {
	var key AuthKey
	uri := fmt.Sprintf("tailnet/%s/keys/%s", url.PathEscape(c.tailnet), url.PathEscape(keyID))
	if err := c.get(ctx, uri, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// CreateAuthKey creates a new auth key. The response includes the secret
// key material in the Key field; it cannot be retrieved again.
func (c *Client) CreateAuthKey(ctx context.Context, req CreateKeyRequest) (*AuthKey, error) {
	var key AuthKey
	uri := fmt.Sprintf("tailnet/%s/keys", url.PathEscape(c.tailnet))
	if err := c.post(ctx, uri, req, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// DeleteKey revokes an auth key.
func (c *Client) DeleteKey(ctx context.Context, keyID string) error {
	uri := fmt.Sprintf("tailnet/%s/keys/%s", url.PathEscape(c.tailnet), url.PathEscape(keyID))
	_, err := c.request(ctx, http.MethodDelete, uri, nil)
	return err
}
