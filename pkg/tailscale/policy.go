package tailscale

import (
	"context"
	"fmt"
	"net/url"
)

// Policy returns the tailnet policy file (ACL) in its JSON representation.
func (c *Client) Policy(ctx context.Context) (*Policy, error) {
	var policy Policy
	uri := fmt.Sprintf("tailnet/%s/acl", url.PathEscape(c.tailnet))
	if err := c.get(ctx, uri, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// SetPolicy replaces the tailnet policy file and returns the stored result.
func (c *Client) SetPolicy(ctx context.Context, policy *Policy) (*Policy, error) {
	var updated Policy
	uri := fmt.Sprintf("tailnet/%s/acl", url.PathEscape(c.tailnet))
	if err := c.post(ctx, uri, policy, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
