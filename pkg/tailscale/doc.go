// Package tailscale provides a typed client for the Tailscale control-plane
// REST API: device fleet management, auth keys, and the tailnet policy file.
//
// # Authentication
//
// The client supports two credential modes:
//
//   - A static API key, sent with HTTP basic auth on every request.
//   - OAuth client credentials, exchanged for a short-lived access token at
//     the Tailscale token endpoint and attached as a bearer header. The
//     token is cached, refreshed ahead of its advertised expiry, and shared
//     by concurrent requests such that any number of callers trigger at most
//     one exchange.
//
// When both an API key and OAuth credentials are configured, the OAuth
// credentials win. Supplying neither, or only half of the OAuth pair, is a
// configuration error reported on first use.
//
// # Basic usage
//
//	client, err := tailscale.New(tailscale.Config{
//	    Tailnet: "example.com",
//	    APIKey:  "tskey-api-...",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	devices, err := client.Devices(ctx)
//
// # Token persistence
//
// With OAuth credentials, a TokenStorage implementation (see the tokenstore
// package) lets a restarted process reuse a still-valid token instead of
// performing a fresh exchange:
//
//	client, err := tailscale.New(cfg, tailscale.WithTokenStorage(store))
//
// # Errors
//
// All operations return errors from a four-kind taxonomy, checkable with
// IsConfigurationError, IsAuthenticationError, IsConnectionError, and
// IsRequestError. There are no automatic retries: a 401/403 clears the
// cached token so the next call acquires a fresh one, but the failing call
// itself still fails.
package tailscale
