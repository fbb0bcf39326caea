// Package oauth implements the OAuth client-credentials token lifecycle for
// the Tailscale API client.
//
// The Manager owns the single in-process access token of one client instance.
// It acquires tokens through the client-credentials grant against the fixed
// token endpoint, de-duplicates concurrent acquisitions so that N waiting
// callers produce exactly one network exchange, proactively expires tokens
// ahead of their advertised lifetime, and optionally persists tokens through
// a Storage implementation so a restarted process can reuse a still-valid
// token without a network call.
//
// Token state moves through three phases: absent (no token held), pending
// (one acquisition in flight, all callers waiting on it), and present (a
// cached token with a live expiry timer). Transitions happen only through
// Token, Invalidate, the expiry timer, and Close.
//
// This package is internal; the public surface is the tailscale.Client,
// which constructs one Manager per client when OAuth credentials are
// configured.
package oauth
