// Package tokenstore provides TokenStorage implementations for the
// tailscale client: in-memory, file-based, and Redis-backed.
//
// A store holds at most one access token together with its absolute expiry.
// Stores are eventually consistent collaborators: the client treats a
// missing, stale, or unreadable entry as a cache miss and performs a fresh
// token exchange.
package tokenstore
