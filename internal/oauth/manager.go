package oauth

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ExpiryMargin is the safety margin applied to token lifetimes. A token is
// never handed out with less than this much time left before its advertised
// expiry, the proactive expiry timer fires this far ahead of it, and a token
// whose whole lifetime fits inside the margin is rejected outright. The
// margin accounts for clock skew, network latency, and long-running requests.
const ExpiryMargin = 60 * time.Second

// DefaultTimeout bounds a single token endpoint exchange or storage access.
const DefaultTimeout = 8 * time.Second

// Storage persists an access token across process restarts. Implementations
// are treated as eventually consistent: a missing or stale entry simply
// causes a fresh exchange, and load failures are logged rather than surfaced.
type Storage interface {
	// Load returns the stored access token and its absolute expiry. An empty
	// token with a nil error means nothing is stored.
	Load(ctx context.Context) (accessToken string, expiry time.Time, err error)

	// Save stores the access token together with its absolute expiry.
	Save(ctx context.Context, accessToken string, expiry time.Time) error
}

// Config configures a Manager.
type Config struct {
	// ClientID and ClientSecret are the OAuth client credentials submitted
	// form-encoded to the token endpoint.
	ClientID     string
	ClientSecret string

	// TokenURL is the fixed token endpoint.
	TokenURL string

	// HTTPClient performs the exchange. Defaults to a plain http.Client;
	// timeouts are applied per request through the context.
	HTTPClient *http.Client

	// Timeout bounds each token endpoint exchange and each storage access.
	// Defaults to DefaultTimeout.
	Timeout time.Duration

	// Storage optionally persists tokens across restarts. Consulted before
	// any network exchange and written after each successful one.
	Storage Storage

	// Logger receives lifecycle events. Token values are never logged.
	Logger *slog.Logger
}

// Manager owns the in-process OAuth access token for one client instance.
// It is safe for concurrent use: all token state is guarded by a single
// mutex, and concurrent acquisitions collapse into one network exchange.
//
// A Manager holds at most one current token, at most one in-flight
// acquisition, and at most one live expiry timer, always tied to the
// current token.
type Manager struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	timeout      time.Duration
	storage      Storage
	logger       *slog.Logger

	group singleflight.Group

	mu       sync.Mutex
	current  *token
	timer    *time.Timer
	gen      uint64
	inflight *acquisition
	closed   bool
}

// acquisition is the cancel handle of one in-flight token acquisition. It is
// a distinct pointer per flight so cleanup can tell its own handle apart from
// a successor's.
type acquisition struct {
	cancel context.CancelFunc
}

// token is the manager's internal token state.
type token struct {
	value       string
	expiresAt   time.Time
	fromStorage bool
}

func (t *token) source() string {
	if t.fromStorage {
		return "storage"
	}
	return "exchange"
}

// NewManager creates a token lifecycle manager for one set of client
// credentials and one token endpoint.
func NewManager(cfg Config) *Manager {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		httpClient:   httpClient,
		timeout:      timeout,
		storage:      cfg.Storage,
		logger:       logger,
	}
}

// Token returns a usable access token value, acquiring one if none is
// current. Concurrent callers share a single acquisition and receive the
// same token or the same failure. A cached token is only returned while its
// time to expiry exceeds ExpiryMargin.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	if t := m.current; t != nil && time.Until(t.expiresAt) > ExpiryMargin {
		value := t.value
		m.mu.Unlock()
		return value, nil
	}
	m.mu.Unlock()

	result, err, _ := m.group.Do("token", func() (interface{}, error) {
		// Double-check after winning the flight: another caller may have
		// completed an acquisition between the check above and this point.
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, ErrClosed
		}
		if t := m.current; t != nil && time.Until(t.expiresAt) > ExpiryMargin {
			value := t.value
			m.mu.Unlock()
			return value, nil
		}
		acqCtx, cancel := context.WithCancel(ctx)
		acq := &acquisition{cancel: cancel}
		m.inflight = acq
		m.mu.Unlock()

		defer func() {
			// Detach the cancel handle before waiters are released so a
			// later Invalidate cannot cancel an acquisition that already
			// resolved. Only this flight's own handle is detached: an
			// Invalidate may have replaced it with a successor flight's.
			m.mu.Lock()
			if m.inflight == acq {
				m.inflight = nil
			}
			m.mu.Unlock()
			cancel()
		}()

		t, err := m.acquire(acqCtx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, ErrClosed
		}
		m.adoptLocked(t)
		m.mu.Unlock()
		return t.value, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Invalidate clears the current token, stops its expiry timer, and cancels
// any in-flight acquisition. Callers use it both for manual invalidation and
// as the reaction to a 401/403 response, so the next Token call performs a
// fresh exchange instead of retrying with a dead token.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
	m.cancelInflightLocked()
	// Detach future callers from the cancelled acquisition so the next
	// Token call starts fresh instead of joining a doomed flight.
	m.group.Forget("token")
	m.logger.Debug("access token invalidated")
}

// Close tears the manager down: the current token is dropped, the expiry
// timer stopped, and any in-flight acquisition cancelled. Token returns
// ErrClosed afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.clearLocked()
	m.cancelInflightLocked()
	m.group.Forget("token")
}

// cancelInflightLocked cancels and detaches the in-flight acquisition, if
// any. Requires m.mu.
func (m *Manager) cancelInflightLocked() {
	if m.inflight != nil {
		m.inflight.cancel()
		m.inflight = nil
	}
}

// adoptLocked installs a freshly acquired token and arms its expiry timer.
// Requires m.mu to be held.
func (m *Manager) adoptLocked(t *token) {
	m.stopTimerLocked()
	m.current = t
	m.gen++
	gen := m.gen
	m.timer = time.AfterFunc(time.Until(t.expiresAt)-ExpiryMargin, func() {
		m.expire(gen)
	})
	m.logger.Debug("access token adopted",
		"source", t.source(),
		"expires_at", t.expiresAt.Format(time.RFC3339),
	)
}

// expire is the timer callback. The generation check makes callbacks from
// replaced timers a no-op.
func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen || m.current == nil {
		return
	}
	m.current = nil
	m.timer = nil
	m.logger.Debug("access token expired ahead of advertised lifetime")
}

// clearLocked drops the current token and its timer. Requires m.mu.
func (m *Manager) clearLocked() {
	m.stopTimerLocked()
	m.current = nil
}

// stopTimerLocked stops and releases the expiry timer. Requires m.mu.
func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
