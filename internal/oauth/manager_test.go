package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStorage is an in-memory Storage for tests.
type memStorage struct {
	mu      sync.Mutex
	token   string
	expiry  time.Time
	loads   int
	saves   int
	loadErr error
}

func (s *memStorage) Load(ctx context.Context) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return "", time.Time{}, s.loadErr
	}
	return s.token, s.expiry, nil
}

func (s *memStorage) Save(ctx context.Context, accessToken string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.token = accessToken
	s.expiry = expiry
	return nil
}

// newTokenServer returns a token endpoint stub and a counter of exchanges.
func newTokenServer(t *testing.T, accessToken string, expiresIn int64) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var exchanges atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": %q, "expires_in": %d}`, accessToken, expiresIn)
	}))
	t.Cleanup(server.Close)
	return server, &exchanges
}

func newManager(server *httptest.Server, opts ...func(*Config)) *Manager {
	cfg := Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     server.URL + "/oauth/token",
		HTTPClient:   server.Client(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewManager(cfg)
}

func TestToken_ExchangesAndCaches(t *testing.T) {
	server, exchanges := newTokenServer(t, "tok", 3600)
	m := newManager(server)
	defer m.Close()

	value, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", value)
	assert.Equal(t, int64(1), exchanges.Load())

	// Cached: no second exchange.
	value, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", value)
	assert.Equal(t, int64(1), exchanges.Load())
}

func TestToken_SingleFlight(t *testing.T) {
	var exchanges atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		time.Sleep(100 * time.Millisecond)
		fmt.Fprint(w, `{"access_token": "tok", "expires_in": 3600}`)
	}))
	defer server.Close()

	m := newManager(server)
	defer m.Close()

	const callers = 25
	values := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values[i], errs[i] = m.Token(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok", values[i])
	}
	assert.Equal(t, int64(1), exchanges.Load(), "concurrent callers must share one exchange")
}

func TestToken_SingleFlightSharesFailure(t *testing.T) {
	var exchanges atomic.Int64
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		<-release
		http.Error(w, "invalid client", http.StatusUnauthorized)
	}))
	defer server.Close()

	m := newManager(server)
	defer m.Close()

	const callers = 25
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Token(context.Background())
		}(i)
	}

	// Give every caller time to join the flight before it fails.
	time.Sleep(200 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		var exchangeErr *ExchangeError
		require.ErrorAs(t, errs[i], &exchangeErr)
		assert.Contains(t, exchangeErr.Message, "status 401")
		assert.Equal(t, errs[0], errs[i], "all waiters must observe the same failure")
	}
	assert.Equal(t, int64(1), exchanges.Load(), "concurrent callers must share one failed exchange")
}

func TestToken_RejectsShortLifetime(t *testing.T) {
	server, exchanges := newTokenServer(t, "tok", 60)
	m := newManager(server)
	defer m.Close()

	_, err := m.Token(context.Background())
	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Contains(t, exchangeErr.Message, "too short")

	// Nothing was cached: the next call exchanges again.
	_, err = m.Token(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(2), exchanges.Load())
}

func TestToken_RejectsMissingToken(t *testing.T) {
	server, _ := newTokenServer(t, "", 3600)
	m := newManager(server)
	defer m.Close()

	_, err := m.Token(context.Background())
	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Contains(t, exchangeErr.Message, "no access token")
}

func TestToken_RejectsMissingLifetime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token": "tok"}`)
	}))
	defer server.Close()

	m := newManager(server)
	defer m.Close()

	_, err := m.Token(context.Background())
	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Contains(t, exchangeErr.Message, "no token lifetime")
}

func TestToken_ExchangeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid client", http.StatusUnauthorized)
	}))
	defer server.Close()

	m := newManager(server)
	defer m.Close()

	_, err := m.Token(context.Background())
	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Contains(t, exchangeErr.Message, "status 401")
}

func TestToken_TimeoutIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		fmt.Fprint(w, `{"access_token": "tok", "expires_in": 3600}`)
	}))
	defer server.Close()

	m := newManager(server, func(cfg *Config) {
		cfg.Timeout = 50 * time.Millisecond
	})
	defer m.Close()

	_, err := m.Token(context.Background())
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestToken_ProactiveExpiry(t *testing.T) {
	// A 61 second lifetime arms the expiry timer one second out.
	server, exchanges := newTokenServer(t, "tok", 61)
	m := newManager(server)
	defer m.Close()

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), exchanges.Load())

	// Still cached before the timer fires.
	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), exchanges.Load())

	time.Sleep(1300 * time.Millisecond)

	// The timer cleared the token; exactly one fresh exchange follows.
	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), exchanges.Load())
}

func TestInvalidate_ForcesFreshExchange(t *testing.T) {
	server, exchanges := newTokenServer(t, "tok", 3600)
	m := newManager(server)
	defer m.Close()

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), exchanges.Load())

	m.Invalidate()

	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), exchanges.Load())
}

func TestInvalidate_CancelsInflightAcquisition(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		fmt.Fprint(w, `{"access_token": "tok", "expires_in": 3600}`)
	}))
	defer server.Close()
	defer close(release)

	m := newManager(server)
	defer m.Close()

	done := make(chan error, 1)
	go func() {
		_, err := m.Token(context.Background())
		done <- err
	}()

	<-arrived
	m.Invalidate()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released after Invalidate")
	}
}

// gateStorage blocks every Load until the test releases it, then reports a
// miss. It lets a test hold an acquisition open at a known point.
type gateStorage struct {
	loads chan chan struct{}
}

func (s *gateStorage) Load(ctx context.Context) (string, time.Time, error) {
	release := make(chan struct{})
	s.loads <- release
	<-release
	return "", time.Time{}, nil
}

func (s *gateStorage) Save(ctx context.Context, accessToken string, expiry time.Time) error {
	return nil
}

func TestInvalidate_CancelsReplacementAcquisition(t *testing.T) {
	server, exchanges := newTokenServer(t, "tok", 3600)
	storage := &gateStorage{loads: make(chan chan struct{})}
	m := newManager(server, func(cfg *Config) {
		cfg.Storage = storage
	})
	defer m.Close()

	first := make(chan error, 1)
	go func() {
		_, err := m.Token(context.Background())
		first <- err
	}()
	releaseFirst := <-storage.loads

	// Cancel the first acquisition while it is held inside the storage load.
	m.Invalidate()

	// A second acquisition starts before the first one has finished its
	// cleanup.
	second := make(chan error, 1)
	go func() {
		_, err := m.Token(context.Background())
		second <- err
	}()
	releaseSecond := <-storage.loads

	close(releaseFirst)
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("first waiter was not released")
	}

	// The first acquisition's cleanup must not have detached the second
	// one's cancel handle: this Invalidate has to reach it.
	m.Invalidate()
	close(releaseSecond)
	select {
	case err := <-second:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("second waiter was not released after Invalidate")
	}

	assert.Equal(t, int64(0), exchanges.Load(), "cancelled acquisitions must not reach the network")
}

func TestToken_AdoptsStoredToken(t *testing.T) {
	server, exchanges := newTokenServer(t, "fresh", 3600)
	storage := &memStorage{token: "stored", expiry: time.Now().Add(time.Hour)}
	m := newManager(server, func(cfg *Config) {
		cfg.Storage = storage
	})
	defer m.Close()

	value, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stored", value)
	assert.Equal(t, int64(0), exchanges.Load(), "a usable stored token must avoid the network")
}

func TestToken_SkipsStaleStoredToken(t *testing.T) {
	server, exchanges := newTokenServer(t, "fresh", 3600)
	storage := &memStorage{token: "stored", expiry: time.Now().Add(30 * time.Second)}
	m := newManager(server, func(cfg *Config) {
		cfg.Storage = storage
	})
	defer m.Close()

	value, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", value)
	assert.Equal(t, int64(1), exchanges.Load())
}

func TestToken_PersistsAfterExchange(t *testing.T) {
	server, _ := newTokenServer(t, "tok", 3600)
	storage := &memStorage{}
	m := newManager(server, func(cfg *Config) {
		cfg.Storage = storage
	})
	defer m.Close()

	before := time.Now()
	_, err := m.Token(context.Background())
	require.NoError(t, err)

	storage.mu.Lock()
	defer storage.mu.Unlock()
	assert.Equal(t, 1, storage.saves)
	assert.Equal(t, "tok", storage.token)
	assert.WithinDuration(t, before.Add(time.Hour), storage.expiry, 5*time.Second)
}

func TestToken_StorageRoundTrip(t *testing.T) {
	server, exchanges := newTokenServer(t, "tok", 3600)
	storage := &memStorage{}

	first := newManager(server, func(cfg *Config) { cfg.Storage = storage })
	value, err := first.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok", value)
	require.Equal(t, int64(1), exchanges.Load())
	first.Close()

	// A restarted client reuses the persisted token without a network call.
	second := newManager(server, func(cfg *Config) { cfg.Storage = storage })
	defer second.Close()
	value, err = second.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", value)
	assert.Equal(t, int64(1), exchanges.Load())
}

func TestToken_StorageLoadErrorFallsBackToExchange(t *testing.T) {
	server, exchanges := newTokenServer(t, "tok", 3600)
	storage := &memStorage{loadErr: errors.New("store unreachable")}
	m := newManager(server, func(cfg *Config) {
		cfg.Storage = storage
	})
	defer m.Close()

	value, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", value)
	assert.Equal(t, int64(1), exchanges.Load())
}

func TestClose_RejectsFurtherUse(t *testing.T) {
	server, _ := newTokenServer(t, "tok", 3600)
	m := newManager(server)

	_, err := m.Token(context.Background())
	require.NoError(t, err)

	m.Close()
	_, err = m.Token(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	// Closing twice is fine.
	m.Close()
}
