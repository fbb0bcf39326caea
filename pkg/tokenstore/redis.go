package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the key under which the token is stored when none is
// configured.
const DefaultRedisKey = "tailscale:oauth:token"

// RedisConfig configures a Redis-backed token store.
type RedisConfig struct {
	// Address of the Redis server. Defaults to "localhost:6379".
	Address string

	// Password for the Redis server, if any.
	Password string

	// DB selects the Redis logical database.
	DB int

	// Key under which the token is stored. Defaults to DefaultRedisKey.
	Key string
}

// Redis stores the token as a JSON value with a TTL matching the token
// expiry, so Redis itself evicts dead tokens.
type Redis struct {
	rdb *redis.Client
	key string
}

// redisToken is the stored JSON shape.
type redisToken struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry"`
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		cfg.Address = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisFromClient(rdb, cfg.Key), nil
}

// NewRedisFromClient wraps an existing Redis client. The caller stays
// responsible for closing it.
func NewRedisFromClient(rdb *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{rdb: rdb, key: key}
}

// Load reads the stored token. A missing key is not an error.
func (s *Redis) Load(ctx context.Context) (string, time.Time, error) {
	data, err := s.rdb.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to load token from Redis: %w", err)
	}

	var token redisToken
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token from Redis: %w", err)
	}
	return token.AccessToken, token.Expiry, nil
}

// Save stores the token with a TTL matching its remaining lifetime.
func (s *Redis) Save(ctx context.Context, accessToken string, expiry time.Time) error {
	data, err := json.Marshal(redisToken{AccessToken: accessToken, Expiry: expiry})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	ttl := time.Until(expiry)
	if ttl <= 0 {
		// An already-expired token is not worth storing.
		return nil
	}
	if err := s.rdb.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token in Redis: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *Redis) Close() error {
	return s.rdb.Close()
}
