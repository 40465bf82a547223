package tsfetch

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/basekick-labs/ts-fetch/internal/cache"
	"github.com/basekick-labs/ts-fetch/internal/transport"
)

// Config holds the tunables a Client was built with. Zero values are
// replaced with the documented defaults by NewClient; callers normally
// reach these only through the With* options.
type Config struct {
	ConnPoolSize          int64
	RequestTimeoutSeconds int
	BatchTime             time.Duration
	CacheDir              string
	Production            bool
	Logger                *zap.Logger
}

// Option configures a Client at construction time.
type Option func(*Config)

// WithConnPoolSize bounds the number of requests this client admits to
// the backend concurrently. Default 10.
func WithConnPoolSize(n int64) Option {
	return func(c *Config) { c.ConnPoolSize = n }
}

// WithRequestTimeout overrides the per-request HTTP timeout. Default 240s.
func WithRequestTimeout(seconds int) Option {
	return func(c *Config) { c.RequestTimeoutSeconds = seconds }
}

// WithBatchTime overrides the planner's sub-query window size. Default 48h.
func WithBatchTime(d time.Duration) Option {
	return func(c *Config) { c.BatchTime = d }
}

// WithCacheDir enables the filesystem artifact cache, rooted at dir. If
// never called, Fetch never consults or populates a cache.
func WithCacheDir(dir string) Option {
	return func(c *Config) { c.CacheDir = dir }
}

// WithProduction selects zap.NewProduction()-style structured logging
// instead of the human-readable development encoder.
func WithProduction(on bool) Option {
	return func(c *Config) { c.Production = on }
}

// WithLogger supplies a pre-built logger, taking precedence over WithProduction.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// Client is the façade over the fetch engine: one per backend
// (host, port, dbName) tuple.
type Client struct {
	cfg   Config
	pool  *transport.Pool
	exec  *transport.Executor
	cache *cache.FileCache
}

// NewClient builds a Client targeting the given InfluxDB-style backend.
func NewClient(host string, port int, dbName string, opts ...Option) (*Client, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ConnPoolSize == 0 {
		cfg.ConnPoolSize = 10
	}
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = 240
	}
	if cfg.BatchTime == 0 {
		cfg.BatchTime = 48 * time.Hour
	}

	if cfg.Logger == nil {
		var logger *zap.Logger
		var err error
		if cfg.Production {
			logger, err = zap.NewProduction()
		} else {
			logger, err = zap.NewDevelopment()
		}
		if err != nil {
			return nil, fmt.Errorf("building logger: %w", err)
		}
		cfg.Logger = logger
	}

	baseURL := fmt.Sprintf("http://%s:%d", host, port)
	pool := transport.NewPool(baseURL, cfg.ConnPoolSize, time.Duration(cfg.RequestTimeoutSeconds)*time.Second, cfg.Logger)
	exec := transport.NewExecutor(pool, dbName, cfg.Logger)

	var fc *cache.FileCache
	if cfg.CacheDir != "" {
		var err error
		fc, err = cache.New(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
	}

	return &Client{cfg: cfg, pool: pool, exec: exec, cache: fc}, nil
}

// Close waits for in-flight requests to finish, then releases pooled
// connections. It never returns an error and never panics, so callers can
// always safely defer it.
func (c *Client) Close() error {
	c.pool.Close()
	_ = c.cfg.Logger.Sync()
	return nil
}
