package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Pool is the connection pool used to talk to one InfluxDB-style backend:
// a shared *http.Client (so keep-alive connections are actually reused
// across sub-queries), a per-host circuit breaker so a backend that
// starts failing stops being hammered, and a semaphore that bounds how
// many requests are in flight at once.
type Pool struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *zap.Logger

	breaker     *gobreaker.CircuitBreaker
	sem         *semaphore.Weighted
	maxInFlight int64
}

// NewPool builds a Pool with maxInFlight concurrent requests admitted at
// once and the given per-request timeout set as the http.Client timeout.
func NewPool(baseURL string, maxInFlight int64, timeout time.Duration, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := &http.Transport{
		MaxIdleConns:        int(maxInFlight) * 2,
		MaxIdleConnsPerHost: int(maxInFlight) * 2,
		IdleConnTimeout:     90 * time.Second,
	}
	breakerSettings := gobreaker.Settings{
		Name:        baseURL,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", zap.String("backend", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &Pool{
		BaseURL:     baseURL,
		HTTP:        &http.Client{Transport: transport, Timeout: timeout},
		Logger:      logger,
		breaker:     gobreaker.NewCircuitBreaker(breakerSettings),
		sem:         semaphore.NewWeighted(maxInFlight),
		maxInFlight: maxInFlight,
	}
}

// Do admits the request through the semaphore, then executes it through
// the circuit breaker. It blocks on ctx until a slot is free, the request
// completes, or ctx is done.
func (p *Pool) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.HTTP.Do(req.WithContext(ctx))
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

// Close blocks until every in-flight request has released its admission
// slot, then releases idle connections held by the pool. Acquiring the
// full semaphore weight is the drain: it cannot succeed while any request
// still holds a slot.
func (p *Pool) Close() {
	_ = p.sem.Acquire(context.Background(), p.maxInFlight)
	if t, ok := p.HTTP.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}
