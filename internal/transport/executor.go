package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// maxHTTPRetries bounds the non-200/transport-failure retry loop: up to 7
// retries (8 attempts in all) with 200ms*2^attempt backoff before
// surfacing the error.
const maxHTTPRetries = 7

// Executor issues GET /query?db=...&epoch=ms&q=... requests against a
// Pool, retrying transient HTTP failures with exponential backoff.
type Executor struct {
	Pool   *Pool
	DBName string
	Logger *zap.Logger
}

// NewExecutor returns an Executor bound to pool and dbName.
func NewExecutor(pool *Pool, dbName string, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{Pool: pool, DBName: dbName, Logger: logger}
}

// QueryRaw executes sql against /query and returns the raw response body.
// A non-200 response or a transport-level failure (connection refused,
// timeout, broken connection, ...) is retried up to maxHTTPRetries times
// with 200ms*2^attempt backoff before becoming a KindHTTP error.
func (e *Executor) QueryRaw(ctx context.Context, sql string) ([]byte, error) {
	path := e.Pool.BaseURL + "/query?" + url.Values{
		"db":    {e.DBName},
		"epoch": {"ms"},
	}.Encode() + "&q=" + urlEncode(sql)

	var lastBody []byte
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= maxHTTPRetries; attempt++ {
		body, status, err := e.doOnce(ctx, path)
		if err == nil && status == http.StatusOK {
			return body, nil
		}

		lastBody, lastStatus, lastErr = body, status, err
		if attempt == maxHTTPRetries {
			break
		}

		if err != nil {
			e.Logger.Warn("influxdb transport error, retrying",
				zap.Error(err), zap.Int("attempt", attempt), zap.String("sql", sql))
		} else {
			e.Logger.Warn("influxdb http error, retrying",
				zap.Int("status", status), zap.Int("attempt", attempt), zap.String("sql", sql))
		}

		backoff := 200 * time.Millisecond * time.Duration(1<<uint(attempt))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, tserrors.Wrap(tserrors.KindHTTP, "context done during retry backoff", ctx.Err())
		}
	}

	if lastErr != nil && lastStatus == 0 {
		return nil, tserrors.WrapHTTP(lastErr, sql)
	}
	return nil, tserrors.NewHTTP(lastStatus, lastBody, sql)
}

// doOnce issues a single attempt and returns whatever made it back: the
// body and status on a completed round trip, or a non-nil err (with
// status left at 0) on a transport-level failure before a status line was
// ever read.
func (e *Executor) doOnce(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := e.Pool.Do(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// Query executes sql and hands the body to decode, retrying up to 4 times
// when decode reports a KindParse error (the body truly was malformed, not
// just slow to arrive) before giving up. Any other error from decode, such
// as a KindBackend error for results[0].error, is returned at once.
func (e *Executor) Query(ctx context.Context, sql string, decode func(body []byte) error) error {
	const maxParseRetries = 4

	var lastErr error
	for i := 0; i < maxParseRetries; i++ {
		body, err := e.QueryRaw(ctx, sql)
		if err != nil {
			return err
		}
		if err := decode(body); err != nil {
			var te *tserrors.Error
			if !errors.As(err, &te) || te.Kind != tserrors.KindParse {
				return err
			}
			lastErr = err
			e.Logger.Warn("query result parse error, retrying", zap.Int("attempt", i+1), zap.Error(err))
			select {
			case <-time.After(200 * time.Millisecond * time.Duration(1<<uint(i))):
			case <-ctx.Done():
				return tserrors.Wrap(tserrors.KindParse, "context done during parse retry backoff", ctx.Err())
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("query %q: %w", sql, lastErr)
}
