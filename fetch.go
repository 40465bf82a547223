package tsfetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/basekick-labs/ts-fetch/internal/decode"
	"github.com/basekick-labs/ts-fetch/internal/planner"
	"github.com/basekick-labs/ts-fetch/internal/series"
	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// withFetchID annotates err with id if it carries a *tserrors.Error,
// so HTTPError/BackendError responses can be correlated back to the
// batch fan-out that produced them in the logs.
func withFetchID(err error, id string) error {
	var e *tserrors.Error
	if errors.As(err, &e) {
		e.WithFetchID(id)
	}
	return err
}

// Fetch runs sqlTemplate (which must contain exactly one ":time_condition:"
// token) over [t0, t1] (both ends included), split into Config.BatchTime-sized batches, and
// returns the single sorted-merged Series. Batches are dispatched
// concurrently; the column schema is shared across batches so every
// decode after the first reuses it rather than re-parsing it.
func (c *Client) Fetch(ctx context.Context, sqlTemplate, t0Str, t1Str string, args []string) (*series.Series, error) {
	fetchID := uuid.New().String()

	t0, err := planner.ParseTimestamp(t0Str)
	if err != nil {
		return nil, err
	}
	t1, err := planner.ParseTimestamp(t1Str)
	if err != nil {
		return nil, err
	}

	sqlFilled := planner.SubstituteArgs(sqlTemplate, args)
	batches := planner.Plan(sqlFilled, t0.UnixMilli(), t1.UnixMilli(), c.cfg.BatchTime, time.Now().UTC())

	results := make([]*series.Series, len(batches))

	var columnsMu sync.Mutex
	var columns []string

	var firstErrMu sync.Mutex
	var firstErr error

	var wg sync.WaitGroup
	wg.Add(len(batches))
	for i, b := range batches {
		go func(i int, b planner.Batch) {
			defer wg.Done()

			s, err := c.fetchBatch(ctx, b, &columnsMu, &columns)
			if err != nil {
				err = withFetchID(err, fetchID)
				firstErrMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				firstErrMu.Unlock()
				c.cfg.Logger.Warn("batch failed", zap.String("fetch_id", fetchID), zap.Int("batch", i), zap.String("sql", b.SQL), zap.Error(err))
				return
			}
			results[i] = s
		}(i, b)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return series.SortedMerge(results)
}

// fetchBatch executes one batch's sub-query, decodes it into a
// series.Series, and (if cfg.CacheDir is set) serves/populates the
// artifact cache for non-future batches.
func (c *Client) fetchBatch(ctx context.Context, b planner.Batch, columnsMu *sync.Mutex, columns *[]string) (*series.Series, error) {
	if c.cache != nil && !b.Future {
		if s, ok, err := c.cache.Get(b.SQL); err == nil && ok {
			columnsMu.Lock()
			if len(*columns) == 0 {
				*columns = s.Columns
			}
			columnsMu.Unlock()
			return s, nil
		}
	}

	body, err := c.exec.QueryRaw(ctx, b.SQL)
	if err != nil {
		return nil, err
	}

	columnsMu.Lock()
	if len(*columns) == 0 {
		cols, err := decode.ReadColumns(body)
		if err != nil {
			columnsMu.Unlock()
			return nil, err
		}
		*columns = cols
	}
	cols := *columns
	columnsMu.Unlock()

	s, err := decode.ReadSingleSeries(body, cols)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && !b.Future {
		if err := c.cache.Set(b.SQL, s); err != nil {
			c.cfg.Logger.Warn("cache write failed", zap.String("sql", b.SQL), zap.Error(err))
		}
	}

	return s, nil
}

// FetchGroups is Fetch's grouped counterpart: each batch may decode into
// multiple tagged series (GROUP BY queries); series across all batches
// are bucketed by keyFn(tags) and each bucket is collapsed with
// SortedMerge. Applies the same first-error-wins aggregation as Fetch.
func (c *Client) FetchGroups(ctx context.Context, sqlTemplate, t0Str, t1Str string, args []string, keyFn func(tags map[string]string) string) (map[string]*series.Series, error) {
	fetchID := uuid.New().String()

	t0, err := planner.ParseTimestamp(t0Str)
	if err != nil {
		return nil, err
	}
	t1, err := planner.ParseTimestamp(t1Str)
	if err != nil {
		return nil, err
	}

	sqlFilled := planner.SubstituteArgs(sqlTemplate, args)
	batches := planner.Plan(sqlFilled, t0.UnixMilli(), t1.UnixMilli(), c.cfg.BatchTime, time.Now().UTC())

	batchSeries := make([][]*series.Series, len(batches))

	var columnsMu sync.Mutex
	var columns []string

	var firstErrMu sync.Mutex
	var firstErr error

	var wg sync.WaitGroup
	wg.Add(len(batches))
	for i, b := range batches {
		go func(i int, b planner.Batch) {
			defer wg.Done()

			body, err := c.exec.QueryRaw(ctx, b.SQL)
			if err != nil {
				err = withFetchID(err, fetchID)
				firstErrMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				firstErrMu.Unlock()
				c.cfg.Logger.Warn("batch failed", zap.String("fetch_id", fetchID), zap.Int("batch", i), zap.String("sql", b.SQL), zap.Error(err))
				return
			}

			columnsMu.Lock()
			if len(columns) == 0 {
				cols, cerr := decode.ReadColumns(body)
				if cerr == nil {
					columns = cols
				}
			}
			cols := columns
			columnsMu.Unlock()

			all, err := decode.ReadAllSeries(body, cols)
			if err != nil {
				err = withFetchID(err, fetchID)
				firstErrMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				firstErrMu.Unlock()
				c.cfg.Logger.Warn("batch decode failed", zap.String("fetch_id", fetchID), zap.Int("batch", i), zap.Error(err))
				return
			}
			batchSeries[i] = all
		}(i, b)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	groups := make(map[string][]*series.Series)
	for _, all := range batchSeries {
		for _, s := range all {
			key := keyFn(s.Tags)
			groups[key] = append(groups[key], s)
		}
	}

	merged := make(map[string]*series.Series, len(groups))
	for key, batches := range groups {
		m, err := series.SortedMerge(batches)
		if err != nil {
			return nil, err
		}
		merged[key] = m
	}
	return merged, nil
}
