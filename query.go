package tsfetch

import (
	"context"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/basekick-labs/ts-fetch/internal/planner"
	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// queryEnvelope is the minimal shape Query needs to validate a response:
// the presence of "results" and an optional results[0].error string.
type queryEnvelope struct {
	Results []struct {
		Error *string `json:"error"`
	} `json:"results"`
}

// QueryRaw issues sql (after positional-arg substitution) against the
// backend and returns the raw response body, retrying non-200 responses
// per the executor's retry policy.
func (c *Client) QueryRaw(ctx context.Context, sql string, args ...string) ([]byte, error) {
	return c.exec.QueryRaw(ctx, planner.SubstituteArgs(sql, args))
}

// Query runs sql, retrying up to 4 times on a JSON parse failure, and
// validates the envelope: a KindBackend error if results[0].error is set,
// and a malformed-document KindBackend error if "results" is absent.
func (c *Client) Query(ctx context.Context, sql string, args ...string) ([]byte, error) {
	filled := planner.SubstituteArgs(sql, args)

	var body []byte
	err := c.exec.Query(ctx, filled, func(b []byte) error {
		var env queryEnvelope
		if err := jsoniter.Unmarshal(b, &env); err != nil {
			return tserrors.NewParse("response parse error")
		}
		if len(env.Results) == 0 {
			return tserrors.NewBackend("influxdb response has no results member", filled)
		}
		if env.Results[0].Error != nil {
			return tserrors.NewBackend("influxdb error: "+*env.Results[0].Error, filled)
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// seriesTagEnvelope is used by QueryTags to read just the first tag key
// of each series, without decoding the numeric columns at all.
type seriesTagEnvelope struct {
	Results []struct {
		Series []struct {
			Tags jsoniter.RawMessage `json:"tags"`
		} `json:"series"`
	} `json:"results"`
}

// QueryTags runs sql via Query and returns the set of first-tag-key
// values across results[0].series (the value of whichever tag key comes
// first in each series' "tags" object, in document order), or an empty
// set if there is no "series" member.
func (c *Client) QueryTags(ctx context.Context, sql string, args ...string) (map[string]struct{}, error) {
	body, err := c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	var env seriesTagEnvelope
	if err := jsoniter.Unmarshal(body, &env); err != nil {
		return nil, tserrors.NewParse("queryTags: response parse error")
	}
	if len(env.Results) == 0 || env.Results[0].Series == nil {
		return map[string]struct{}{}, nil
	}

	tags := make(map[string]struct{})
	for _, s := range env.Results[0].Series {
		if v, ok := firstObjectValue(s.Tags); ok {
			tags[v] = struct{}{}
		}
	}
	return tags, nil
}

// firstObjectValue returns the value of whichever member comes first in
// raw's document order, without building a map — Go map iteration order
// is randomized, so a map round-trip can't be used to recover "the first
// key" the way a JSON object's member order can.
func firstObjectValue(raw jsoniter.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	iter := jsoniter.ParseBytes(jsoniter.ConfigDefault, raw)
	var value string
	found := false
	iter.ReadObjectCB(func(iter *jsoniter.Iterator, key string) bool {
		value = iter.ReadString()
		found = true
		return false
	})
	if iter.Error != nil && iter.Error != io.EOF {
		return "", false
	}
	return value, found
}

