package tsfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, string, int) {
	t.Helper()
	srv := httptest.NewServer(handler)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}
	host := u.Hostname()
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parsing test server port: %v", err)
	}
	return srv, host, port
}

func TestClientFetchSingleBatch(t *testing.T) {
	srv, host, port := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "db=metrics") {
			t.Fatalf("missing db param: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"results":[{"series":[{"name":"cpu","columns":["time","usage_idle"],"values":[[0,1],[60000,2],[120000,3]]}]}]}`))
	})
	defer srv.Close()

	c, err := NewClient(host, port, "metrics")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	s, err := c.Fetch(context.Background(), "SELECT * FROM cpu WHERE :time_condition:",
		"2024-01-01T00:00:00.000Z", "2024-01-01T00:02:00.000Z", nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.Num != 3 {
		t.Fatalf("expected 3 rows, got %d", s.Num)
	}
	if s.Time[0] != 0 || s.Time[2] != 120000 {
		t.Fatalf("unexpected time vector: %v", s.Time)
	}
}

func TestClientQueryRejectsBackendError(t *testing.T) {
	srv, host, port := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"error":"database not found"}]}`))
	})
	defer srv.Close()

	c, err := NewClient(host, port, "missing")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = c.Query(ctx, "SELECT * FROM cpu")
	if err == nil {
		t.Fatal("expected backend error")
	}
	if !Is(err, KindBackend) {
		t.Fatalf("expected KindBackend, got %v", err)
	}
}

func TestClientQueryTagsEmptyWithoutSeries(t *testing.T) {
	srv, host, port := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{}]}`))
	})
	defer srv.Close()

	c, err := NewClient(host, port, "metrics")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	tags, err := c.QueryTags(context.Background(), "SHOW TAG VALUES FROM cpu")
	if err != nil {
		t.Fatalf("QueryTags: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("expected no tags, got %v", tags)
	}
}

func TestClientQueryTagsPicksFirstKeyInDocumentOrder(t *testing.T) {
	srv, host, port := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"series":[
			{"name":"cpu","tags":{"host":"a","region":"us"}},
			{"name":"cpu","tags":{"host":"b","region":"eu"}}
		]}]}`))
	})
	defer srv.Close()

	c, err := NewClient(host, port, "metrics")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	tags, err := c.QueryTags(context.Background(), "SHOW TAG VALUES FROM cpu")
	if err != nil {
		t.Fatalf("QueryTags: %v", err)
	}
	// "host" is the first member of each tags object, so its value is
	// picked deterministically regardless of how many tag keys exist.
	if _, ok := tags["a"]; !ok {
		t.Fatalf("expected tag value %q, got %v", "a", tags)
	}
	if _, ok := tags["b"]; !ok {
		t.Fatalf("expected tag value %q, got %v", "b", tags)
	}
	if len(tags) != 2 {
		t.Fatalf("expected exactly 2 tag values, got %v", tags)
	}
}

func TestClientFetchGroupsByTag(t *testing.T) {
	srv, host, port := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"series":[
			{"name":"cpu","tags":{"host":"a"},"columns":["time","usage_idle"],"values":[[0,1],[60000,2]]},
			{"name":"cpu","tags":{"host":"b"},"columns":["time","usage_idle"],"values":[[0,10],[60000,20]]}
		]}]}`))
	})
	defer srv.Close()

	c, err := NewClient(host, port, "metrics")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	groups, err := c.FetchGroups(context.Background(), "SELECT * FROM cpu WHERE :time_condition: GROUP BY host",
		"2024-01-01T00:00:00.000Z", "2024-01-01T00:01:00.000Z", nil,
		func(tags map[string]string) string { return tags["host"] })
	if err != nil {
		t.Fatalf("FetchGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups["a"].Data[0] != 1 || groups["b"].Data[0] != 10 {
		t.Fatalf("unexpected group contents: %+v", groups)
	}
}
