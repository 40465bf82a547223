// Package tsfetch is a client-side time-series fetching engine that sits
// in front of an InfluxDB v1-style HTTP backend (GET /query?db=...&epoch=ms&q=...).
//
// A logical [t0, t1] range query is split into grid-aligned batches
// (internal/planner), dispatched concurrently over a pooled, retrying HTTP
// executor (internal/transport), decoded straight from the JSON response
// into column-major numeric frames with a streaming decoder
// (internal/decode), and stitched back into one time-ordered Series
// (internal/series) via sorted merge, gap fill, trim and inner join. A
// filesystem cache keyed by a fingerprint of the expanded sub-query SQL
// (internal/cache) lets historical, non-tainted ranges skip the backend
// entirely on a repeat fetch.
package tsfetch
