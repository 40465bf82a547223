package planner

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Batch is one grid-aligned sub-query slice of a fetch's overall time
// range, with :time_condition: already expanded into SQL.
type Batch struct {
	Index  int
	Start  int64 // epoch ms, inclusive
	End    int64 // epoch ms; inclusive iff Last
	Last   bool
	Future bool // this batch's window reaches into the last minute
	SQL    string
}

// futureGuard is how far back from "now" a batch is still considered
// "future" and therefore excluded from the artifact cache.
const futureGuard = 60 * time.Second

// batchStart grid-aligns t onto a batchSize boundary: floor(epochMs/batchMs)*batchMs.
func batchStart(t int64, batchSize time.Duration) int64 {
	ms := batchSize.Milliseconds()
	return int64(math.Floor(float64(t)/float64(ms))) * ms
}

// Plan splits [t0, t1] into sub-query batches, each grid-aligned to the
// batch boundary (except the first, which starts exactly at t0, and the
// last, which ends exactly at t1 and is the only batch whose right edge is
// inclusive). The last batch runs from its grid start to t1, so when t0 is
// not on the grid it can be longer than batchSize. sqlTemplate must
// contain exactly one ":time_condition:" token; now is injected by the
// caller rather than read from the clock, so planning stays deterministic
// and testable.
func Plan(sqlTemplate string, t0, t1 int64, batchSize time.Duration, now time.Time) []Batch {
	batchMs := batchSize.Milliseconds()
	count := int(math.Ceil(float64(t1-t0) / float64(batchMs)))
	if count < 1 {
		count = 1
	}

	futureBoundary := now.Add(-futureGuard).UnixMilli()

	batches := make([]Batch, 0, count)
	for bi := 0; bi < count; bi++ {
		aligned := batchStart(t0+int64(bi)*batchMs, batchSize)

		bt0 := aligned
		if bi == 0 {
			bt0 = t0
		}
		bt1 := aligned + batchMs
		last := bi == count-1
		if last || bt1 > t1 {
			bt1 = t1
			last = true
		}

		future := bt1 >= futureBoundary

		op := "<"
		if last {
			op = "<="
		}

		cond := "(time >= '" + FormatTimestamp(bt0) + "' AND time " + op + " '" + FormatTimestamp(bt1) + "')"
		if future {
			cond += "/*future!" + strconv.FormatInt(futureBoundary, 10) + "*/"
		}

		batches = append(batches, Batch{
			Index:  bi,
			Start:  bt0,
			End:    bt1,
			Last:   last,
			Future: future,
			SQL:    strings.Replace(sqlTemplate, ":time_condition:", cond, 1),
		})

		if last {
			break
		}
	}

	return batches
}
