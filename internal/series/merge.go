package series

import (
	"math"
	"sort"

	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// SortedMerge concatenates a set of individually time-sorted batch series
// into one. Empty batches are dropped; the rest are sorted by their first
// timestamp. Adjacent batches that touch or overlap in time are rejected
// with a KindOverlap error. Columns are taken from the first non-empty
// batch. After concatenation, a single left-to-right NaN forward-fill pass
// runs over the merged data (the first row's NaNs, if any, are left as-is).
//
// batches is consumed: callers must not use its Series values afterward.
// Time and Data are copied into new slices, but the merged result shares
// the Columns slice of the first non-empty batch.
func SortedMerge(batches []*Series) (*Series, error) {
	nonEmpty := make([]*Series, 0, len(batches))
	for _, b := range batches {
		if b != nil && b.Num > 0 {
			nonEmpty = append(nonEmpty, b)
		}
	}
	if len(nonEmpty) == 0 {
		return &Series{}, nil
	}

	sort.Slice(nonEmpty, func(i, j int) bool {
		return nonEmpty[i].Time[0] < nonEmpty[j].Time[0]
	})

	for i := 0; i+1 < len(nonEmpty); i++ {
		if nonEmpty[i].TEnd() >= nonEmpty[i+1].Time[0] {
			return nil, tserrors.NewOverlap("cannot merge time-overlapping results")
		}
	}

	columns := nonEmpty[0].Columns
	if len(columns) == 0 {
		return nil, tserrors.NewNoColumns("sortedMerge: no columns")
	}

	merged := &Series{
		Columns:    columns,
		DataStride: len(columns) - 1,
	}
	for _, b := range nonEmpty {
		merged.Num += b.Num
	}
	merged.Time = make([]int64, merged.Num)
	merged.Data = make([]float32, merged.Num*merged.DataStride)

	offset := 0
	for _, b := range nonEmpty {
		copy(merged.Time[offset:], b.Time)
		copy(merged.Data[offset*merged.DataStride:], b.Data)
		offset += b.Num
	}

	for i := 1; i < merged.Num; i++ {
		for c := 0; c < merged.DataStride; c++ {
			idx := i*merged.DataStride + c
			if math.IsNaN(float64(merged.Data[idx])) {
				merged.Data[idx] = merged.Data[(i-1)*merged.DataStride+c]
			}
		}
	}

	return merged, nil
}
