package series

import (
	"math"

	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// RowPredicate reports whether row (dataStride values) is acceptable as-is.
// A row for which it returns false is overwritten with the previous row's
// values by FillPred.
type RowPredicate func(row []float32) bool

// isFiniteRow is the predicate Trim uses by default: "this row needs no
// trimming" means every cell is finite.
func isFiniteRow(row []float32) bool {
	for _, v := range row {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

// Fill forward-fills any NaN cell with the value directly above it in the
// same column, then closes timestamp gaps via FillTimeGaps. Returns the
// number of cells filled plus gap rows inserted. The first row's NaNs, if
// any, are left untouched — there is no "previous" row to copy from.
func (s *Series) Fill() (int, error) {
	if s.Num < 2 {
		return 0, nil
	}
	filled := 0
	for i := 1; i < s.Num; i++ {
		for c := 0; c < s.DataStride; c++ {
			idx := i*s.DataStride + c
			if math.IsNaN(float64(s.Data[idx])) {
				s.Data[idx] = s.Data[(i-1)*s.DataStride+c]
				filled++
			}
		}
	}
	gaps, err := s.FillTimeGaps()
	return filled + gaps, err
}

// FillPred is the predicate-driven overload: any row failing pred is
// replaced wholesale by the previous row, then FillTimeGaps runs.
func (s *Series) FillPred(pred RowPredicate) (int, error) {
	if s.Num < 2 {
		return 0, nil
	}
	filled := 0
	for i := 1; i < s.Num; i++ {
		row := s.Row(i)
		if !pred(row) {
			copy(row, s.Row(i-1))
			filled += s.DataStride
		}
	}
	gaps, err := s.FillTimeGaps()
	return filled + gaps, err
}

// FillTimeGaps inserts replica rows (equal to the previous row's values)
// wherever the sampling interval derived from the first two timestamps is
// exceeded, so the resulting time vector has no missing samples. Fails
// with a KindBackwardsTime error if time ever runs backwards.
func (s *Series) FillTimeGaps() (int, error) {
	if s.Num < 2 {
		return 0, nil
	}
	si := s.Time[1] - s.Time[0]
	if si < 0 {
		return 0, tserrors.NewBackwardsTime("unexpected time jump backwards")
	}
	if si == 0 {
		return 0, nil
	}

	newTime := make([]int64, 0, s.Num)
	newData := make([]float32, 0, len(s.Data))
	newTime = append(newTime, s.Time[0])
	newData = append(newData, s.Row(0)...)

	filled := 0
	lastT := s.Time[0]
	for i := 1; i < s.Num; i++ {
		nIns := (s.Time[i]-lastT)/si - 1
		if nIns < 0 {
			return filled, tserrors.NewBackwardsTime("unexpected time jump backwards")
		}
		for j := int64(0); j < nIns; j++ {
			newTime = append(newTime, lastT+(j+1)*si)
			prevRow := newData[len(newData)-s.DataStride:]
			newData = append(newData, prevRow...)
			filled++
		}
		newTime = append(newTime, s.Time[i])
		newData = append(newData, s.Row(i)...)
		lastT = s.Time[i]
	}

	s.Time = newTime
	s.Data = newData
	s.Num = len(newTime)
	return filled, nil
}
