// Package series implements the column-major numeric frame at the center
// of the fetch engine: a Series holds one time vector plus a row-major
// block of float32 values, and the mutators (fill, trim, join,
// sortedMerge) that the fetch orchestrator composes into a single merged
// result. Data is kept as float32 in memory even though the wire format
// carries float64, trading precision for half the memory footprint on
// large series.
package series

import (
	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// Series is a single-series time-series frame. name/tags are empty/nil for
// a bare "fetch result" produced by the single-series decode path.
type Series struct {
	Name       string
	Tags       map[string]string
	Columns    []string
	Num        int
	DataStride int
	Data       []float32
	Time       []int64
}

// New returns an empty Series ready to be populated by a decoder.
func New() *Series {
	return &Series{}
}

// Clear resets the series to empty data/time/num, keeping Columns intact.
func (s *Series) Clear() {
	s.Data = s.Data[:0]
	s.Time = s.Time[:0]
	s.Num = 0
}

// T returns the timestamp of row i.
func (s *Series) T(i int) int64 { return s.Time[i] }

// TEnd returns the timestamp of the last row.
func (s *Series) TEnd() int64 { return s.Time[s.Num-1] }

// TSize returns the length of the time vector (distinct from Num only
// during decode, before CheckNum has run).
func (s *Series) TSize() int { return len(s.Time) }

// Row returns the dataStride values of row i, as a slice sharing Data's
// backing array — callers must not retain it across a mutation.
func (s *Series) Row(i int) []float32 {
	return s.Data[i*s.DataStride : (i+1)*s.DataStride]
}

// CheckNum validates the three structural invariants from the
// specification: num == len(time), dataStride == len(columns)-1, and
// len(data) == num*dataStride.
func (s *Series) CheckNum() error {
	if s.Num != len(s.Time) {
		return tserrors.NewInvariant("unexpected time length")
	}
	if s.DataStride != len(s.Columns)-1 {
		return tserrors.NewInvariant("unexpected columns size")
	}
	if s.DataStride == 0 {
		if len(s.Data) != 0 {
			return tserrors.NewInvariant("unexpected data size")
		}
		return nil
	}
	if len(s.Data) != s.Num*s.DataStride {
		return tserrors.NewInvariant("unexpected data size")
	}
	return nil
}

// Erase removes count rows starting at start, shifting the remainder down.
func (s *Series) Erase(start, count int) error {
	if start+count > s.Num {
		return tserrors.NewInvariant("erase: out of range")
	}
	s.Num -= count
	s.Data = append(s.Data[:start*s.DataStride], s.Data[(start+count)*s.DataStride:]...)
	s.Time = append(s.Time[:start], s.Time[start+count:]...)
	return s.CheckNum()
}

// Insert splices count zero-valued rows at start, returning the index the
// caller should start writing real values/timestamps into.
func (s *Series) Insert(start, count int) (int, error) {
	s.Num += count

	zeros := make([]float32, count*s.DataStride)
	data := make([]float32, 0, len(s.Data)+len(zeros))
	data = append(data, s.Data[:start*s.DataStride]...)
	data = append(data, zeros...)
	data = append(data, s.Data[start*s.DataStride:]...)
	s.Data = data

	zt := make([]int64, count)
	t := make([]int64, 0, len(s.Time)+count)
	t = append(t, s.Time[:start]...)
	t = append(t, zt...)
	t = append(t, s.Time[start:]...)
	s.Time = t

	if err := s.CheckNum(); err != nil {
		return 0, err
	}
	return start, nil
}
