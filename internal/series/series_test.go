package series

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

func mkSeries(t0, step int64, cols []string, rows [][]float32) *Series {
	s := &Series{
		Columns:    cols,
		DataStride: len(cols) - 1,
		Num:        len(rows),
	}
	for i, r := range rows {
		s.Time = append(s.Time, t0+int64(i)*step)
		s.Data = append(s.Data, r...)
	}
	return s
}

func TestCheckNumValid(t *testing.T) {
	s := mkSeries(0, 1000, []string{"time", "v"}, [][]float32{{1}, {2}, {3}})
	require.NoError(t, s.CheckNum())
}

func TestCheckNumMismatch(t *testing.T) {
	s := mkSeries(0, 1000, []string{"time", "v"}, [][]float32{{1}, {2}})
	s.Num = 3
	err := s.CheckNum()
	require.Error(t, err)
	var tsErr *tserrors.Error
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, tserrors.KindInvariant, tsErr.Kind)
}

func TestEraseInsertRoundTrip(t *testing.T) {
	s := mkSeries(0, 1000, []string{"time", "v"}, [][]float32{{1}, {2}, {3}, {4}})
	require.NoError(t, s.Erase(1, 2))
	assert.Equal(t, 2, s.Num)
	assert.Equal(t, []int64{0, 3000}, s.Time)
	assert.Equal(t, []float32{1, 4}, s.Data)

	at, err := s.Insert(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, at)
	assert.Equal(t, 3, s.Num)
	assert.Equal(t, []int64{0, 0, 3000}, s.Time)
}

func TestTrimDropsLeadingNaN(t *testing.T) {
	s := mkSeries(0, 1000, []string{"time", "v"}, [][]float32{
		{float32(math.NaN())},
		{float32(math.NaN())},
		{3},
		{float32(math.NaN())},
	})
	dropped, err := s.Trim()
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 2, s.Num)
	assert.True(t, math.IsNaN(float64(s.Data[1])))
}

func TestFillForwardFillsAndClosesGaps(t *testing.T) {
	s := mkSeries(0, 1000, []string{"time", "v"}, [][]float32{
		{1},
		{float32(math.NaN())},
		{1},
	})
	s.Time[2] = 3000

	n, err := s.Fill()
	require.NoError(t, err)
	assert.Equal(t, 4, s.Num)
	assert.Equal(t, []int64{0, 1000, 2000, 3000}[:s.Num], s.Time[:s.Num])
	for _, v := range s.Data {
		assert.Equal(t, float32(1), v)
	}
	assert.Greater(t, n, 0)
}

func TestFillTimeGapsRejectsBackwardsTime(t *testing.T) {
	s := mkSeries(0, 1000, []string{"time", "v"}, [][]float32{{1}, {2}})
	s.Time[1] = -5000
	_, err := s.FillTimeGaps()
	require.Error(t, err)
	var tsErr *tserrors.Error
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, tserrors.KindBackwardsTime, tsErr.Kind)
}

func TestSortedMergeConcatenatesAndFills(t *testing.T) {
	a := mkSeries(0, 1000, []string{"time", "v"}, [][]float32{{1}, {2}})
	b := mkSeries(2000, 1000, []string{"time", "v"}, [][]float32{{float32(math.NaN())}, {4}})

	merged, err := SortedMerge([]*Series{b, a})
	require.NoError(t, err)
	require.Equal(t, 4, merged.Num)
	assert.Equal(t, []int64{0, 1000, 2000, 3000}, merged.Time)
	assert.Equal(t, []float32{1, 2, 2, 4}, merged.Data)
}

func TestSortedMergeRejectsOverlap(t *testing.T) {
	a := mkSeries(0, 1000, []string{"time", "v"}, [][]float32{{1}, {2}, {3}})
	b := mkSeries(1000, 1000, []string{"time", "v"}, [][]float32{{4}})

	_, err := SortedMerge([]*Series{a, b})
	require.Error(t, err)
	var tsErr *tserrors.Error
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, tserrors.KindOverlap, tsErr.Kind)
}

func TestJoinInnerAlignsOnCommonWindow(t *testing.T) {
	a := mkSeries(0, 1000, []string{"time", "v1"}, [][]float32{{1}, {2}, {3}, {4}})
	b := mkSeries(2000, 1000, []string{"time", "v2"}, [][]float32{{30}, {40}, {50}})

	require.NoError(t, a.JoinInner(b))
	assert.Equal(t, 2, a.Num)
	assert.Equal(t, []int64{2000, 3000}, a.Time)
	assert.Equal(t, []string{"time", "v1", "v2"}, a.Columns)
	assert.Equal(t, []float32{3, 30, 4, 40}, a.Data)
}

func TestJoinInnerMisalignedIntervals(t *testing.T) {
	a := mkSeries(0, 1000, []string{"time", "v1"}, [][]float32{{1}, {2}, {3}})
	b := mkSeries(0, 2000, []string{"time", "v2"}, [][]float32{{10}, {20}})

	err := a.JoinInner(b)
	require.Error(t, err)
	var tsErr *tserrors.Error
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, tserrors.KindJoinMisaligned, tsErr.Kind)
}

func TestCodecRoundTrip(t *testing.T) {
	s := mkSeries(1000, 1000, []string{"time", "a", "b"}, [][]float32{
		{1, float32(math.NaN())},
		{2, 4},
	})

	buf, err := Encode(s)
	require.NoError(t, err)

	got, err := Decode(bytes.NewReader(buf))
	require.NoError(t, err)

	assert.Equal(t, s.Columns, got.Columns)
	assert.Equal(t, s.Time, got.Time)
	require.Len(t, got.Data, len(s.Data))
	for i := range s.Data {
		if math.IsNaN(float64(s.Data[i])) {
			assert.True(t, math.IsNaN(float64(got.Data[i])))
			continue
		}
		assert.Equal(t, s.Data[i], got.Data[i])
	}
}

func TestDecodeRejectsShortPayload(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("short")))
	require.Error(t, err)
	var tsErr *tserrors.Error
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, tserrors.KindFormat, tsErr.Kind)
}
