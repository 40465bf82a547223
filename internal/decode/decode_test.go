package decode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const singleSeriesResponse = `{
  "results": [
    {
      "series": [
        {
          "name": "cpu",
          "columns": ["time", "usage_idle", "usage_user"],
          "values": [
            [1000, 90.5, 1.2],
            [2000, null, 1.4],
            [3000, 88.1, null]
          ]
        }
      ]
    }
  ]
}`

const groupedSeriesResponse = `{
  "results": [
    {
      "series": [
        {
          "name": "cpu",
          "tags": {"host": "a"},
          "columns": ["time", "usage_idle"],
          "values": [[1000, 1], [2000, 2]]
        },
        {
          "name": "cpu",
          "tags": {"host": "b"},
          "columns": ["time", "usage_idle"],
          "values": [[1000, 10], [2000, 20]]
        }
      ]
    }
  ]
}`

func TestReadColumns(t *testing.T) {
	cols, err := ReadColumns([]byte(singleSeriesResponse))
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "usage_idle", "usage_user"}, cols)
}

func TestReadSingleSeries(t *testing.T) {
	cols, err := ReadColumns([]byte(singleSeriesResponse))
	require.NoError(t, err)

	s, err := ReadSingleSeries([]byte(singleSeriesResponse), cols)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Num)
	assert.Equal(t, []int64{1000, 2000, 3000}, s.Time)
	assert.Equal(t, float32(90.5), s.Data[0])
	// row 1's null usage_idle repeats row 0's value, since a previous row exists.
	assert.Equal(t, float32(90.5), s.Data[2])
	assert.Equal(t, float32(1.4), s.Data[3])
	// row 2's null usage_user repeats row 1's value for the same column.
	assert.Equal(t, float32(1.4), s.Data[5])
}

func TestReadSingleSeriesRepeatsNaNWhenNoPriorRowExists(t *testing.T) {
	const firstRowNull = `{"results":[{"series":[{"columns":["time","usage_idle"],"values":[[1000,null],[2000,5.0]]}]}]}`
	cols, err := ReadColumns([]byte(firstRowNull))
	require.NoError(t, err)

	s, err := ReadSingleSeries([]byte(firstRowNull), cols)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(float64(s.Data[0])), "null on the very first row has no prior value to repeat")
	assert.Equal(t, float32(5.0), s.Data[1])
}

func TestReadAllSeriesGrouped(t *testing.T) {
	cols, err := ReadColumns([]byte(groupedSeriesResponse))
	require.NoError(t, err)

	all, err := ReadAllSeries([]byte(groupedSeriesResponse), cols)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "a", all[0].Tags["host"])
	assert.Equal(t, "b", all[1].Tags["host"])
	assert.Equal(t, []int64{1000, 2000}, all[0].Time)
	assert.Equal(t, []float32{1, 2}, all[0].Data)
	assert.Equal(t, []float32{10, 20}, all[1].Data)
}

func TestReadSingleSeriesRejectsUnexpectedString(t *testing.T) {
	const bad = `{"results":[{"series":[{"columns":["time","v"],"values":[[1000,"oops"]]}]}]}`
	_, err := ReadSingleSeries([]byte(bad), []string{"time", "v"})
	require.Error(t, err)
}
