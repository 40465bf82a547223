package decode

import (
	"math"

	"github.com/basekick-labs/ts-fetch/internal/series"
	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// The "series" array itself is nesting level 2, each series' "values"
// rows are level 3, and each row's cells are level 4.
const (
	seriesObjectLevel      = 2
	seriesArrayLevelSeries = 2
	seriesArrayLevelRow    = 3
	seriesArrayLevelCol    = 4
)

// SeriesReader decodes a multi-series "results[0].series" array, one
// series.Series per element, capturing each series' tag set along the
// way. Used for grouped queries (GROUP BY tag) where a single sub-query's
// response carries more than one series.
type SeriesReader struct {
	numColumns int
	result     []*series.Series
	current    *series.Series

	inSeriesArray int
	lvObjects     int
	inTags        bool
	currentTagKey string
	colIndex      int
	err           error
}

// NewSeriesReader returns a reader that appends one *series.Series per
// decoded series object; each gets columns (and therefore DataStride)
// copied from the caller-supplied schema.
func NewSeriesReader(numColumns int) *SeriesReader {
	return &SeriesReader{numColumns: numColumns, lvObjects: -1}
}

func (r *SeriesReader) Result() []*series.Series { return r.result }
func (r *SeriesReader) Err() error               { return r.err }

func (r *SeriesReader) fail(err error) bool {
	if r.err == nil {
		r.err = err
	}
	return false
}

func (r *SeriesReader) Key(key string) bool {
	if r.inTags {
		r.currentTagKey = key
	}
	if r.inSeriesArray > 0 && !r.inTags && key == "tags" {
		r.inTags = true
	}
	if key == "series" {
		r.inSeriesArray++
	}
	return true
}

func (r *SeriesReader) StartArray() bool {
	if r.inSeriesArray > 0 {
		r.inSeriesArray++
	}
	return true
}

func (r *SeriesReader) EndArray() bool {
	if r.inSeriesArray == 0 {
		return true
	}
	r.inSeriesArray--
	switch r.inSeriesArray {
	case 0:
		return false
	case seriesArrayLevelRow:
		r.colIndex = 0
	}
	return true
}

func (r *SeriesReader) StartObject() bool {
	r.lvObjects++

	if r.inSeriesArray == seriesArrayLevelSeries && r.current == nil && r.lvObjects == seriesObjectLevel {
		r.current = &series.Series{DataStride: r.numColumns - 1}
		r.result = append(r.result, r.current)
	}

	if r.inSeriesArray >= seriesArrayLevelRow {
		return r.fail(tserrors.NewUnexpectedType("unexpected object in series data array"))
	}
	return true
}

func (r *SeriesReader) EndObject() bool {
	if r.current != nil && r.lvObjects == seriesObjectLevel {
		r.current = nil
	}
	if r.inTags {
		r.inTags = false
	}
	r.lvObjects--
	return true
}

func (r *SeriesReader) Uint64(u uint64) bool {
	if r.inSeriesArray != seriesArrayLevelCol {
		return true
	}
	if r.colIndex == 0 {
		r.current.Time = append(r.current.Time, int64(u))
	} else {
		r.current.Data = append(r.current.Data, float32(u))
	}
	r.colIndex++
	return true
}

func (r *SeriesReader) Double(d float64) bool {
	if r.inSeriesArray != seriesArrayLevelCol {
		return true
	}
	if r.current == nil {
		return r.fail(tserrors.NewUnexpectedType("unexpected double (no current series)"))
	}
	if r.colIndex == 0 {
		return r.fail(tserrors.NewUnexpectedType("unexpected double in time column"))
	}
	r.current.Data = append(r.current.Data, float32(d))
	r.colIndex++
	return true
}

func (r *SeriesReader) Null() bool {
	if r.inSeriesArray != seriesArrayLevelCol {
		return true
	}
	if r.colIndex == 0 {
		return r.fail(tserrors.NewUnexpectedType("unexpected null in time column"))
	}
	back := r.numColumns - 1
	if len(r.current.Data) < back {
		r.current.Data = append(r.current.Data, float32(math.NaN()))
	} else {
		r.current.Data = append(r.current.Data, r.current.Data[len(r.current.Data)-back])
	}
	r.colIndex++
	return true
}

func (r *SeriesReader) String(s string) bool {
	if r.inSeriesArray >= seriesArrayLevelCol {
		return r.fail(tserrors.NewUnexpectedType("unexpected string in series data array"))
	}
	if r.inTags {
		if r.current.Tags == nil {
			r.current.Tags = make(map[string]string)
		}
		r.current.Tags[r.currentTagKey] = s
	}
	return true
}

func (r *SeriesReader) Bool(b bool) bool {
	if r.inSeriesArray >= seriesArrayLevelRow {
		return r.fail(tserrors.NewUnexpectedType("unexpected bool in series data array"))
	}
	return true
}

// ReadAllSeries parses a results[0].series-shaped response into one
// series.Series per element, assigning columns to each from the schema
// already read by the caller (ReadColumns).
func ReadAllSeries(data []byte, columns []string) ([]*series.Series, error) {
	r := NewSeriesReader(len(columns))
	if err := Parse(data, r); err != nil {
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	for _, s := range r.result {
		s.Columns = columns
		s.Num = len(s.Time)
		if err := s.CheckNum(); err != nil {
			return nil, err
		}
	}
	return r.result, nil
}
