package decode

import (
	"math"

	"github.com/basekick-labs/ts-fetch/internal/series"
	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// DataReader decodes the "values" array of a single-series response
// straight into a series.Series, without ever materializing the
// intermediate [][]interface{} a naive json.Unmarshal would produce.
//
// inDataArray tracks array nesting: entering "values" itself sets it to 1,
// the outer row array to 2, each row's cell array to 3 — so numeric
// callbacks only act while inDataArray == 3. A JSON null at a non-time
// column repeats the value numColumns-1 cells back (the previous row's
// value in that column), or NaN if there is no such row yet.
type DataReader struct {
	numColumns int
	target     *series.Series

	inDataArray int
	colIndex    int
	err         error
}

// NewDataReader returns a reader that appends decoded rows onto target,
// which must already have Columns/DataStride set (via ColumnReader).
func NewDataReader(numColumns int, target *series.Series) *DataReader {
	return &DataReader{numColumns: numColumns, target: target}
}

func (r *DataReader) Err() error { return r.err }

func (r *DataReader) fail(err error) bool {
	if r.err == nil {
		r.err = err
	}
	return false
}

func (r *DataReader) Key(key string) bool {
	if key == "values" {
		r.inDataArray++
	}
	return true
}

func (r *DataReader) StartArray() bool {
	if r.inDataArray > 0 {
		r.inDataArray++
	}
	return true
}

func (r *DataReader) EndArray() bool {
	if r.inDataArray == 0 {
		return true
	}
	r.inDataArray--
	switch r.inDataArray {
	case 0:
		return false
	case 2:
		r.colIndex = 0
	}
	return true
}

func (r *DataReader) Uint64(u uint64) bool {
	if r.inDataArray != 3 {
		return true
	}
	if r.colIndex == 0 {
		r.target.Time = append(r.target.Time, int64(u))
	} else {
		r.target.Data = append(r.target.Data, float32(u))
	}
	r.colIndex++
	return true
}

func (r *DataReader) Double(d float64) bool {
	if r.inDataArray != 3 {
		return true
	}
	if r.colIndex == 0 {
		return r.fail(tserrors.NewUnexpectedType("unexpected double in time column"))
	}
	r.target.Data = append(r.target.Data, float32(d))
	r.colIndex++
	return true
}

func (r *DataReader) Null() bool {
	if r.inDataArray != 3 {
		return true
	}
	if r.colIndex == 0 {
		return r.fail(tserrors.NewUnexpectedType("unexpected null in time column"))
	}
	back := r.numColumns - 1
	if len(r.target.Data) < back {
		r.target.Data = append(r.target.Data, float32(math.NaN()))
	} else {
		r.target.Data = append(r.target.Data, r.target.Data[len(r.target.Data)-back])
	}
	r.colIndex++
	return true
}

func (r *DataReader) String(s string) bool {
	if r.inDataArray > 0 {
		return r.fail(tserrors.NewUnexpectedType("unexpected string in data array"))
	}
	return true
}

func (r *DataReader) Bool(b bool) bool {
	if r.inDataArray > 0 {
		return r.fail(tserrors.NewUnexpectedType("unexpected bool in data array"))
	}
	return true
}

func (r *DataReader) StartObject() bool {
	if r.inDataArray > 0 {
		return r.fail(tserrors.NewUnexpectedType("unexpected object in data array"))
	}
	return true
}

func (r *DataReader) EndObject() bool { return true }

// ReadSingleSeries parses data (a full query response with exactly one
// series) into a new series.Series using columns already known to the
// caller (typically read once via ReadColumns for the whole batch).
func ReadSingleSeries(data []byte, columns []string) (*series.Series, error) {
	s := &series.Series{
		Columns:    columns,
		DataStride: len(columns) - 1,
	}
	r := NewDataReader(len(columns), s)
	if err := Parse(data, r); err != nil {
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	s.Num = len(s.Time)
	if err := s.CheckNum(); err != nil {
		return nil, err
	}
	return s, nil
}
