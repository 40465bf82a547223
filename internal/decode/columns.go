package decode

// ColumnReader walks a response just far enough to capture the first
// "columns" array it encounters, then signals the walk to stop. Every
// batch of one fetch shares one column schema, so the fetch orchestrator
// reads it from the first reply and reuses it for the other batches.
type ColumnReader struct {
	inColArray bool
	columns    []string
}

// Columns returns the captured column names, in document order.
func (r *ColumnReader) Columns() []string { return r.columns }

func (r *ColumnReader) Key(key string) bool {
	if key == "columns" {
		r.inColArray = true
	}
	return true
}

func (r *ColumnReader) String(s string) bool {
	if r.inColArray {
		r.columns = append(r.columns, s)
	}
	return true
}

func (r *ColumnReader) EndArray() bool {
	// Stop as soon as the columns array closes; there's nothing else in
	// the response this reader needs.
	return !r.inColArray
}

func (r *ColumnReader) Double(float64) bool  { return true }
func (r *ColumnReader) Uint64(uint64) bool   { return true }
func (r *ColumnReader) Null() bool           { return true }
func (r *ColumnReader) Bool(bool) bool       { return true }
func (r *ColumnReader) StartObject() bool    { return true }
func (r *ColumnReader) EndObject() bool      { return true }
func (r *ColumnReader) StartArray() bool     { return true }

// ReadColumns parses data and returns the first "columns" array found.
func ReadColumns(data []byte) ([]string, error) {
	r := &ColumnReader{}
	if err := Parse(data, r); err != nil {
		return nil, err
	}
	return r.columns, nil
}
