package series

// Trim drops the leading run of rows that contain a NaN or infinite value, stopping at the
// first row where every column is finite. Only the leading run is ever
// trimmed — a NaN reappearing later is left alone. Returns the number of
// rows dropped.
func (s *Series) Trim() (int, error) {
	return s.TrimPred(isFiniteRow)
}

// TrimPred is the predicate-driven overload: pred reports whether row i is
// acceptable ("stop trimming here"); every row before the first row for
// which pred returns true is dropped.
func (s *Series) TrimPred(pred RowPredicate) (int, error) {
	i := 0
	for ; i < s.Num; i++ {
		if pred(s.Row(i)) {
			break
		}
	}
	if i > 0 {
		s.Num -= i
		s.Time = append([]int64(nil), s.Time[i:]...)
		s.Data = append([]float32(nil), s.Data[i*s.DataStride:]...)
	}
	return i, nil
}
