package series

import "github.com/basekick-labs/ts-fetch/internal/tserrors"

// JoinInner aligns other onto s by timestamp equality and appends other's
// numeric columns (other.Columns[1:]) to s in place. It advances into
// other until its first timestamp reaches s.Time[0], then advances into s
// until a matching timestamp is found; failing to align before either
// series is exhausted is a KindJoinMisaligned error, as is any mismatch
// once stepping both series in lock-step.
//
// Retains only the aligned window: the leading offset into s is
// subtracted before Time is truncated, so s.Num becomes exactly the
// number of rows that were actually joined.
func (s *Series) JoinInner(other *Series) error {
	if s.Num == 0 || other.Num == 0 {
		return tserrors.NewJoinMisaligned("cannot join empty series")
	}

	otherA := 0
	for otherA < other.Num && other.Time[otherA] < s.Time[0] {
		otherA++
	}
	if otherA == other.Num {
		return tserrors.NewJoinMisaligned("cannot join non-overlapping series")
	}

	selfA := 0
	for other.Time[otherA] != s.Time[selfA] {
		selfA++
		if selfA >= s.Num {
			return tserrors.NewJoinMisaligned("cannot join series with different sampling interval")
		}
	}

	joint := make([]float32, 0, len(s.Data)+len(other.Data))
	k := 0
	for selfA+k < s.Num && otherA+k < other.Num {
		if s.Time[selfA+k] != other.Time[otherA+k] {
			return tserrors.NewJoinMisaligned("cannot join series with differing sampling intervals")
		}
		joint = append(joint, s.Row(selfA+k)...)
		joint = append(joint, other.Row(otherA+k)...)
		k++
	}

	s.Columns = append(s.Columns, other.Columns[1:]...)
	s.DataStride += other.DataStride
	s.Data = joint
	s.Time = append([]int64(nil), s.Time[selfA:selfA+k]...)
	s.Num = k

	return nil
}
