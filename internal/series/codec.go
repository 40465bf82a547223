package series

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strings"

	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// Encode serializes s using the cache artifact wire format: three
// little-endian uint64 header fields (column count, num, dataStride), a
// newline, the space-delimited column names, a newline, then num rows of
// (int64 time, dataStride x float32). Name and Tags are not part of the
// codec, since the cache only ever stores the single-series numeric
// payload of one sub-query.
func Encode(s *Series) ([]byte, error) {
	var headerBuf [24]byte
	binary.LittleEndian.PutUint64(headerBuf[0:8], uint64(len(s.Columns)))
	binary.LittleEndian.PutUint64(headerBuf[8:16], uint64(s.Num))
	binary.LittleEndian.PutUint64(headerBuf[16:24], uint64(s.DataStride))

	out := make([]byte, 0, len(headerBuf)+1+32+1+s.Num*(8+4*s.DataStride))
	out = append(out, headerBuf[:]...)
	out = append(out, '\n')
	for _, c := range s.Columns {
		out = append(out, c...)
		out = append(out, ' ')
	}
	out = append(out, '\n')

	var cell [8]byte
	for i := 0; i < s.Num; i++ {
		binary.LittleEndian.PutUint64(cell[:8], uint64(s.Time[i]))
		out = append(out, cell[:8]...)
		for c := 0; c < s.DataStride; c++ {
			binary.LittleEndian.PutUint32(cell[:4], math.Float32bits(s.Data[i*s.DataStride+c]))
			out = append(out, cell[:4]...)
		}
	}
	return out, nil
}

// Decode is the inverse of Encode. It fails with a KindFormat error on a
// missing separator or a short/corrupted payload.
func Decode(r io.Reader) (*Series, error) {
	br := bufio.NewReader(r)

	var header [24]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, tserrors.NewFormat("invalid series header")
	}
	cn := binary.LittleEndian.Uint64(header[0:8])
	num := binary.LittleEndian.Uint64(header[8:16])
	stride := binary.LittleEndian.Uint64(header[16:24])

	sep, err := br.ReadByte()
	if err != nil || sep != '\n' {
		return nil, tserrors.NewFormat("invalid series header separator")
	}

	line, err := br.ReadString('\n')
	if err != nil {
		return nil, tserrors.NewFormat("invalid series column line")
	}
	cols := strings.Fields(strings.TrimRight(line, "\n"))
	if uint64(len(cols)) != cn {
		return nil, tserrors.NewFormat("column count mismatch")
	}

	s := &Series{
		Columns:    cols,
		Num:        int(num),
		DataStride: int(stride),
	}
	s.Time = make([]int64, num)
	s.Data = make([]float32, num*stride)

	var cell [8]byte
	for i := range s.Time {
		if _, err := io.ReadFull(br, cell[:8]); err != nil {
			return nil, tserrors.NewFormat("stream fail reading time")
		}
		s.Time[i] = int64(binary.LittleEndian.Uint64(cell[:8]))
		for c := 0; c < int(stride); c++ {
			if _, err := io.ReadFull(br, cell[:4]); err != nil {
				return nil, tserrors.NewFormat("stream fail reading data")
			}
			s.Data[i*int(stride)+c] = math.Float32frombits(binary.LittleEndian.Uint32(cell[:4]))
		}
	}

	return s, nil
}
