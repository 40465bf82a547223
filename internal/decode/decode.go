// Package decode implements the streaming JSON decoders that turn an
// InfluxDB-style query response directly into series.Series values
// without building an intermediate DOM. It is built on jsoniter's
// ReadObjectCB/ReadArrayCB, which invoke a callback per key/per element as
// the bytes are scanned, so a handler can bail out (return false) before
// the tail of a large payload is ever visited. Handler generalizes that
// callback shape into an interface; walk drives an Iterator against a
// Handler implementation.
package decode

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// Handler receives one callback per JSON token, in document order. Every
// method returns whether the walk should continue; returning false stops
// the walk immediately.
type Handler interface {
	Key(key string) bool
	String(s string) bool
	Double(f float64) bool
	Uint64(u uint64) bool
	Null() bool
	Bool(b bool) bool
	StartObject() bool
	EndObject() bool
	StartArray() bool
	EndArray() bool
}

// Parse drives h over data. It returns the first error recorded by h (via
// its Err method, if it implements one) or a KindParse error if the bytes
// themselves are not valid JSON.
func Parse(data []byte, h Handler) error {
	iter := jsoniter.ConfigDefault.BorrowIterator(data)
	defer jsoniter.ConfigDefault.ReturnIterator(iter)

	walk(iter, h)
	if iter.Error != nil && iter.Error.Error() != "EOF" {
		return tserrors.NewParse("invalid JSON response")
	}
	if e, ok := h.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

// walk visits the next value on iter, dispatching it to h, and recurses
// into objects/arrays. It returns false as soon as h or a nested call asks
// to stop.
func walk(iter *jsoniter.Iterator, h Handler) bool {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		if !h.StartObject() {
			iter.Skip()
			return false
		}
		cont := true
		iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			if !cont {
				it.Skip()
				return true
			}
			if !h.Key(field) {
				cont = false
				it.Skip()
				return true
			}
			if !walk(it, h) {
				cont = false
			}
			return true
		})
		if !h.EndObject() {
			cont = false
		}
		return cont

	case jsoniter.ArrayValue:
		if !h.StartArray() {
			iter.Skip()
			return false
		}
		cont := true
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			if !cont {
				it.Skip()
				return true
			}
			if !walk(it, h) {
				cont = false
			}
			return true
		})
		if !h.EndArray() {
			cont = false
		}
		return cont

	case jsoniter.StringValue:
		return h.String(iter.ReadString())

	case jsoniter.NumberValue:
		return walkNumber(iter, h)

	case jsoniter.NilValue:
		iter.ReadNil()
		return h.Null()

	case jsoniter.BoolValue:
		return h.Bool(iter.ReadBool())

	default:
		iter.Skip()
		return true
	}
}

// walkNumber decides whether a JSON number is delivered to the handler as
// an unsigned integer or a double: an integral, non-negative literal with
// no fractional or exponent part is Uint64; everything else is Double.
func walkNumber(iter *jsoniter.Iterator, h Handler) bool {
	raw := iter.ReadNumber()
	s := string(raw)
	if isPlainUint(s) {
		u, err := raw.Int64()
		if err == nil && u >= 0 {
			return h.Uint64(uint64(u))
		}
	}
	f, err := raw.Float64()
	if err != nil {
		return h.Double(0)
	}
	return h.Double(f)
}

func isPlainUint(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
