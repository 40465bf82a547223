// Package tserrors defines the error taxonomy shared by every tsfetch
// component, so that a caller can use errors.As/errors.Is regardless of
// which layer (decoder, executor, planner, series algebra, cache) raised
// the failure.
package tserrors

import "fmt"

// Kind identifies which class of failure an Error represents. It mirrors
// the error taxonomy table in the specification rather than naming a Go
// type per error — multiple constructors can share a Kind.
type Kind int

const (
	// KindHTTP is raised by the request executor once retries are exhausted.
	KindHTTP Kind = iota
	// KindBackend is raised when the backend responds 200 with results[0].error set.
	KindBackend
	// KindParse is raised on malformed JSON; retried up to 4x by Query.
	KindParse
	// KindUnexpectedType is raised by a streaming decoder on an unexpected JSON token.
	KindUnexpectedType
	// KindOverlap is raised by SortedMerge when two batches share time.
	KindOverlap
	// KindNoColumns is raised by SortedMerge when the earliest non-empty batch has no columns.
	KindNoColumns
	// KindBackwardsTime is raised by FillTimeGaps on a negative gap.
	KindBackwardsTime
	// KindJoinMisaligned is raised by JoinInner when no common timestamp exists.
	KindJoinMisaligned
	// KindFormat is raised by the cache codec on a malformed artifact.
	KindFormat
	// KindIO is raised by the cache on a filesystem failure.
	KindIO
	// KindInvariant is raised by Series.CheckNum and the splice primitives
	// (Erase/Insert) on a corrupted frame: a column-count/data-length
	// mismatch that should never occur from a well-formed decode. Not part
	// of the wire-level taxonomy, but kept distinct so callers can tell a
	// local invariant violation apart from anything the backend sent.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindBackend:
		return "backend"
	case KindParse:
		return "parse"
	case KindUnexpectedType:
		return "unexpected_type"
	case KindOverlap:
		return "overlap"
	case KindNoColumns:
		return "no_columns"
	case KindBackwardsTime:
		return "backwards_time"
	case KindJoinMisaligned:
		return "join_misaligned"
	case KindFormat:
		return "format"
	case KindIO:
		return "io"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is the concrete error type for every tsfetch failure.
type Error struct {
	Kind    Kind
	Message string
	SQL     string // expanded sub-query text, when the error is query-scoped
	Status  int    // HTTP status, only meaningful for KindHTTP
	Body    []byte // response body, only meaningful for KindHTTP
	FetchID string // correlation ID of the Fetch/FetchGroups call this error surfaced from, if any
	Wrapped error
}

func (e *Error) Error() string {
	suffix := ""
	if e.FetchID != "" {
		suffix = fmt.Sprintf(" [fetch_id %s]", e.FetchID)
	}
	switch {
	case e.SQL != "" && e.Kind == KindHTTP:
		return fmt.Sprintf("%s: %s (status %d, sql %q)%s", e.Kind, e.Message, e.Status, e.SQL, suffix)
	case e.SQL != "":
		return fmt.Sprintf("%s: %s (sql %q)%s", e.Kind, e.Message, e.SQL, suffix)
	default:
		return fmt.Sprintf("%s: %s%s", e.Kind, e.Message, suffix)
	}
}

// WithFetchID annotates e with the correlation ID of the call that
// surfaced it and returns e, so callers can chain it at a return site.
func (e *Error) WithFetchID(id string) *Error {
	e.FetchID = id
	return e
}

func (e *Error) Unwrap() error { return e.Wrapped }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: err}
}

// maxHTTPErrorBody bounds how much of an oversized error response body is
// kept on the Error, so a misbehaving backend returning megabytes of HTML
// doesn't balloon every log line that prints this error.
const maxHTTPErrorBody = 500

func NewHTTP(status int, body []byte, sql string) *Error {
	return &Error{Kind: KindHTTP, Message: "request failed after retries", Status: status, Body: truncateBody(body), SQL: sql}
}

// WrapHTTP reports a request that never produced a status line at all
// (dial failure, timeout, connection reset, ...) after retries.
func WrapHTTP(err error, sql string) *Error {
	return &Error{Kind: KindHTTP, Message: "request failed after retries", SQL: sql, Wrapped: err}
}

func truncateBody(body []byte) []byte {
	if len(body) <= maxHTTPErrorBody {
		return body
	}
	return body[:maxHTTPErrorBody]
}

func NewBackend(message, sql string) *Error {
	return &Error{Kind: KindBackend, Message: message, SQL: sql}
}

func NewParse(message string) *Error {
	return &Error{Kind: KindParse, Message: message}
}

func NewUnexpectedType(message string) *Error {
	return &Error{Kind: KindUnexpectedType, Message: message}
}

func NewOverlap(message string) *Error {
	return &Error{Kind: KindOverlap, Message: message}
}

func NewNoColumns(message string) *Error {
	return &Error{Kind: KindNoColumns, Message: message}
}

func NewBackwardsTime(message string) *Error {
	return &Error{Kind: KindBackwardsTime, Message: message}
}

func NewJoinMisaligned(message string) *Error {
	return &Error{Kind: KindJoinMisaligned, Message: message}
}

func NewFormat(message string) *Error {
	return &Error{Kind: KindFormat, Message: message}
}

func NewIO(message string, err error) *Error {
	return &Error{Kind: KindIO, Message: message, Wrapped: err}
}

func NewInvariant(message string) *Error {
	return &Error{Kind: KindInvariant, Message: message}
}

// Is lets errors.Is(err, tserrors.New(KindOverlap, "")) match purely on Kind,
// ignoring Message/SQL — useful in tests that only care about the category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
