package tsfetch

import (
	"errors"

	"github.com/basekick-labs/ts-fetch/internal/tserrors"
)

// Error is the concrete error type behind the errors tsfetch operations
// return; an unparsable t0/t1 passed to Fetch or FetchGroups is the
// exception and is returned as the time package's parse error. Use errors.As to recover it and inspect Kind, or errors.Is against one
// of the Kind constants below wrapped in a *tserrors.Error (tsfetch.Is
// does this for you).
type Error = tserrors.Error

// Kind classifies a tsfetch failure. See the package-level constants.
type Kind = tserrors.Kind

const (
	KindHTTP           = tserrors.KindHTTP
	KindBackend        = tserrors.KindBackend
	KindParse          = tserrors.KindParse
	KindUnexpectedType = tserrors.KindUnexpectedType
	KindOverlap        = tserrors.KindOverlap
	KindNoColumns      = tserrors.KindNoColumns
	KindBackwardsTime  = tserrors.KindBackwardsTime
	KindJoinMisaligned = tserrors.KindJoinMisaligned
	KindFormat         = tserrors.KindFormat
	KindIO             = tserrors.KindIO
	KindInvariant      = tserrors.KindInvariant
)

// Is reports whether err is a tsfetch error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
