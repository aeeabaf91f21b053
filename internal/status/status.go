package status

import "errors"

var (
	ErrStoreUnavailable = errors.New("store: unavailable")
	ErrQueryFailure     = errors.New("store: query failure")
)

// Kind classifies a store error for the resource layer.
type Kind string

const (
	KindStoreUnavailable Kind = "store_unavailable"
	KindQueryFailure     Kind = "query_failure"
	KindUnhandled        Kind = "unhandled_exception"
)

// KindOf reports the kind of err. A nil error has no kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrQueryFailure):
		return KindQueryFailure
	default:
		return KindUnhandled
	}
}
