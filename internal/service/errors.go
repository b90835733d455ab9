package service

import (
	"errors"
)

// ErrorKind classifies why a recommendation failed. The HTTP layer maps kinds
// to status codes; tests assert on them directly.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1 // bad input, rejected before any upstream call
	KindUpstream                        // completion API unreachable, rejected or timed out
	KindParse                           // reply text not usable as a product list
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindParse:
		return "response_parse"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ValidationError(err error) error {
	return &Error{Kind: KindValidation, Err: err}
}

func UpstreamError(err error) error {
	return &Error{Kind: KindUpstream, Err: err}
}

func ResponseParseError(err error) error {
	return &Error{Kind: KindParse, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
