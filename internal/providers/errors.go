package providers

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// KindNetwork covers failed requests and non-2xx responses.
	KindNetwork ErrorKind = iota + 1
	// KindMalformed means the response arrived but its shape is unexpected.
	KindMalformed
	// KindEmpty means reconstruction produced no body text.
	KindEmpty
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network error"
	case KindMalformed:
		return "malformed response"
	case KindEmpty:
		return "empty content"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// Sentinels for errors.Is; an *Error matches the sentinel of its kind.
var (
	ErrNetwork   = errors.New("network error")
	ErrMalformed = errors.New("malformed response")
	ErrEmpty     = errors.New("empty content")
)

type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}

	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrMalformed:
		return e.Kind == KindMalformed
	case ErrEmpty:
		return e.Kind == KindEmpty
	}

	return false
}

// KindOf reports the kind of the first *Error in err's chain. Errors that
// are not *Error values are treated as network failures.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}

	return KindNetwork
}
