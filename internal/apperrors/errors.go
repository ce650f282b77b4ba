package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the HTTP boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedFormat
	KindEmptyDocument
	KindModelUnavailable
	KindInferenceFailure
	KindInvalidInput
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindEmptyDocument:
		return "empty_document"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindInferenceFailure:
		return "inference_failure"
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// UnsupportedFormatMessage is the literal reported for unknown file extensions.
const UnsupportedFormatMessage = "Unsupported file format"

var (
	ErrUnsupportedFormat = errors.New(UnsupportedFormatMessage)
	ErrEmptyDocument     = errors.New("please upload a document first")
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrInferenceFailure  = errors.New("inference failed")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("resource not found")
)

// Error carries a Kind, the operation that failed and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match an *Error against the sentinel of its kind.
func (e *Error) Is(target error) bool {
	return sentinel(e.Kind) == target
}

func New(kind Kind, op string, err error) *Error {
	if err == nil {
		err = sentinel(kind)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func UnsupportedFormat(op string, err error) *Error { return New(KindUnsupportedFormat, op, err) }
func EmptyDocument(op string) *Error                { return New(KindEmptyDocument, op, nil) }
func ModelUnavailable(op string, err error) *Error  { return New(KindModelUnavailable, op, err) }
func InferenceFailure(op string, err error) *Error  { return New(KindInferenceFailure, op, err) }
func InvalidInput(op string, err error) *Error      { return New(KindInvalidInput, op, err) }
func NotFound(op string, err error) *Error          { return New(KindNotFound, op, err) }

// KindOf reports the kind of err, looking through wrapping. Bare sentinels
// map to their own kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range []Kind{
		KindUnsupportedFormat,
		KindEmptyDocument,
		KindModelUnavailable,
		KindInferenceFailure,
		KindInvalidInput,
		KindNotFound,
	} {
		if errors.Is(err, sentinel(k)) {
			return k
		}
	}
	return KindUnknown
}

func sentinel(k Kind) error {
	switch k {
	case KindUnsupportedFormat:
		return ErrUnsupportedFormat
	case KindEmptyDocument:
		return ErrEmptyDocument
	case KindModelUnavailable:
		return ErrModelUnavailable
	case KindInferenceFailure:
		return ErrInferenceFailure
	case KindInvalidInput:
		return ErrInvalidInput
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}
