package gemini

import "fmt"

// ErrorKind distinguishes transport failures from responses the model
// returned but that could not be interpreted.
type ErrorKind int

const (
	// ErrTransport covers network failures, non-2xx statuses and
	// per-call timeouts. Retryable on a later pass.
	ErrTransport ErrorKind = iota
	// ErrMalformedResponse covers unparseable or schema-violating
	// output from the model. Logged distinctly from a true negative.
	ErrMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "transport"
	case ErrMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// ClassificationError is the typed failure of a single classify call.
type ClassificationError struct {
	Kind      ErrorKind
	Retryable bool
	Err       error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed (%s): %v", e.Kind, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func transportError(err error) *ClassificationError {
	return &ClassificationError{Kind: ErrTransport, Retryable: true, Err: err}
}

func malformedError(err error) *ClassificationError {
	return &ClassificationError{Kind: ErrMalformedResponse, Err: err}
}
