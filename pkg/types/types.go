package types

import "errors"

// Error taxonomy shared by the completion backends and the session
var (
	// ErrConfigurationMissing means the endpoint or the API key is empty; no request was made
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrTransport covers network failures and non-2xx responses
	ErrTransport = errors.New("transport failure")
	// ErrMalformedResponse means a 2xx body did not have the expected completion shape
	ErrMalformedResponse = errors.New("malformed response")
	// ErrEncoding means the selected file could not be read
	ErrEncoding = errors.New("encoding failure")
)

// Credentials holds the endpoint and bearer token used for completion requests
type Credentials struct {
	EndpointBase string `json:"endpoint_base"`
	APIKey       string `json:"-"`
}

// ResultKind discriminates a completion Result
type ResultKind int

const (
	KindSuccess ResultKind = iota + 1
	KindFailure
)

func (k ResultKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is the outcome of one completion attempt
type Result struct {
	Kind    ResultKind `json:"kind"`
	Text    string     `json:"text,omitempty"`
	Message string     `json:"message,omitempty"`
	Cause   error      `json:"-"`
}

// Success builds a successful result carrying the model's answer
func Success(text string) Result {
	return Result{Kind: KindSuccess, Text: text}
}

// Failure builds a failed result; cause should wrap one of the Err* sentinels
func Failure(message string, cause error) Result {
	return Result{Kind: KindFailure, Message: message, Cause: cause}
}

// Failed reports whether the result is a failure
func (r Result) Failed() bool {
	return r.Kind == KindFailure
}

// Display returns what the user sees for this result before rendering
func (r Result) Display() string {
	if r.Failed() {
		return r.Message
	}
	return r.Text
}
