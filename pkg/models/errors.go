package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the HTTP layer. Every kind is terminal for
// the request that hit it.
type Kind int

const (
	KindConfiguration Kind = iota + 1
	KindValidation
	KindUpstreamAuth
	KindUpstreamSearch
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindUpstreamAuth:
		return "upstream_auth"
	case KindUpstreamSearch:
		return "upstream_search"
	default:
		return "unknown"
	}
}

// Status maps the kind to the HTTP status reported to callers.
func (k Kind) Status() int {
	if k == KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error is the error type shared by the token cache and the search pipeline.
// Details holds the upstream error body when there is one.
type Error struct {
	Kind    Kind
	Message string
	Details json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrMissingCredentials = errors.New("client id or client secret not configured")
	ErrMissingQuery       = errors.New("empty search query")
)

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// RawDetails turns an upstream body into something that can be embedded in a
// JSON response: valid JSON is kept as is, anything else becomes a string.
func RawDetails(body []byte) json.RawMessage {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
