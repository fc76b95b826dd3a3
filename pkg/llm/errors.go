// Package llm provides the provider-agnostic representations of chat completion
// conversations, tool definitions and normalized stream chunks which are then
// serialized per provider and decoded back from their streamed responses.
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/lmstream/pkg/image"
)

// ErrIncorrectContext is returned by a send when the conversation does not end
// on a user turn after trimming, or is empty.
var ErrIncorrectContext = errors.New("incorrect context - missing a new user request")

// ErrInvalidBase64URL is returned when an image content part is not a valid
// base64 data url.
var ErrInvalidBase64URL = image.ErrInvalidDataURL

// ProviderError is a generation error reported by the provider inside the
// stream. It is delivered as a stream item and the stream continues.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return "provider error: " + e.Message
}

// TransportError is the terminal error of a stream whose byte source failed.
// Exactly one is delivered, after which the stream closes.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IncompleteToolCallError reports a tool call whose arguments never became
// valid JSON before the stream ended.
type IncompleteToolCallError struct {
	Index     int
	Name      string
	Arguments string
}

func (e *IncompleteToolCallError) Error() string {
	return fmt.Sprintf("incomplete tool call %q at index %d (%d bytes of arguments)", e.Name, e.Index, len(e.Arguments))
}

// APIError is returned when the provider answers a request with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string

	// Raw is the response body as received.
	Raw []byte
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, msg)
}

// AsAPIError reports whether err is, or wraps, an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ErrorMessage extracts the message of an error envelope, accepting both
// {"error": "<message>"} and {"error": {"message": "<message>"}}.
func ErrorMessage(payload []byte) (string, bool) {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || len(env.Error) == 0 || string(env.Error) == "null" {
		return "", false
	}

	var msg string
	if err := json.Unmarshal(env.Error, &msg); err == nil {
		return msg, true
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message, true
	}
	return "", false
}
