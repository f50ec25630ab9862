package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindNetwork Kind = iota + 1
	KindTimeout
	KindCanceled
	KindAuth
	KindValidation
	KindServer
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindAuth:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed-response"
	default:
		return "unknown"
	}
}

// Error is the tagged failure every transport call and typed image operation
// reports. Status is 0 when no response was received.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// KindOf returns the Kind of err, or 0 if err is not a *Error.
func KindOf(err error) Kind {
	var transportErr *Error
	if errors.As(err, &transportErr) {
		return transportErr.Kind
	}
	return 0
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var transportErr *Error
	if errors.As(err, &transportErr) {
		return transportErr.Status
	}
	return 0
}

func Malformed(status int, err error) *Error {
	return &Error{Kind: KindMalformed, Status: status, Message: err.Error()}
}

// statusError classifies a non-2xx response.
func statusError(status int, body []byte) *Error {
	kind := KindServer
	switch {
	case status == http.StatusUnauthorized:
		kind = KindAuth
	case status >= 400 && status < 500:
		kind = KindValidation
	}
	return &Error{Kind: kind, Status: status, Message: messageFromBody(status, body)}
}

// messageFromBody prefers {"error": ...} or {"message": ...} payloads and
// falls back to the raw body or the status text.
func messageFromBody(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 {
		return text
	}
	return http.StatusText(status)
}
