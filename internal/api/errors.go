package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// The gateway is the only place raw transport and decoding failures are
// allowed to exist; everything leaving this package is one of the error
// kinds below.

// NetworkError means no HTTP response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response that maps to no more specific kind.
type HTTPError struct {
	Status  int
	Body    string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d", e.Status)
}

// ValidationError carries per-field messages for an unprocessable
// payload, either rejected by the backend or caught by client-side
// preflight validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// NotFoundError is a 404 on get, update or delete.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string { return "not found: " + e.Path }

// ParseError means the response body was not the JSON we expected.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AsValidation extracts a ValidationError if err is (or wraps) one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// classifyResponse turns a non-2xx response into a taxonomy error.
// Error bodies follow the backend's loose convention: an optional
// "message"/"error"/"detail" string plus per-field entries whose values
// are strings or string arrays.
func classifyResponse(status int, path string, body []byte) error {
	if status == http.StatusNotFound {
		return &NotFoundError{Path: path}
	}

	message, fields := decodeErrorBody(body)

	if (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity) && len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return &HTTPError{Status: status, Body: string(body), Message: message}
}

var topLevelMessageKeys = map[string]bool{
	"message": true,
	"error":   true,
	"detail":  true,
}

func decodeErrorBody(body []byte) (message string, fields map[string]string) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", nil
	}

	fields = make(map[string]string)
	for key, val := range raw {
		var s string
		if err := json.Unmarshal(val, &s); err == nil {
			if topLevelMessageKeys[key] {
				if message == "" {
					message = s
				}
			} else {
				fields[key] = s
			}
			continue
		}
		// DRF style: {"field": ["msg1", "msg2"]}
		var list []string
		if err := json.Unmarshal(val, &list); err == nil && len(list) > 0 {
			fields[key] = list[0]
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	return message, fields
}
