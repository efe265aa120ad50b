package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StatusError is returned for non-2xx backend responses. The backend wraps
// failures in a {"detail": ...} envelope where detail is either a plain
// string or an object with a message field.
type StatusError struct {
	Code    int
	Path    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s returned %d", e.Path, e.Code)
}

// NotFound reports whether the error is a 404.
func (e *StatusError) NotFound() bool { return e.Code == http.StatusNotFound }

func newStatusError(code int, path string, body []byte) *StatusError {
	e := &StatusError{Code: code, Path: path}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return e
	}

	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil {
		e.Message = msg
		return e
	}

	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(envelope.Detail, &obj); err == nil {
		if obj.Message != "" {
			e.Message = obj.Message
		} else {
			e.Message = obj.Error
		}
	}
	return e
}
