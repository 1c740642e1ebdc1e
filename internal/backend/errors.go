package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"clipdeck/internal/services"
)

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend: %s failed (%s)", e.Op, e.Status)
	}
	return fmt.Sprintf("backend: %s failed (%s): %s", e.Op, e.Status, e.Detail)
}

// Is lets errors.Is classify status errors with the shared markers.
func (e *StatusError) Is(target error) bool {
	switch target {
	case services.ErrRemote:
		return true
	case services.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case services.ErrTimeout:
		return e.StatusCode == http.StatusGatewayTimeout || e.StatusCode == http.StatusRequestTimeout
	default:
		return false
	}
}

func newStatusError(op string, resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Detail:     errorDetail(raw),
	}
}

// errorDetail prefers the "detail" field the service uses for errors and
// falls back to the trimmed body.
func errorDetail(raw []byte) string {
	var payload struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch v := payload.Detail.(type) {
		case string:
			if v != "" {
				return v
			}
		case nil:
		default:
			if encoded, err := json.Marshal(v); err == nil {
				return string(encoded)
			}
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
