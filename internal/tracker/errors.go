package tracker

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrUnknownField = errors.New("tracker: unknown task field")
	ErrEmptyTaskID  = errors.New("tracker: empty task id")
)

// APIError is returned when the Zoho API answers with a non-2xx status.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("tracker: %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("tracker: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}
