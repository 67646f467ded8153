package optimizer

import (
	"errors"
	"fmt"
)

// ErrCall wraps every failed run: transport error, non-2xx status or an
// undecodable response.
var ErrCall = errors.New("optimization call failed")

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "optimizer http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("optimizer http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("optimizer http error: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *HTTPError) Is(target error) bool { return target == ErrCall }
