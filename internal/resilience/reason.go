package resilience

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os/exec"

	"github.com/rotisserie/eris"
)

// Degraded reasons.
const (
	ReasonTimeout     = "timeout"
	ReasonCircuitOpen = "circuit_open"
	ReasonUnavailable = "unavailable"
	ReasonMalformed   = "malformed_output"
	ReasonHTTPStatus  = "http_status"
	ReasonCanceled    = "canceled"
	ReasonError       = "error"
)

// ErrUnavailable marks a provider that is configured off.
var ErrUnavailable = eris.New("service unavailable")

// ErrMalformed marks a response that could not be parsed or failed validation.
var ErrMalformed = eris.New("malformed response")

// StatusError is a non-2xx answer from an HTTP dependency.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// statusCoder is implemented by client errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// Reason classifies err into a short, stable label for Degraded records and metrics.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var (
		netErr    net.Error
		statusErr statusCoder
		execErr   *exec.Error
	)
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return ReasonCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, ErrUnavailable), errors.As(err, &execErr), errors.Is(err, fs.ErrNotExist):
		return ReasonUnavailable
	case errors.Is(err, ErrMalformed):
		return ReasonMalformed
	case errors.As(err, &statusErr):
		return ReasonHTTPStatus
	default:
		return ReasonError
	}
}
