package resilience

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"circuit open", eris.Wrap(ErrCircuitOpen, "irradiance: simulate"), ReasonCircuitOpen},
		{"deadline", eris.Wrap(context.DeadlineExceeded, "bacen: fetch"), ReasonTimeout},
		{"net timeout", timeoutErr{}, ReasonTimeout},
		{"canceled", context.Canceled, ReasonCanceled},
		{"provider off", eris.Wrap(ErrUnavailable, "irradiance: none"), ReasonUnavailable},
		{"missing binary", &exec.Error{Name: "pvsim", Err: exec.ErrNotFound}, ReasonUnavailable},
		{"binary path missing", eris.Wrap(&fs.PathError{Op: "fork/exec", Path: "/opt/pvsim", Err: syscall.ENOENT}, "irradiance: run"), ReasonUnavailable},
		{"malformed", eris.Wrapf(ErrMalformed, "irradiance: parse"), ReasonMalformed},
		{"status", eris.Wrap(&StatusError{StatusCode: 503, Body: "down"}, "bacen: latest"), ReasonHTTPStatus},
		{"other", errors.New("weird"), ReasonError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reason(tt.err))
		})
	}
}

func TestStatusError(t *testing.T) {
	err := &StatusError{StatusCode: 500, Body: "oops"}
	assert.Equal(t, "unexpected status 500: oops", err.Error())
}
