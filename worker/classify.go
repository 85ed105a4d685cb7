package worker

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/sheenubhat/network-automation-scripts/model"
)

// attemptError carries the failure classification across the session
// boundary so the executor records the right kind without string matching.
type attemptError struct {
	kind model.FailureKind
	err  error
}

func (e *attemptError) Error() string { return e.err.Error() }

func (e *attemptError) Unwrap() error { return e.err }

func transportErr(err error) *attemptError {
	return &attemptError{kind: model.FailureTransport, err: err}
}

// classifyDialErr buckets a connection-establishment failure. Timeouts and
// credential rejections imply different remediation, so they get their own
// kinds; everything else is a transport problem.
func classifyDialErr(err error) *attemptError {
	kind := model.FailureTransport
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, context.DeadlineExceeded),
		// x/crypto/ssh does not wrap the underlying net error on handshake
		// failure, so a stalled handshake only shows up in the text
		strings.Contains(err.Error(), "i/o timeout"):
		kind = model.FailureConnectTimeout
	case strings.Contains(err.Error(), "unable to authenticate"),
		strings.Contains(err.Error(), "permission denied"):
		// x/crypto/ssh has no typed auth error, this is the documented text
		kind = model.FailureConnectAuth
	}
	return &attemptError{kind: kind, err: err}
}

// failureKind extracts the classification from an error, defaulting any
// unmarked error to an internal failure so bugs stay distinguishable from
// device problems.
func failureKind(err error) model.FailureKind {
	var ae *attemptError
	if errors.As(err, &ae) {
		return ae.kind
	}
	return model.FailureInternal
}
