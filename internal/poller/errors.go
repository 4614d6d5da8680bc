// internal/poller/errors.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/tamzrod/sabwatch/internal/status"
)

// maxPayloadExcerpt bounds how much of a bad response is kept for diagnosis.
const maxPayloadExcerpt = 512

// TransportError: the service could not be reached (network, timeout, HTTP status).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("poller: %s: transport: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// ProtocolError: the service answered, but not with the expected shape.
type ProtocolError struct {
	Op      string
	Payload string // truncated response body
	Err     error
}

// NewProtocolError keeps at most maxPayloadExcerpt bytes of payload.
func NewProtocolError(op string, payload []byte, err error) *ProtocolError {
	if len(payload) > maxPayloadExcerpt {
		payload = payload[:maxPayloadExcerpt]
	}
	return &ProtocolError{Op: op, Payload: string(payload), Err: err}
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("poller: %s: protocol: %v", e.Op, e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

// ServiceError: the service is reachable but reports an internal fault.
type ServiceError struct {
	Op     string
	Detail string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("poller: %s: service reported error: %s", e.Op, e.Detail)
}

// Classify maps a fetch failure onto a health verdict.
// A ServiceError is an explicit failure signal and counts as a stall;
// everything else means the status could not be observed.
func Classify(err error) status.Verdict {
	var se *ServiceError
	if errors.As(err, &se) {
		return status.Verdict{Health: status.HealthStalled, Reason: status.ReasonServiceError}
	}
	return status.Verdict{Health: status.HealthUnreachable, Reason: status.ReasonUnreachable}
}
