// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"time"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	// Timeout bounds one fetch. Must be shorter than the poll interval.
	Timeout time.Duration
}

// Poller is a dumb, deadline-bounded reader.
type Poller struct {
	cfg    Config
	client Client
	now    func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, client Client) (*Poller, error) {
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("poller: timeout must be > 0")
	}
	return &Poller{cfg: cfg, client: client, now: time.Now}, nil
}

// PollOnce performs exactly one fetch under the configured deadline.
// Cancelling ctx aborts the in-flight request.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{At: p.now()}

	cctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	snap, err := p.client.FetchStatus(cctx)
	if err != nil {
		res.Err = normalizeErr(err)
		return res
	}

	if snap.At.IsZero() {
		snap.At = res.At
	}
	res.Snapshot = snap
	return res
}

// normalizeErr makes sure every failure belongs to the taxonomy.
// Untyped errors from a Client are treated as transport failures.
func normalizeErr(err error) error {
	var (
		te *TransportError
		pe *ProtocolError
		se *ServiceError
	)
	if errors.As(err, &te) || errors.As(err, &pe) || errors.As(err, &se) {
		return err
	}
	return &TransportError{Op: "fetch", Err: err}
}
