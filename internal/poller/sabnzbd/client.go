// internal/poller/sabnzbd/client.go
package sabnzbd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tamzrod/sabwatch/internal/poller"
	"github.com/tamzrod/sabwatch/internal/status"
)

const (
	mib = 1 << 20
	kib = 1 << 10

	// maxBody caps how much of a response is read.
	maxBody = 4 << 20
)

// Client implements poller.Client against the SABnzbd JSON API.
// It also exposes the queue control calls used for recovery.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
}

// Config is minimal transport config. Deadlines come from the caller's context.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client // nil: a dedicated client without a global timeout
}

// New creates a client. No request is made.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("sabnzbd client: base url required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("sabnzbd client: api key required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("sabnzbd client: base url: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: http.DefaultTransport}
	}

	return &Client{base: u, apiKey: cfg.APIKey, http: hc}, nil
}

// ---- poller.Client ----

// FetchStatus reads mode=queue and maps it onto a status snapshot.
func (c *Client) FetchStatus(ctx context.Context) (status.Snapshot, error) {
	const op = "queue"

	body, err := c.call(ctx, op)
	if err != nil {
		return status.Snapshot{}, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return status.Snapshot{}, poller.NewProtocolError(op, body, err)
	}
	if err := env.fault(op); err != nil {
		return status.Snapshot{}, err
	}
	if env.Queue == nil {
		return status.Snapshot{}, poller.NewProtocolError(op, body, errors.New(`missing "queue" object`))
	}

	q := env.Queue
	state, ok := status.ParseServiceState(q.Status)
	if !ok {
		return status.Snapshot{}, poller.NewProtocolError(op, body, fmt.Errorf("unknown queue status %q", q.Status))
	}

	return status.Snapshot{
		At:              time.Now(),
		QueueSizeBytes:  int64(float64(q.MB) * mib),
		RemainingBytes:  int64(float64(q.MBLeft) * mib),
		RateBytesPerSec: float64(q.KBPerSec) * kib,
		ActiveJobID:     q.activeJobID(),
		State:           state,
		Slots:           int(q.NoOfSlots),
	}, nil
}

// ---- recovery calls ----

// Resume un-pauses the download queue (mode=resume).
func (c *Client) Resume(ctx context.Context) error {
	return c.command(ctx, "resume")
}

// Restart asks SABnzbd to restart itself (mode=restart).
func (c *Client) Restart(ctx context.Context) error {
	return c.command(ctx, "restart")
}

func (c *Client) command(ctx context.Context, mode string) error {
	body, err := c.call(ctx, mode)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return poller.NewProtocolError(mode, body, err)
	}
	if err := env.fault(mode); err != nil {
		return err
	}
	if env.Status == nil || !*env.Status {
		return &poller.ServiceError{Op: mode, Detail: "status not true"}
	}
	return nil
}

// ---- transport ----

func (c *Client) endpoint(mode string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/api"

	q := url.Values{}
	q.Set("mode", mode)
	q.Set("output", "json")
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()

	return u.String()
}

func (c *Client) call(ctx context.Context, mode string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(mode), nil)
	if err != nil {
		return nil, &poller.TransportError{Op: mode, Err: c.redact(err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &poller.TransportError{Op: mode, Err: c.redact(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &poller.TransportError{Op: mode, Err: c.redact(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &poller.TransportError{Op: mode, Err: fmt.Errorf("http status %d", resp.StatusCode)}
	}
	return body, nil
}

// redact strips the api key from URLs embedded in net/http errors.
func (c *Client) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = strings.ReplaceAll(uerr.URL, url.QueryEscape(c.apiKey), "REDACTED")
	}
	return err
}

// ---- wire types ----

type envelope struct {
	Status *bool     `json:"status"`
	Error  string    `json:"error"`
	Queue  *queueDoc `json:"queue"`
}

func (e envelope) fault(op string) error {
	if e.Error != "" {
		return &poller.ServiceError{Op: op, Detail: e.Error}
	}
	if e.Status != nil && !*e.Status && e.Queue == nil {
		return &poller.ServiceError{Op: op, Detail: "status false"}
	}
	return nil
}

type queueDoc struct {
	Status    string    `json:"status"`
	KBPerSec  flexFloat `json:"kbpersec"`
	MBLeft    flexFloat `json:"mbleft"`
	MB        flexFloat `json:"mb"`
	NoOfSlots flexFloat `json:"noofslots"`
	Slots     []slotDoc `json:"slots"`
}

type slotDoc struct {
	NzoID  string `json:"nzo_id"`
	Status string `json:"status"`
}

// activeJobID prefers the slot that is downloading, else the head of the queue.
func (q *queueDoc) activeJobID() string {
	for _, s := range q.Slots {
		if strings.EqualFold(s.Status, "Downloading") && s.NzoID != "" {
			return s.NzoID
		}
	}
	if len(q.Slots) > 0 {
		return q.Slots[0].NzoID
	}
	return ""
}

// flexFloat accepts both JSON numbers and numeric strings; SABnzbd sends
// most sizes as strings ("1234.56").
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*f = flexFloat(v)
	return nil
}
