// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/sabwatch/internal/status"
)

type fakeClient struct {
	snap  status.Snapshot
	err   error
	block bool
}

func (f *fakeClient) FetchStatus(ctx context.Context) (status.Snapshot, error) {
	if f.block {
		<-ctx.Done()
		return status.Snapshot{}, ctx.Err()
	}
	return f.snap, f.err
}

func TestPollOnce_Success(t *testing.T) {
	p, err := New(Config{Timeout: time.Second}, &fakeClient{
		snap: status.Snapshot{RemainingBytes: 42, State: status.ServiceDownloading},
	})
	require.NoError(t, err)

	res := p.PollOnce(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, int64(42), res.Snapshot.RemainingBytes)
	assert.Equal(t, res.At, res.Snapshot.At, "missing snapshot time is stamped with the poll time")
}

func TestPollOnce_TimeoutIsBounded(t *testing.T) {
	p, err := New(Config{Timeout: 20 * time.Millisecond}, &fakeClient{block: true})
	require.NoError(t, err)

	start := time.Now()
	res := p.PollOnce(context.Background())

	assert.Less(t, time.Since(start), time.Second)

	var te *TransportError
	require.True(t, errors.As(res.Err, &te), "got %v", res.Err)
	assert.True(t, te.Timeout())
	assert.Equal(t, status.HealthUnreachable, Classify(res.Err).Health)
}

func TestPollOnce_CancelAbortsFetch(t *testing.T) {
	p, err := New(Config{Timeout: time.Minute}, &fakeClient{block: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	res := p.PollOnce(ctx)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestPollOnce_TypedErrorsPassThrough(t *testing.T) {
	se := &ServiceError{Op: "queue", Detail: "disk full"}
	p, err := New(Config{Timeout: time.Second}, &fakeClient{err: se})
	require.NoError(t, err)

	res := p.PollOnce(context.Background())
	assert.Same(t, se, res.Err)
	assert.Equal(t, status.Verdict{Health: status.HealthStalled, Reason: status.ReasonServiceError}, Classify(res.Err))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Timeout: time.Second}, nil)
	require.Error(t, err)

	_, err = New(Config{}, &fakeClient{})
	require.Error(t, err)
}

func TestNewProtocolError_TruncatesPayload(t *testing.T) {
	big := make([]byte, 4*maxPayloadExcerpt)
	pe := NewProtocolError("queue", big, errors.New("bad"))
	assert.Len(t, pe.Payload, maxPayloadExcerpt)
}
