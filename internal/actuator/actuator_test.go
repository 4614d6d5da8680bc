// internal/actuator/actuator_test.go
package actuator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/sabwatch/internal/config"
	"github.com/tamzrod/sabwatch/internal/status"
)

type fakeControl struct {
	mu       sync.Mutex
	resumes  int
	restarts int
	err      error
	block    bool
}

func (f *fakeControl) Resume(ctx context.Context) error {
	f.mu.Lock()
	f.resumes++
	f.mu.Unlock()
	return f.result(ctx)
}

func (f *fakeControl) Restart(ctx context.Context) error {
	f.mu.Lock()
	f.restarts++
	f.mu.Unlock()
	return f.result(ctx)
}

func (f *fakeControl) Container() string { return "sabnzbd" }

func (f *fakeControl) result(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func stalled(reason status.Reason) Trigger {
	return Trigger{Health: status.HealthStalled, Reason: reason, At: time.Now()}
}

func TestOutcomeOf(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, status.OutcomeSucceeded, OutcomeOf(ctx, nil))
	assert.Equal(t, status.OutcomeFailed, OutcomeOf(ctx, errors.New("boom")))
	assert.Equal(t, status.OutcomeTimedOut, OutcomeOf(ctx, context.DeadlineExceeded))
	assert.Equal(t, status.OutcomeTimedOut,
		OutcomeOf(ctx, &ActuationError{Action: "restart", Err: context.DeadlineExceeded}))

	expired, cancel := context.WithTimeout(ctx, -time.Second)
	defer cancel()
	assert.Equal(t, status.OutcomeTimedOut, OutcomeOf(expired, errors.New("read: connection reset")))

	canceled, cancel2 := context.WithCancel(ctx)
	cancel2()
	assert.Equal(t, status.OutcomeFailed, OutcomeOf(canceled, context.Canceled))
}

func TestAPIActuator_ChoosesAction(t *testing.T) {
	ctl := &fakeControl{}

	a := NewAPI(ctl, true, nil)
	assert.Equal(t, status.OutcomeSucceeded, a.Act(context.Background(), stalled(status.ReasonPaused)))
	assert.Equal(t, status.OutcomeSucceeded, a.Act(context.Background(), stalled(status.ReasonNoProgress)))
	assert.Equal(t, 1, ctl.resumes)
	assert.Equal(t, 1, ctl.restarts)

	noResume := NewAPI(ctl, false, nil)
	noResume.Act(context.Background(), stalled(status.ReasonPaused))
	assert.Equal(t, 1, ctl.resumes)
	assert.Equal(t, 2, ctl.restarts)
}

func TestAPIActuator_MapsErrors(t *testing.T) {
	ctl := &fakeControl{err: errors.New("503")}
	a := NewAPI(ctl, false, nil)
	assert.Equal(t, status.OutcomeFailed, a.Act(context.Background(), stalled(status.ReasonNoProgress)))

	ctl = &fakeControl{block: true}
	a = NewAPI(ctl, false, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Equal(t, status.OutcomeTimedOut, a.Act(ctx, stalled(status.ReasonNoProgress)))
}

func TestContainerActuator(t *testing.T) {
	ctl := &fakeControl{}
	a := NewContainer(ctl, nil)
	assert.Equal(t, status.OutcomeSucceeded, a.Act(context.Background(), stalled(status.ReasonNoProgress)))
	assert.Equal(t, 1, ctl.restarts)

	ctl.err = errors.New("no such container")
	assert.Equal(t, status.OutcomeFailed, a.Act(context.Background(), stalled(status.ReasonNoProgress)))
}

func TestRouter_RoutesPaused(t *testing.T) {
	var def, paused int
	r := NewRouter(
		Func(func(context.Context, Trigger) status.Outcome { def++; return status.OutcomeSucceeded }),
		Func(func(context.Context, Trigger) status.Outcome { paused++; return status.OutcomeSucceeded }),
		nil,
	)

	r.Act(context.Background(), stalled(status.ReasonPaused))
	r.Act(context.Background(), stalled(status.ReasonNoProgress))
	r.Act(context.Background(), Trigger{Health: status.HealthUnreachable, Reason: status.ReasonUnreachable})
	assert.Equal(t, 1, paused)
	assert.Equal(t, 2, def)

	r.Paused = nil
	r.Act(context.Background(), stalled(status.ReasonPaused))
	assert.Equal(t, 3, def)
}

func TestRouter_RefusesOverlap(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	calls := 0

	r := NewRouter(Func(func(context.Context, Trigger) status.Outcome {
		calls++
		close(entered)
		<-release
		return status.OutcomeSucceeded
	}), nil, nil)

	first := make(chan status.Outcome, 1)
	go func() { first <- r.Act(context.Background(), stalled(status.ReasonNoProgress)) }()
	<-entered

	assert.Equal(t, status.OutcomeFailed, r.Act(context.Background(), stalled(status.ReasonNoProgress)))

	close(release)
	assert.Equal(t, status.OutcomeSucceeded, <-first)
	assert.Equal(t, 1, calls)
}

func TestRouter_CanceledContext(t *testing.T) {
	called := false
	r := NewRouter(Func(func(context.Context, Trigger) status.Outcome {
		called = true
		return status.OutcomeSucceeded
	}), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, status.OutcomeFailed, r.Act(ctx, stalled(status.ReasonNoProgress)))
	assert.False(t, called)
}

func TestBuild_API(t *testing.T) {
	cfg := config.Config{Recovery: config.RecoveryConfig{Method: config.MethodAPI}}
	ctl := &fakeControl{}

	r, err := Build(cfg, ctl, nil)
	require.NoError(t, err)
	require.NotNil(t, r.Paused, "resume_paused defaults to enabled")

	r.Act(context.Background(), stalled(status.ReasonPaused))
	r.Act(context.Background(), stalled(status.ReasonNoProgress))
	assert.Equal(t, 1, ctl.resumes)
	assert.Equal(t, 1, ctl.restarts)

	off := false
	cfg.Recovery.ResumePaused = &off
	r, err = Build(cfg, ctl, nil)
	require.NoError(t, err)
	assert.Nil(t, r.Paused)
}

func TestBuild_UnknownMethod(t *testing.T) {
	_, err := Build(config.Config{Recovery: config.RecoveryConfig{Method: "ssh"}}, &fakeControl{}, nil)
	assert.Error(t, err)
}
