// internal/actuator/docker/docker_test.go
package docker

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	dockerclient "github.com/fsouza/go-dockerclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	id      string
	timeout uint
	err     error
	delay   time.Duration
}

func (f *fakeClient) RestartContainer(id string, timeout uint) error {
	f.id, f.timeout = id, timeout
	time.Sleep(f.delay)
	return f.err
}

func newRestarter(t *testing.T, c Client) *Restarter {
	t.Helper()
	r, err := NewWithClient(Config{Container: "sabnzbd", StopTimeout: 10 * time.Second}, c)
	require.NoError(t, err)
	return r
}

func TestNewWithClient_Validation(t *testing.T) {
	_, err := NewWithClient(Config{}, &fakeClient{})
	assert.Error(t, err)

	_, err = NewWithClient(Config{Container: "sabnzbd"}, nil)
	assert.Error(t, err)
}

func TestRestart_Success(t *testing.T) {
	fc := &fakeClient{}
	r := newRestarter(t, fc)

	require.NoError(t, r.Restart(context.Background()))
	assert.Equal(t, "sabnzbd", fc.id)
	assert.Equal(t, uint(10), fc.timeout)
	assert.Equal(t, "sabnzbd", r.Container())
}

func TestRestart_ConflictIsInProgress(t *testing.T) {
	r := newRestarter(t, &fakeClient{err: &dockerclient.Error{Status: http.StatusConflict, Message: "is restarting"}})
	assert.NoError(t, r.Restart(context.Background()))
}

func TestRestart_Failure(t *testing.T) {
	r := newRestarter(t, &fakeClient{err: &dockerclient.NoSuchContainer{ID: "sabnzbd"}})

	err := r.Restart(context.Background())
	require.Error(t, err)
	var nsc *dockerclient.NoSuchContainer
	assert.True(t, errors.As(err, &nsc))
}

func TestRestart_BoundedByContext(t *testing.T) {
	r := newRestarter(t, &fakeClient{delay: 2 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Restart(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
