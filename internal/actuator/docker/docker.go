// internal/actuator/docker/docker.go
package docker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	dockerclient "github.com/fsouza/go-dockerclient"
)

// Client is the part of the docker API used here.
type Client interface {
	RestartContainer(id string, timeout uint) error
}

// Config selects the container to restart.
type Config struct {
	// Endpoint is the docker daemon address. Empty means the environment
	// (DOCKER_HOST and friends).
	Endpoint  string
	Container string

	// StopTimeout is how long docker waits for a graceful stop before killing.
	StopTimeout time.Duration
}

// Restarter restarts one named container.
type Restarter struct {
	cfg    Config
	client Client
}

// New connects to the docker daemon.
func New(cfg Config) (*Restarter, error) {
	var (
		c   *dockerclient.Client
		err error
	)
	if cfg.Endpoint == "" {
		c, err = dockerclient.NewClientFromEnv()
	} else {
		c, err = dockerclient.NewClient(cfg.Endpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("docker: connect: %w", err)
	}
	return NewWithClient(cfg, c)
}

// NewWithClient uses an existing client.
func NewWithClient(cfg Config, client Client) (*Restarter, error) {
	if cfg.Container == "" {
		return nil, errors.New("docker: container is required")
	}
	if client == nil {
		return nil, errors.New("docker: client is nil")
	}
	return &Restarter{cfg: cfg, client: client}, nil
}

// Container returns the target container name.
func (r *Restarter) Container() string { return r.cfg.Container }

// Restart restarts the container, bounded by ctx.
//
// The docker call itself takes no context; when ctx ends first the
// restart keeps running in the daemon and ctx.Err() is returned.
// A restart the daemon reports as already in progress is not an error.
func (r *Restarter) Restart(ctx context.Context) error {
	timeout := uint(r.cfg.StopTimeout / time.Second)

	done := make(chan error, 1)
	go func() {
		done <- r.client.RestartContainer(r.cfg.Container, timeout)
	}()

	select {
	case err := <-done:
		if err != nil && !inProgress(err) {
			return fmt.Errorf("docker: restart %s: %w", r.cfg.Container, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// inProgress: the daemon refused because the container is already
// being restarted or removed.
func inProgress(err error) bool {
	var de *dockerclient.Error
	return errors.As(err, &de) && de.Status == http.StatusConflict
}
