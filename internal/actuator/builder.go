// internal/actuator/builder.go
package actuator

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/actuator/docker"
	"github.com/tamzrod/sabwatch/internal/config"
)

// dockerStopTimeout is the grace docker gives the container before killing it.
const dockerStopTimeout = 10 * time.Second

// Build creates the recovery action chain for cfg.
// api serves resume and API restarts. Assumes cfg has been validated.
func Build(cfg config.Config, api ServiceControl, log *zap.SugaredLogger) (*Router, error) {
	var def Actuator

	switch cfg.Recovery.Method {
	case config.MethodAPI:
		def = NewAPI(api, false, log)

	case config.MethodDocker:
		stop := dockerStopTimeout
		if half := cfg.Recovery.ActionTimeout / 2; half < stop {
			stop = half
		}
		r, err := docker.New(docker.Config{
			Endpoint:    cfg.Recovery.Docker.Endpoint,
			Container:   cfg.Recovery.Docker.Container,
			StopTimeout: stop,
		})
		if err != nil {
			return nil, err
		}
		def = NewContainer(r, log)

	default:
		return nil, fmt.Errorf("actuator: unknown method %q", cfg.Recovery.Method)
	}

	var paused Actuator
	if cfg.ResumePausedEnabled() {
		paused = NewAPI(api, true, log)
	}

	return NewRouter(def, paused, log), nil
}
