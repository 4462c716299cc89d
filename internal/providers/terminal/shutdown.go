package terminal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/termhub/internal/infrastructure/logging"
)

// ErrShutdownTimeout is returned when some sessions were still being torn
// down when the shutdown bound elapsed. The registry is cleared regardless.
var ErrShutdownTimeout = errors.New("terminal: shutdown timed out")

// Coordinator tears down every session of a Manager at process exit.
type Coordinator struct {
	manager *Manager
	timeout time.Duration
	logger  *logging.Logger
}

// NewCoordinator creates a shutdown coordinator for m. A non-positive
// timeout means 10 seconds.
func NewCoordinator(m *Manager, timeout time.Duration, logger *logging.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		manager: m,
		timeout: timeout,
		logger:  logger.Named("shutdown"),
	}
}

// Shutdown kills every live session concurrently: each session's process tree
// and its pty wrapper are terminated in parallel, and individual failures are
// logged without stopping the rest. It returns once all teardown attempts have
// settled or the bound elapsed, and the registry is empty either way. Further
// Init calls are refused from here on.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	sessions := c.manager.beginShutdown()
	if len(sessions) == 0 {
		return nil
	}

	c.logger.Info("Shutting down sessions", zap.Int("count", len(sessions)))
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var g errgroup.Group
	for _, s := range sessions {
		s := s
		g.Go(func() error {
			c.manager.killTree(ctx, s)
			return nil
		})
		g.Go(func() error {
			if err := s.terminate(); err != nil {
				c.logger.Warn("Wrapper termination failed", zap.String("session_id", s.ID), zap.Error(err))
			}
			return nil
		})
	}

	settled := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(settled)
	}()

	var err error
	select {
	case <-settled:
	case <-ctx.Done():
		err = fmt.Errorf("%w after %s", ErrShutdownTimeout, time.Since(start).Round(time.Millisecond))
		c.logger.Warn("Session teardown did not settle in time", zap.Error(err))
	}

	c.manager.clear()
	c.logger.Info("Sessions shut down",
		zap.Int("count", len(sessions)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return err
}
