// Package emergency implements the process-wide abort flag, polled by
// each generation worker before every event draw (the retry loops inside
// one draw and the integration pass do not poll it): a SIGINT/SIGTERM handler plus an
// optional stop-file watch, either of which closes StopChannel exactly
// once and runs any registered cleanup callbacks.
package emergency

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Controller owns the abort flag for one run.
type Controller struct {
	stopFile       string
	stopCh         chan struct{}
	stopped        bool
	mutex          sync.RWMutex
	callbacks      []func()
	pollInterval   time.Duration
	signalHandlers bool
}

// Config configures an abort Controller.
type Config struct {
	// StopFile is polled for existence; its appearance triggers an abort.
	StopFile string

	// PollInterval controls how often StopFile is checked.
	PollInterval time.Duration

	// EnableSignalHandlers registers SIGINT/SIGTERM as abort triggers.
	EnableSignalHandlers bool
}

// New builds an abort Controller. An empty StopFile defaults to
// /tmp/cepgen-abort; a zero PollInterval defaults to one second.
func New(config Config) *Controller {
	if config.StopFile == "" {
		config.StopFile = "/tmp/cepgen-abort"
	}

	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}

	return &Controller{
		stopFile:       config.StopFile,
		stopCh:         make(chan struct{}),
		callbacks:      make([]func(), 0),
		pollInterval:   config.PollInterval,
		signalHandlers: config.EnableSignalHandlers,
	}
}

// Start launches the stop-file poller and, if enabled, the signal
// watcher. Both goroutines exit once ctx is done.
func (c *Controller) Start(ctx context.Context) {
	go c.watchStopFile(ctx)
	if c.signalHandlers {
		go c.watchSignals(ctx)
	}
}

func (c *Controller) watchStopFile(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.checkStopFile() {
				c.triggerStop(fmt.Sprintf("stop file detected: %s", c.stopFile))
				return
			}
		}
	}
}

func (c *Controller) watchSignals(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		signal.Stop(sigCh)
		return
	case sig := <-sigCh:
		c.triggerStop(fmt.Sprintf("signal: %v", sig))
		signal.Stop(sigCh)
		return
	}
}

func (c *Controller) checkStopFile() bool {
	_, err := os.Stat(c.stopFile)
	return err == nil
}

func (c *Controller) triggerStop(reason string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stopCh)

	log.Warn().Str("reason", reason).Msg("run aborted")
	for _, callback := range c.callbacks {
		callback()
	}
}

// Stop manually triggers an abort, e.g. from a CLI command that wants to
// raise it without waiting on a signal or stop file.
func (c *Controller) Stop(reason string) {
	c.triggerStop(reason)
}

// IsStopped reports whether the abort flag has been raised.
func (c *Controller) IsStopped() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.stopped
}

// StopChannel returns a channel that closes exactly once, when the abort
// flag is raised. Satisfies pkg/generator.AbortSignal.
func (c *Controller) StopChannel() <-chan struct{} {
	return c.stopCh
}

// OnStop registers a callback run synchronously from triggerStop, under
// the controller's lock, after the flag is raised.
func (c *Controller) OnStop(callback func()) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.callbacks = append(c.callbacks, callback)
}

// CreateStopFile writes the stop file this controller polls for, letting
// a caller (or a test) trigger an abort without sending a signal.
func (c *Controller) CreateStopFile() error {
	f, err := os.Create(c.stopFile)
	if err != nil {
		return fmt.Errorf("failed to create stop file: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(fmt.Sprintf("abort requested at %s\n", time.Now().Format(time.RFC3339)))
	if err != nil {
		return fmt.Errorf("failed to write to stop file: %w", err)
	}
	return nil
}

// RemoveStopFile removes the stop file, ignoring a not-exist error.
func (c *Controller) RemoveStopFile() error {
	err := os.Remove(c.stopFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stop file: %w", err)
	}
	return nil
}

// StopFilePath returns the path this controller polls for.
func (c *Controller) StopFilePath() string {
	return c.stopFile
}
