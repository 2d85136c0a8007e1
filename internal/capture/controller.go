package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/glintcap/glint/internal/events"
	"github.com/glintcap/glint/internal/fsm"
)

// Controller owns the capture session lifecycle: explicit start/stop, the
// picker-driven implicit start, and the invariants around both.
//
// All lifecycle mutations are serialized through a single in-flight guard:
// a stop issued while a start is still spinning up the engine waits for that
// start to settle and then tears the session down, and a second start
// observes the session already running. Picker updates delivered from the
// event bus queue behind whichever transition is in flight.
type Controller struct {
	logger  *slog.Logger
	config  *Configuration
	backend Backend
	picker  PickerPresenter
	bus     *events.Bus

	// opMu serializes start/stop/picker-update transitions end to end.
	opMu sync.Mutex

	mu              sync.RWMutex
	state           fsm.State
	pickerToken     uint64
	lastRecording   string
	lastStartTarget string
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	config *Configuration,
	backend Backend,
	picker PickerPresenter,
	bus *events.Bus,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config == nil {
		config = NewConfiguration(nil, nil)
	}
	if backend == nil {
		backend = PlaceholderBackend{}
	}
	if picker == nil {
		picker = noopPresenter{}
	}

	return &Controller{
		logger:  logger,
		config:  config,
		backend: backend,
		picker:  picker,
		bus:     bus,
		state:   fsm.StateStopped,
	}
}

// Config returns the configuration the controller acts on.
func (c *Controller) Config() *Configuration {
	return c.config
}

// State returns the current lifecycle state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Running reports whether a capture session is active. The running flag is
// recorded before the engine spin-up completes, so observers see the session
// as active for the whole start transition.
func (c *Controller) Running() bool {
	return c.State() == fsm.StateRunning
}

// PickerToken returns the marker of the most recent completed picker selection.
func (c *Controller) PickerToken() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pickerToken
}

// LastRecording returns the path reported by the engine for the most recent
// stopped session, if any.
func (c *Controller) LastRecording() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRecording
}

// Start validates the configuration and begins a capture session. It fails
// with ErrAlreadyRunning when a session is active, ErrNoTargetSelected when
// the active capture type has no target, and ErrInvalidConfiguration when
// the configuration broke an invariant the setters enforce.
func (c *Controller) Start(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.startInFlight(ctx, "requested")
}

// startInFlight runs one start transition. Callers must hold opMu.
func (c *Controller) startInFlight(ctx context.Context, trigger string) error {
	if c.Running() {
		return ErrAlreadyRunning
	}

	settings := c.config.Snapshot()
	startCfg, err := buildStartConfig(settings)
	if err != nil {
		return err
	}
	target := describeTarget(startCfg)

	// Record the running state before the engine spin-up so concurrent
	// status reads and start attempts observe the session as active.
	if err := c.transition(fsm.EventStart); err != nil {
		return ErrAlreadyRunning
	}

	if err := c.backend.Begin(ctx, startCfg); err != nil {
		_ = c.transition(fsm.EventStop)
		c.logger.Error("capture start failed",
			"trigger", trigger,
			"target", target,
			"error", err,
		)
		berr := &BackendError{Op: "begin", Err: err}
		c.publishState(false, "start-failed", target, "", berr)
		return berr
	}

	c.mu.Lock()
	c.lastStartTarget = target
	c.mu.Unlock()

	c.logger.Info("capture session started",
		"trigger", trigger,
		"target", target,
		"record_stream", startCfg.RecordStream,
	)
	c.publishState(true, trigger, target, "", nil)
	return nil
}

// Stop halts an active session. Stopping an already-stopped controller is a
// no-op; Stop never fails. The boolean reports whether an active session was
// actually stopped. An engine teardown failure is logged and published but
// the session still settles to stopped.
func (c *Controller) Stop(ctx context.Context) (EndResult, bool) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if !c.Running() {
		return EndResult{}, false
	}

	result, err := c.backend.End(ctx)
	_ = c.transition(fsm.EventStop)

	c.mu.Lock()
	target := c.lastStartTarget
	c.lastStartTarget = ""
	if result.RecordingPath != "" {
		c.lastRecording = result.RecordingPath
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("capture engine teardown failed", "error", err)
		c.publishState(false, "stopped", target, result.RecordingPath, &BackendError{Op: "end", Err: err})
		return result, true
	}

	c.logger.Info("capture session stopped",
		"target", target,
		"recording", result.RecordingPath,
	)
	c.publishState(false, "stopped", target, result.RecordingPath, nil)
	return result, true
}

// HandlePickerUpdate reacts to a completed picker selection. The selection
// itself is already recorded in the configuration by the picker coordinator;
// this applies the lifecycle rule: auto-start when stopped, keep the active
// session untouched when running (the new target applies on next start).
func (c *Controller) HandlePickerUpdate(ctx context.Context, token uint64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.pickerToken = token
	c.mu.Unlock()

	if c.Running() {
		c.logger.Info("picker selection recorded; active session continues", "token", token)
		return
	}

	if err := c.startInFlight(ctx, "picker"); err != nil {
		c.logger.Warn("picker auto-start failed", "token", token, "error", err)
	}
}

// HandleTermination reacts to an engine-reported session end. The controller
// never decides to leave the running state on its own; it only follows an
// explicit stop or a termination the engine reports.
func (c *Controller) HandleTermination(reason string) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if !c.Running() {
		return
	}
	_ = c.transition(fsm.EventTerminate)

	c.mu.Lock()
	target := c.lastStartTarget
	c.lastStartTarget = ""
	c.mu.Unlock()

	c.logger.Warn("capture session terminated by engine", "reason", reason)
	c.publishState(false, "terminated", target, "", fmt.Errorf("engine terminated session: %s", reason))
}

// PresentPicker asks the picker coordinator to show its chooser. Selections
// surface later through picker-update events. Fails with ErrPickerInactive
// while the picker surface is disabled.
func (c *Controller) PresentPicker(ctx context.Context) error {
	if !c.config.CanPresentPicker() {
		return ErrPickerInactive
	}
	return c.picker.Present(ctx)
}

// transition applies one lifecycle event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// publishState emits a session state notification when a bus is wired.
func (c *Controller) publishState(running bool, reason, target, recording string, err error) {
	if c.bus == nil {
		return
	}
	ev := events.SessionStateEvent{Running: running, Reason: reason, Target: target, Recording: recording}
	if err != nil {
		ev.Error = err.Error()
	}
	c.bus.Publish(ev)
}

// buildStartConfig freezes and validates the settings a session starts with.
func buildStartConfig(s Settings) (StartConfig, error) {
	cfg := StartConfig{
		CaptureType:        s.CaptureType,
		DynamicRange:       s.DynamicRange,
		CaptureSystemAudio: s.AudioCapture,
		CaptureMic:         s.MicCapture,
		ExcludeApp:         s.AppExcluded,
		ExcludeAppAudio:    s.AppAudioExcluded && !s.AppExcluded,
		RecordStream:       s.RecordingStream,
	}

	switch s.CaptureType {
	case TypeDisplay:
		if s.Display == nil {
			return StartConfig{}, ErrNoTargetSelected
		}
		cfg.DisplayName = s.Display.Name
	case TypeWindow:
		if s.Window == nil {
			return StartConfig{}, ErrNoTargetSelected
		}
		// The setters keep exclusion off for window capture; reaching this
		// state means the configuration was corrupted, not mis-set.
		if s.AppExcluded {
			return StartConfig{}, ErrInvalidConfiguration
		}
		cfg.WindowAddress = s.Window.Address
		cfg.WindowClass = s.Window.Class
	default:
		return StartConfig{}, ErrUnknownCaptureType
	}

	return cfg, nil
}

// describeTarget renders the session target for logs and notifications.
func describeTarget(cfg StartConfig) string {
	switch cfg.CaptureType {
	case TypeWindow:
		if cfg.WindowClass != "" {
			return fmt.Sprintf("window %s (%s)", cfg.WindowClass, cfg.WindowAddress)
		}
		return fmt.Sprintf("window %s", cfg.WindowAddress)
	default:
		return fmt.Sprintf("display %s", cfg.DisplayName)
	}
}
