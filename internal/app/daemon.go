package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/glintcap/glint/internal/audio"
	"github.com/glintcap/glint/internal/capture"
	"github.com/glintcap/glint/internal/config"
	"github.com/glintcap/glint/internal/engine"
	"github.com/glintcap/glint/internal/events"
	"github.com/glintcap/glint/internal/hypr"
	"github.com/glintcap/glint/internal/indicator"
	"github.com/glintcap/glint/internal/ipc"
	"github.com/glintcap/glint/internal/logging"
	"github.com/glintcap/glint/internal/output"
	"github.com/glintcap/glint/internal/picker"
)

const (
	socketProbeTimeout = 180 * time.Millisecond
	socketRetries      = 8
	engineDialTimeout  = 3 * time.Second
	watchRetryDelay    = 2 * time.Second
)

// daemon holds everything the IPC dispatcher and the event handlers touch.
type daemon struct {
	logger      *slog.Logger
	runtime     *capture.Configuration
	controller  *capture.Controller
	coordinator *picker.Coordinator
	player      *audio.SamplePlayer
	indicator   indicator.Controller
	committer   *output.Committer
	eventLog    *engineEventLog
}

// runDaemon owns the control socket until interrupted. It wires the runtime
// configuration, the capture controller, the picker, the engine watch stream,
// and the config reload watcher, then serves IPC requests.
func (r Runner) runDaemon(ctx context.Context, logger *slog.Logger, loaded config.Loaded) int {
	cfg := loaded.Config

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, socketProbeTimeout, socketRetries, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.New()
	player := audio.NewSamplePlayer(logger, cfg.Audio.SampleVolume)
	runtimeCfg := capture.NewConfiguration(player, bus)
	seedConfiguration(logger, runtimeCfg, cfg)

	dialCtx, cancelDial := context.WithTimeout(ctx, engineDialTimeout)
	engineClient, err := engine.Dial(dialCtx, logger, engine.Config{
		Target:          cfg.Engine.GRPCTarget,
		DialTimeout:     engineDialTimeout,
		BeginTimeout:    time.Duration(cfg.Engine.BeginTimeoutMS) * time.Millisecond,
		EndTimeout:      time.Duration(cfg.Engine.EndTimeoutMS) * time.Millisecond,
		MicSource:       resolveMicSource(ctx, logger, cfg.Audio),
		RecordDirectory: resolveRecordDirectory(logger, cfg.Recordings),
	})
	cancelDial()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: connect capture engine: %v\n", err)
		return 1
	}
	defer func() { _ = engineClient.Close() }()

	coordinator := picker.NewCoordinator(logger, runtimeCfg, bus, cfg.Picker.ChooserCmd.Argv)
	controller := capture.NewController(logger, runtimeCfg, engineClient, coordinator, bus)

	d := &daemon{
		logger:      logger,
		runtime:     runtimeCfg,
		controller:  controller,
		coordinator: coordinator,
		player:      player,
		indicator:   indicator.NewHyprNotify(cfg.Indicator, logger),
		committer:   output.NewCommitter(cfg.Recordings, logger),
	}
	if cfg.Debug.LogEngineEvents {
		d.eventLog = openEngineEventLog(logger)
		if d.eventLog != nil {
			defer d.eventLog.Close()
		}
	}

	unsubPicker := bus.Subscribe(func(ev events.PickerUpdateEvent) {
		controller.HandlePickerUpdate(context.WithoutCancel(ctx), ev.Token)
	})
	defer unsubPicker()
	unsubState := bus.Subscribe(func(ev events.SessionStateEvent) {
		d.onSessionState(context.WithoutCancel(ctx), ev)
	})
	defer unsubState()
	unsubConfig := bus.Subscribe(func(ev events.ConfigChangeEvent) {
		logger.Info("runtime configuration changed", "field", ev.Field, "value", ev.Value)
	})
	defer unsubConfig()
	unsubNotice := bus.Subscribe(func(ev events.EngineNoticeEvent) {
		logger.Warn("engine notice", "kind", ev.Kind, "message", ev.Message)
	})
	defer unsubNotice()

	seedDefaultDisplay(ctx, logger, runtimeCfg)

	if cfg.Engine.Watch {
		go d.watchEngine(ctx, engineClient, bus)
	}

	watcher := startConfigWatcher(logger, loaded, runtimeCfg)
	if watcher != nil {
		defer func() { _ = watcher.Stop() }()
	}

	logger.Info("glint daemon started",
		"socket", socketPath,
		"engine", cfg.Engine.GRPCTarget,
		"config", loaded.Path,
	)
	fmt.Fprintf(r.Stdout, "glint daemon listening on %s\n", socketPath)

	serveErr := ipc.Serve(ctx, listener, d)

	shutdownCtx := context.WithoutCancel(ctx)
	if result, stopped := controller.Stop(shutdownCtx); stopped && result.RecordingPath != "" {
		logger.Info("capture stopped on shutdown", "recording", result.RecordingPath)
	}
	player.Stop()
	d.indicator.Hide(shutdownCtx)

	if serveErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", serveErr)
		return 1
	}
	logger.Info("glint daemon stopped")
	return 0
}

// seedConfiguration applies the file configuration to the runtime state.
// Used at boot and again on every config reload. Invalid values keep the
// previous runtime state and log a warning instead of failing the daemon.
func seedConfiguration(logger *slog.Logger, runtime *capture.Configuration, cfg config.Config) {
	if t, err := capture.ParseType(cfg.Capture.Type); err != nil {
		logger.Warn("ignoring configured capture type", "value", cfg.Capture.Type, "error", err)
	} else if err := runtime.SetCaptureType(t); err != nil {
		logger.Warn("apply capture type", "value", cfg.Capture.Type, "error", err)
	}

	if cfg.Capture.DynamicRange != "" {
		if preset, err := capture.ParseRangePreset(cfg.Capture.DynamicRange); err != nil {
			logger.Warn("ignoring configured dynamic range", "value", cfg.Capture.DynamicRange, "error", err)
		} else if err := runtime.SetDynamicRange(preset); err != nil {
			logger.Warn("apply dynamic range", "value", cfg.Capture.DynamicRange, "error", err)
		}
	}

	runtime.SetAudioCapture(cfg.Audio.CaptureSystem)
	runtime.SetMicCapture(cfg.Audio.CaptureMic)

	// App exclusion locks the app-audio flag while set, so the order of the
	// two writes depends on direction: clear exclusion before touching the
	// audio flag, set it after.
	if !cfg.Capture.ExcludeApp {
		_ = runtime.SetAppExcluded(false)
		if err := runtime.SetAppAudioExcluded(cfg.Audio.ExcludeAppAudio); err != nil {
			logger.Warn("apply app audio exclusion", "error", err)
		}
	} else {
		if err := runtime.SetAppAudioExcluded(cfg.Audio.ExcludeAppAudio); err != nil {
			logger.Warn("apply app audio exclusion", "error", err)
		}
		if err := runtime.SetAppExcluded(true); err != nil {
			logger.Warn("apply app exclusion", "error", err)
		}
	}

	runtime.SetRecordingStream(cfg.Capture.RecordStream)
	runtime.SetPickerActive(cfg.Picker.Enable)
}

// seedDefaultDisplay selects the focused monitor when the daemon boots into
// display capture without a target, so `glint start` works out of the box.
func seedDefaultDisplay(ctx context.Context, logger *slog.Logger, runtime *capture.Configuration) {
	if runtime.CaptureType() != capture.TypeDisplay {
		return
	}
	if _, ok := runtime.SelectedDisplay(); ok {
		return
	}

	monitor, err := hypr.QueryFocusedMonitor(ctx)
	if err != nil {
		logger.Warn("seed default display", "error", err)
		return
	}
	runtime.SetSelectedDisplay(picker.DisplayFromMonitor(monitor))
	logger.Info("seeded default display", "display", monitor.Name)
}

func resolveMicSource(ctx context.Context, logger *slog.Logger, cfg config.AudioConfig) string {
	if !cfg.CaptureMic {
		return ""
	}
	selection, err := audio.SelectSource(ctx, cfg.MicSource)
	if err != nil {
		logger.Warn("mic source selection failed, passing name through", "source", cfg.MicSource, "error", err)
		return cfg.MicSource
	}
	if selection.Warning != "" {
		logger.Warn("mic source fallback", "detail", selection.Warning)
	}
	return selection.Source.ID
}

func resolveRecordDirectory(logger *slog.Logger, cfg config.RecordingsConfig) string {
	dir, err := output.EnsureDirectory(cfg.Directory)
	if err != nil {
		logger.Warn("recordings directory unavailable, engine default applies", "error", err)
		return ""
	}
	return dir
}

// watchEngine keeps the engine event stream alive, reconnecting after errors
// until the daemon context ends.
func (d *daemon) watchEngine(ctx context.Context, client *engine.Client, bus *events.Bus) {
	for {
		err := client.Watch(ctx, func(ev engine.SessionEvent) {
			d.onEngineEvent(bus, ev)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			d.logger.Warn("engine watch stream failed, retrying", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryDelay):
		}
	}
}

func (d *daemon) onEngineEvent(bus *events.Bus, ev engine.SessionEvent) {
	if d.eventLog != nil {
		d.eventLog.Append(ev)
	}
	if ev.Kind == engine.EventTerminated {
		d.controller.HandleTermination(ev.Reason)
		return
	}
	message := ev.Message
	if message == "" {
		message = ev.Reason
	}
	bus.Publish(events.EngineNoticeEvent{Kind: ev.Kind, Message: message})
}

// onSessionState drives the indicator and the recording hand-off from
// session transitions.
func (d *daemon) onSessionState(ctx context.Context, ev events.SessionStateEvent) {
	if ev.Running {
		d.indicator.ShowCapturing(ctx, ev.Target)
		return
	}

	if ev.Error != "" {
		d.indicator.ShowError(ctx, ev.Error)
		return
	}

	if ev.Recording != "" {
		d.indicator.ShowSaved(ctx, ev.Recording)
		if err := d.committer.Commit(ctx, ev.Recording); err != nil {
			d.logger.Warn("recording path hand-off failed", "recording", ev.Recording, "error", err)
		}
		return
	}

	d.indicator.CueStop(ctx)
	d.indicator.Hide(ctx)
}

func startConfigWatcher(logger *slog.Logger, loaded config.Loaded, runtime *capture.Configuration) *config.Watcher {
	if !loaded.Exists {
		return nil
	}

	watcher := config.NewWatcher(loaded.Path, logger)
	watcher.OnReload(func(next config.Loaded) {
		for _, warning := range next.Warnings {
			logger.Warn("config warning on reload", "line", warning.Line, "message", warning.Message)
		}
		seedConfiguration(logger, runtime, next.Config)
		logger.Info("configuration reloaded", "path", next.Path)
	})
	if err := watcher.Start(); err != nil {
		logger.Warn("config watcher unavailable", "error", err)
		return nil
	}
	return watcher
}

// engineEventLog appends raw engine events as JSON lines under the state
// directory when debug.log_engine_events is set.
type engineEventLog struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

func openEngineEventLog(logger *slog.Logger) *engineEventLog {
	stateDir, err := logging.StateDir()
	if err != nil {
		logger.Warn("engine event log unavailable", "error", err)
		return nil
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		logger.Warn("engine event log unavailable", "error", err)
		return nil
	}

	path := filepath.Join(stateDir, "engine-events.jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		logger.Warn("engine event log unavailable", "error", err)
		return nil
	}
	return &engineEventLog{file: file, enc: json.NewEncoder(file)}
}

func (l *engineEventLog) Append(ev engine.SessionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(ev)
}

func (l *engineEventLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.file.Close()
}
