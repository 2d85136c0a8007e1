// Package indicator surfaces capture state through compositor or desktop
// notifications plus short synthesized audio cues.
package indicator

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/glintcap/glint/internal/config"
	"github.com/glintcap/glint/internal/hypr"
)

const (
	capturingTimeoutMS = 300000
	savedTimeoutMS     = 2500
)

// Controller is the daemon-facing indicator contract.
type Controller interface {
	ShowCapturing(context.Context, string)
	ShowSaved(context.Context, string)
	ShowError(context.Context, string)
	CueStop(context.Context)
	Hide(context.Context)
}

// HyprNotify is the concrete indicator used at runtime. It routes
// notifications via Hyprland or desktop DBus based on the configured backend;
// backend "none" keeps only the audio cues.
type HyprNotify struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
}

// NewHyprNotify creates an indicator controller from config.
func NewHyprNotify(cfg config.IndicatorConfig, logger *slog.Logger) *HyprNotify {
	return &HyprNotify{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
	}
}

// ShowCapturing signals an active capture session and emits the start cue.
// The notification stays up until dismissed or replaced.
func (h *HyprNotify) ShowCapturing(ctx context.Context, target string) {
	h.playCue(ctx, cueStart)
	if !h.cfg.Enable {
		return
	}
	text := h.messages.capturing
	if target != "" {
		text += " " + target
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, 1, capturingTimeoutMS, "rgb(89b4fa)", text)
	})
}

// ShowSaved announces a finished recording and emits the stop cue.
func (h *HyprNotify) ShowSaved(ctx context.Context, recordingPath string) {
	h.playCue(ctx, cueStop)
	if !h.cfg.Enable {
		return
	}
	text := h.messages.saved
	if base := filepath.Base(recordingPath); base != "" && base != "." {
		text += ": " + base
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, 1, savedTimeoutMS, "rgb(a6e3a1)", text)
	})
}

// ShowError displays an error-state indicator message and emits the error cue.
func (h *HyprNotify) ShowError(ctx context.Context, text string) {
	h.playCue(ctx, cueError)
	if !h.cfg.Enable {
		return
	}
	if text == "" {
		text = h.messages.errorText
	}
	timeout := h.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, 3, timeout, "rgb(f38ba8)", text)
	})
}

// CueStop emits the stop cue without touching the notification surface. Used
// when a session ends with nothing to announce.
func (h *HyprNotify) CueStop(ctx context.Context) {
	h.playCue(ctx, cueStop)
}

// Hide dismisses the active indicator surface.
func (h *HyprNotify) Hide(ctx context.Context) {
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, h.dismiss)
}

// notify dispatches indicator output through the configured backend.
func (h *HyprNotify) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	switch h.backend() {
	case "none":
		return nil
	case "desktop":
		return h.notifyDesktop(ctx, timeoutMS, text)
	default:
		return hypr.Notify(ctx, icon, timeoutMS, color, text)
	}
}

// dismiss removes indicator output from the configured backend.
func (h *HyprNotify) dismiss(ctx context.Context) error {
	switch h.backend() {
	case "none":
		return nil
	case "desktop":
		return h.dismissDesktop(ctx)
	default:
		return hypr.DismissNotify(ctx)
	}
}

func (h *HyprNotify) backend() string {
	return strings.ToLower(strings.TrimSpace(h.cfg.Backend))
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (h *HyprNotify) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	h.mu.Lock()
	replaceID := h.desktopNotificationID
	h.mu.Unlock()

	appName := strings.TrimSpace(h.cfg.DesktopAppName)
	if appName == "" {
		appName = "glint-indicator"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.desktopNotificationID = id
	h.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (h *HyprNotify) dismissDesktop(ctx context.Context) error {
	h.mu.Lock()
	id := h.desktopNotificationID
	h.desktopNotificationID = 0
	h.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (h *HyprNotify) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		h.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (h *HyprNotify) playCue(ctx context.Context, kind cueKind) {
	if !h.cfg.SoundEnable {
		return
	}
	cueCtx := context.WithoutCancel(ctx)
	go func() {
		h.soundMu.Lock()
		defer h.soundMu.Unlock()
		if err := emitCue(cueCtx, kind); err != nil {
			h.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (h *HyprNotify) log(message string, err error) {
	if h.logger == nil || err == nil {
		return
	}
	h.logger.Debug(message, "error", err.Error())
}
