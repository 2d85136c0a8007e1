// Package picker drives the external content chooser and records completed
// selections into the runtime capture configuration.
package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/glintcap/glint/internal/capture"
	"github.com/glintcap/glint/internal/events"
)

// Coordinator presents the chooser and turns its selections into
// configuration updates plus picker-update notifications. Presentation is
// fire-and-forget: Present returns once the chooser is on screen and the
// selection surfaces later as an event.
type Coordinator struct {
	logger *slog.Logger
	cfg    *capture.Configuration
	bus    *events.Bus
	argv   []string

	token      atomic.Uint64
	presenting atomic.Bool
}

// NewCoordinator wires a chooser command to the runtime configuration.
func NewCoordinator(logger *slog.Logger, cfg *capture.Configuration, bus *events.Bus, chooserArgv []string) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		logger: logger,
		cfg:    cfg,
		bus:    bus,
		argv:   chooserArgv,
	}
}

// Present enumerates targets and launches the chooser. Only one chooser runs
// at a time; a second present while one is open is ignored. The selection is
// handled on a background goroutine so the caller is not pinned to the
// chooser's lifetime.
func (c *Coordinator) Present(ctx context.Context) error {
	if len(c.argv) == 0 {
		return errors.New("picker chooser command is not configured")
	}
	if !c.presenting.CompareAndSwap(false, true) {
		c.logger.Debug("chooser already open; ignoring present request")
		return nil
	}

	entries, err := Targets(ctx)
	if err != nil {
		c.presenting.Store(false)
		return fmt.Errorf("enumerate capture targets: %w", err)
	}
	if len(entries) == 0 {
		c.presenting.Store(false)
		return errors.New("no capture targets available")
	}

	go c.runChooser(context.WithoutCancel(ctx), entries)
	return nil
}

// Token returns the most recently issued picker-update token.
func (c *Coordinator) Token() uint64 {
	return c.token.Load()
}

// Record applies a resolved selection to the configuration and publishes the
// picker update. The capture type switches first so the window-mode exclusion
// rule runs before the target lands.
func (c *Coordinator) Record(entry Entry) uint64 {
	switch entry.Kind {
	case capture.TypeWindow:
		_ = c.cfg.SetCaptureType(capture.TypeWindow)
		c.cfg.SetSelectedWindow(entry.Window)
	default:
		_ = c.cfg.SetCaptureType(capture.TypeDisplay)
		c.cfg.SetSelectedDisplay(entry.Display)
	}

	token := c.token.Add(1)
	c.logger.Info("picker selection recorded",
		"token", token,
		"kind", entry.Kind,
		"target", entry.Target(),
	)
	if c.bus != nil {
		c.bus.Publish(events.PickerUpdateEvent{
			Token:  token,
			Kind:   string(entry.Kind),
			Target: entry.Target(),
			Label:  entry.Line,
		})
	}
	return token
}

func (c *Coordinator) runChooser(ctx context.Context, entries []Entry) {
	defer c.presenting.Store(false)

	selection, err := c.execChooser(ctx, menuText(entries))
	if err != nil {
		c.logger.Error("chooser failed", "error", err)
		return
	}
	if selection == "" {
		c.logger.Debug("chooser dismissed without selection")
		return
	}

	entry, ok := matchEntry(entries, selection)
	if !ok {
		c.logger.Warn("chooser returned an unknown line", "line", selection)
		return
	}
	c.Record(entry)
}

// execChooser feeds the menu to the chooser's stdin and reads the selected
// line from its stdout. A dismissal (non-zero exit with no selection) is not
// an error.
func (c *Coordinator) execChooser(ctx context.Context, menu string) (string, error) {
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Stdin = strings.NewReader(menu)

	out, err := cmd.Output()
	selection := firstLine(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && selection == "" {
			return "", nil
		}
		msg := ""
		if exitErr != nil {
			msg = strings.TrimSpace(string(exitErr.Stderr))
		}
		return "", fmt.Errorf("chooser %s failed: %w (%s)", c.argv[0], err, msg)
	}
	return selection, nil
}

// firstLine trims the selection to its first line; dmenu-style tools emit a
// trailing newline.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
