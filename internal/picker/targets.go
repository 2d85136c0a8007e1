package picker

import (
	"context"
	"fmt"
	"strings"

	"github.com/glintcap/glint/internal/capture"
	"github.com/glintcap/glint/internal/hypr"
)

const (
	displayPrefix = "[display] "
	windowPrefix  = "[window] "
)

// Entry is one selectable capture target with its rendered menu line.
type Entry struct {
	Kind    capture.Type
	Display capture.Display
	Window  capture.Window
	Line    string
}

// Target returns the engine-facing identifier of the entry.
func (e Entry) Target() string {
	if e.Kind == capture.TypeWindow {
		return e.Window.Address
	}
	return e.Display.Name
}

// DisplayEntry renders the menu entry for an output.
func DisplayEntry(d capture.Display) Entry {
	label := fmt.Sprintf("%s (%dx%d)", d.Name, d.Width, d.Height)
	if d.Description != "" {
		label += " " + d.Description
	}
	return Entry{Kind: capture.TypeDisplay, Display: d, Line: displayPrefix + label}
}

// WindowEntry renders the menu entry for a toplevel window.
func WindowEntry(w capture.Window) Entry {
	label := w.Class
	if w.Title != "" {
		label = w.Class + ": " + w.Title
	}
	return Entry{Kind: capture.TypeWindow, Window: w, Line: windowPrefix + label}
}

// Targets enumerates the selectable capture targets: every connected output
// followed by every visible toplevel window.
func Targets(ctx context.Context) ([]Entry, error) {
	monitors, err := hypr.QueryMonitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	windows, err := hypr.QueryClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}

	entries := make([]Entry, 0, len(monitors)+len(windows))
	for _, mon := range monitors {
		entries = append(entries, DisplayEntry(DisplayFromMonitor(mon)))
	}
	for _, win := range windows {
		entries = append(entries, WindowEntry(WindowFromClient(win)))
	}
	return entries, nil
}

// DisplayFromMonitor converts a compositor output into a capture display.
func DisplayFromMonitor(m hypr.Monitor) capture.Display {
	return capture.Display{
		Name:        m.Name,
		Description: m.Description,
		Width:       m.Width,
		Height:      m.Height,
	}
}

// WindowFromClient converts a compositor toplevel into a capture window.
func WindowFromClient(w hypr.Window) capture.Window {
	return capture.Window{
		Address: w.Address,
		Class:   w.Class,
		Title:   w.Title,
	}
}

// ResolveDisplay finds a connected output by name.
func ResolveDisplay(ctx context.Context, name string) (capture.Display, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return capture.Display{}, fmt.Errorf("display name is empty")
	}

	monitors, err := hypr.QueryMonitors(ctx)
	if err != nil {
		return capture.Display{}, fmt.Errorf("list outputs: %w", err)
	}
	for _, mon := range monitors {
		if strings.EqualFold(mon.Name, name) {
			return DisplayFromMonitor(mon), nil
		}
	}
	return capture.Display{}, fmt.Errorf("display %q not connected", name)
}

// ResolveWindow finds a visible window by address or class. The identifier
// "active" resolves the currently focused window.
func ResolveWindow(ctx context.Context, ident string) (capture.Window, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return capture.Window{}, fmt.Errorf("window identifier is empty")
	}

	if strings.EqualFold(ident, "active") {
		win, err := hypr.QueryActiveWindow(ctx)
		if err != nil {
			return capture.Window{}, fmt.Errorf("resolve active window: %w", err)
		}
		return WindowFromClient(win), nil
	}

	windows, err := hypr.QueryClients(ctx)
	if err != nil {
		return capture.Window{}, fmt.Errorf("list windows: %w", err)
	}
	for _, win := range windows {
		if win.Address == ident {
			return WindowFromClient(win), nil
		}
	}
	for _, win := range windows {
		if strings.EqualFold(win.Class, ident) {
			return WindowFromClient(win), nil
		}
	}
	return capture.Window{}, fmt.Errorf("window %q not found", ident)
}

// matchEntry maps a chooser selection line back to its entry.
func matchEntry(entries []Entry, line string) (Entry, bool) {
	for _, entry := range entries {
		if entry.Line == line {
			return entry, true
		}
	}
	return Entry{}, false
}

// menuText renders the chooser stdin payload, one entry per line.
func menuText(entries []Entry) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(entry.Line)
		b.WriteByte('\n')
	}
	return b.String()
}
