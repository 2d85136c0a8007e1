package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Monitor describes one output as reported by hyprctl monitors.
type Monitor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Focused     bool   `json:"focused"`
}

// Window describes one toplevel as reported by hyprctl clients. The same
// shape comes back from hyprctl activewindow.
type Window struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Title   string `json:"title"`
	Mapped  bool   `json:"mapped"`
	Hidden  bool   `json:"hidden"`
}

// QueryMonitors lists all connected outputs.
func QueryMonitors(ctx context.Context) ([]Monitor, error) {
	output, err := runHyprctlJSON(ctx, "monitors")
	if err != nil {
		return nil, err
	}

	var monitors []Monitor
	if err := json.Unmarshal(output, &monitors); err != nil {
		return nil, fmt.Errorf("decode hyprctl monitors json: %w", err)
	}
	for i := range monitors {
		monitors[i].Name = strings.TrimSpace(monitors[i].Name)
		monitors[i].Description = strings.TrimSpace(monitors[i].Description)
	}
	return monitors, nil
}

// QueryClients lists mapped, visible toplevel windows.
func QueryClients(ctx context.Context) ([]Window, error) {
	output, err := runHyprctlJSON(ctx, "clients")
	if err != nil {
		return nil, err
	}

	var windows []Window
	if err := json.Unmarshal(output, &windows); err != nil {
		return nil, fmt.Errorf("decode hyprctl clients json: %w", err)
	}
	visible := windows[:0]
	for _, win := range windows {
		win.Address = strings.TrimSpace(win.Address)
		win.Class = strings.TrimSpace(win.Class)
		win.Title = strings.TrimSpace(win.Title)
		if win.Address == "" || !win.Mapped || win.Hidden {
			continue
		}
		visible = append(visible, win)
	}
	return visible, nil
}

// QueryActiveWindow fetches and validates the active-window contract from hyprctl.
func QueryActiveWindow(ctx context.Context) (Window, error) {
	output, err := runHyprctlJSON(ctx, "activewindow")
	if err != nil {
		return Window{}, err
	}

	var window Window
	if err := json.Unmarshal(output, &window); err != nil {
		return Window{}, fmt.Errorf("decode hyprctl activewindow json: %w", err)
	}
	window.Address = strings.TrimSpace(window.Address)
	window.Class = strings.TrimSpace(window.Class)
	window.Title = strings.TrimSpace(window.Title)
	if window.Address == "" {
		return Window{}, fmt.Errorf("hyprctl activewindow returned empty address")
	}
	return window, nil
}

// QueryFocusedMonitor returns the focused monitor (or the first monitor fallback).
func QueryFocusedMonitor(ctx context.Context) (Monitor, error) {
	monitors, err := QueryMonitors(ctx)
	if err != nil {
		return Monitor{}, err
	}
	for _, mon := range monitors {
		if mon.Focused {
			return mon, nil
		}
	}
	if len(monitors) == 0 {
		return Monitor{}, fmt.Errorf("hyprctl monitors returned no outputs")
	}
	return monitors[0], nil
}

// Notify sends a Hyprland notification payload.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = "rgb(89b4fa)"
	}
	return runHyprctl(
		ctx,
		"--quiet",
		"dispatch",
		"notify",
		strconv.Itoa(icon),
		strconv.Itoa(timeoutMS),
		color,
		text,
	)
}

// DismissNotify dismisses active Hyprland notifications.
func DismissNotify(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
}

// runHyprctlJSON executes a JSON-returning hyprctl subcommand.
func runHyprctlJSON(ctx context.Context, target string) ([]byte, error) {
	output, err := runHyprctlOutput(ctx, "-j", target)
	if err != nil {
		return nil, err
	}
	return output, nil
}
