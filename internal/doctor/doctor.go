// Package doctor runs runtime readiness diagnostics for config, tools, audio, and the capture engine.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/glintcap/glint/internal/audio"
	"github.com/glintcap/glint/internal/config"
	"github.com/glintcap/glint/internal/engine"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if len(cfg.Warnings) > 0 {
		configMessage = fmt.Sprintf("loaded %q with %d warning(s)", cfg.Path, len(cfg.Warnings))
	}
	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: configMessage,
	})

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))

	checks = append(checks, checkBinary("hyprctl", "required for target listing and the indicator"))

	if cfg.Config.Picker.Enable {
		checks = append(checks, checkCommand(cfg.Config.Picker.ChooserCmd.Argv, "picker.chooser_cmd"))
	}

	if cfg.Config.Recordings.CopyPath {
		checks = append(checks, checkCommand(cfg.Config.Recordings.ClipboardCmd.Argv, "recordings.clipboard_cmd"))
	}

	checks = append(checks, checkAudioSource(cfg.Config))
	checks = append(checks, checkProcesses()...)
	checks = append(checks, checkEngineReady(cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSource runs live source selection to surface selection/fallback issues.
func checkAudioSource(cfg config.Config) Check {
	selection, err := audio.SelectSource(context.Background(), cfg.Audio.MicSource)
	if err != nil {
		return Check{Name: "audio.source", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Source.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.source", Pass: true, Message: message}
}

// audioStackProcesses are the daemons the engine needs for desktop audio capture.
var audioStackProcesses = []string{"pipewire", "wireplumber"}

// checkProcesses verifies the audio stack daemons from one process snapshot.
func checkProcesses() []Check {
	snapshot, err := snapshotProcessNames()
	if err != nil {
		return []Check{{Name: "audio.stack", Pass: false, Message: fmt.Sprintf("list processes: %v", err)}}
	}
	return checkNamedProcesses(snapshot)
}

// checkNamedProcesses reports one check per required daemon against a snapshot.
func checkNamedProcesses(snapshot map[string]int32) []Check {
	checks := make([]Check, 0, len(audioStackProcesses))
	for _, name := range audioStackProcesses {
		if pid, ok := snapshot[name]; ok {
			checks = append(checks, Check{Name: name, Pass: true, Message: fmt.Sprintf("running (pid %d)", pid)})
			continue
		}
		checks = append(checks, Check{Name: name, Pass: false, Message: "process not running"})
	}
	return checks
}

// snapshotProcessNames caches lowercase process names for batch matching.
func snapshotProcessNames() (map[string]int32, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	names := make(map[string]int32, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		names[strings.ToLower(name)] = p.Pid
	}
	return names, nil
}

// checkEngineReady probes the capture engine's HTTP ready endpoint.
func checkEngineReady(cfg config.Config) Check {
	err := engine.CheckHTTPReady(context.Background(), cfg.Engine.HTTP, cfg.Engine.HealthPath, 2*time.Second)
	if err != nil {
		return Check{Name: "engine.ready", Pass: false, Message: err.Error()}
	}
	return Check{
		Name:    "engine.ready",
		Pass:    true,
		Message: fmt.Sprintf("ready at %s%s", strings.TrimSpace(cfg.Engine.HTTP), cfg.Engine.HealthPath),
	}
}
