// Package app wires the CLI surface to the glint daemon: `glint run` owns the
// control socket and the capture session, every other session command is
// forwarded to it over IPC.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/glintcap/glint/internal/audio"
	"github.com/glintcap/glint/internal/cli"
	"github.com/glintcap/glint/internal/config"
	"github.com/glintcap/glint/internal/doctor"
	"github.com/glintcap/glint/internal/ipc"
	"github.com/glintcap/glint/internal/logging"
	"github.com/glintcap/glint/internal/output"
	"github.com/glintcap/glint/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("glint"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("glint"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandRun:
		return r.runDaemon(ctx, logger, cfgLoaded)
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandRecordings:
		return r.commandRecordings(cfgLoaded.Config.Recordings)
	case cli.CommandStart, cli.CommandStop, cli.CommandToggle, cli.CommandStatus,
		cli.CommandPick, cli.CommandTargets, cli.CommandSet, cli.CommandShow,
		cli.CommandAudio, cli.CommandLevels:
		return r.commandForward(ctx, parsed)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	sources, err := audio.ListSources(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(sources) == 0 {
		fmt.Fprintln(r.Stdout, "no audio sources found")
		return 1
	}

	for _, source := range sources {
		defaultMark := " "
		if source.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !source.Available {
			availability = "no"
		}
		muted := "no"
		if source.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			source.ID,
			source.Description,
			source.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandRecordings(cfg config.RecordingsConfig) int {
	dir, err := output.ResolveDirectory(cfg.Directory)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, dir)
	return 0
}

// commandForward sends one request to the daemon and prints the response.
// Session commands have no meaning without a daemon, so a missing or dead
// socket is an error rather than a silent no-op.
func (r Runner) commandForward(ctx context.Context, parsed cli.Parsed) int {
	req, err := buildRequest(parsed)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("glint"))
		return 2
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req, sendTimeout(parsed.Command))
	if !handled {
		fmt.Fprintln(r.Stderr, "error: glint daemon is not running (start it with 'glint run')")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if parsed.Command == cli.CommandStatus {
		state := resp.State
		if state == "" {
			state = "stopped"
		}
		fmt.Fprintln(r.Stdout, state)
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// buildRequest maps parsed CLI arguments onto the wire request. Key carries
// the selector (pick kind, set key, audio action) and Value the payload.
func buildRequest(parsed cli.Parsed) (ipc.Request, error) {
	switch parsed.Command {
	case cli.CommandPick:
		switch len(parsed.Args) {
		case 0:
			return ipc.Request{Command: "pick"}, nil
		case 2:
			return ipc.Request{Command: "pick", Key: parsed.Args[0], Value: parsed.Args[1]}, nil
		default:
			return ipc.Request{}, errors.New("pick requires both KIND and TARGET when selecting directly")
		}
	case cli.CommandSet:
		return ipc.Request{Command: "set", Key: parsed.Args[0], Value: parsed.Args[1]}, nil
	case cli.CommandAudio:
		return ipc.Request{Command: "audio", Key: parsed.Args[0]}, nil
	default:
		return ipc.Request{Command: string(parsed.Command)}, nil
	}
}

// sendTimeout gives session-lifecycle commands room for the engine roundtrip;
// read-only commands answer from memory and stay snappy.
func sendTimeout(cmd cli.Command) time.Duration {
	switch cmd {
	case cli.CommandStart, cli.CommandStop, cli.CommandToggle, cli.CommandPick:
		return 10 * time.Second
	default:
		return 2 * time.Second
	}
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request, timeout time.Duration) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, timeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
