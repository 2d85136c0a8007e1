// Package cli parses the glint command line: flags, one command, and the
// command's positional arguments.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun        Command = "run"
	CommandStart      Command = "start"
	CommandStop       Command = "stop"
	CommandToggle     Command = "toggle"
	CommandStatus     Command = "status"
	CommandPick       Command = "pick"
	CommandTargets    Command = "targets"
	CommandSet        Command = "set"
	CommandShow       Command = "show"
	CommandAudio      Command = "audio"
	CommandLevels     Command = "levels"
	CommandDevices    Command = "devices"
	CommandRecordings Command = "recordings"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

// commandArity bounds the positional arguments each command accepts.
var commandArity = map[Command][2]int{
	CommandRun:        {0, 0},
	CommandStart:      {0, 0},
	CommandStop:       {0, 0},
	CommandToggle:     {0, 0},
	CommandStatus:     {0, 0},
	CommandPick:       {0, 2},
	CommandTargets:    {0, 0},
	CommandSet:        {2, 2},
	CommandShow:       {0, 0},
	CommandAudio:      {1, 1},
	CommandLevels:     {0, 0},
	CommandDevices:    {0, 0},
	CommandRecordings: {0, 0},
	CommandDoctor:     {0, 0},
	CommandVersion:    {0, 0},
	CommandHelp:       {0, 0},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	haveCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if !haveCommand {
			switch arg {
			case "-h", "--help":
				parsed.ShowHelp = true
				parsed.Command = CommandHelp
				continue
			case "--version":
				parsed.ShowHelp = false
				parsed.Command = CommandVersion
				continue
			case "--config":
				i++
				if i >= len(args) {
					return Parsed{}, errors.New("--config requires a path")
				}
				parsed.ConfigPath = args[i]
				continue
			}

			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := commandArity[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			haveCommand = true
			continue
		}

		if strings.HasPrefix(arg, "-") {
			return Parsed{}, fmt.Errorf("flags must precede the command: %s", arg)
		}
		parsed.Args = append(parsed.Args, arg)
	}

	arity := commandArity[parsed.Command]
	if len(parsed.Args) < arity[0] {
		return Parsed{}, fmt.Errorf("command %q requires %d argument(s)", parsed.Command, arity[0])
	}
	if len(parsed.Args) > arity[1] {
		return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  run                  Run the capture daemon (owns the control socket)
  start                Start a capture session
  stop                 Stop the active capture session
  toggle               Start capturing, or stop when already capturing
  status               Print session state, target, and audio state
  pick [KIND TARGET]   Present the content picker; with arguments, select
                       directly (pick display DP-1, pick window active)
  targets              List selectable displays and windows
  set KEY VALUE        Update one runtime setting
  show                 Print the runtime configuration
  audio play|stop      Control sample-audio playback
  levels               Print the current sample-audio level
  devices              List PulseAudio capture sources
  recordings           Print the recordings directory
  doctor               Run configuration and environment checks
  version              Print version information
  help                 Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/glint/config.conf)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
