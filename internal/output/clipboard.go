// Package output hands finished recordings off to the desktop: clipboard
// path copy and recordings directory resolution.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/glintcap/glint/internal/config"
)

// Committer applies recording hand-off side effects once a session produced
// a file.
type Committer struct {
	cfg    config.RecordingsConfig
	logger *slog.Logger
}

// NewCommitter constructs a recording committer from runtime config.
func NewCommitter(cfg config.RecordingsConfig, logger *slog.Logger) *Committer {
	return &Committer{cfg: cfg, logger: logger}
}

// Commit copies the recording path to the clipboard via the configured
// command. A session without a recording commits nothing.
func (c *Committer) Commit(ctx context.Context, recordingPath string) error {
	if recordingPath == "" {
		return nil
	}
	if !c.cfg.CopyPath {
		return nil
	}

	clipboardCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := runCommandWithInput(clipboardCtx, c.cfg.ClipboardCmd.Argv, recordingPath); err != nil {
		return fmt.Errorf("copy recording path: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("recording path copied to clipboard", "path", recordingPath)
	}
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
