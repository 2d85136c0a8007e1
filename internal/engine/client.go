package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/glintcap/glint/internal/capture"
)

const (
	beginMethod = "/glint.engine.v1.CaptureEngine/Begin"
	endMethod   = "/glint.engine.v1.CaptureEngine/End"
	watchMethod = "/glint.engine.v1.CaptureEngine/Watch"
)

// Config controls engine connection and per-RPC behavior.
type Config struct {
	Target       string
	DialTimeout  time.Duration
	BeginTimeout time.Duration
	EndTimeout   time.Duration

	// MicSource and RecordDirectory ride along on BeginRequest; the engine
	// resolves and owns both.
	MicSource       string
	RecordDirectory string
}

// Client is the gRPC capture engine client. It implements the session
// controller's backend contract.
type Client struct {
	logger *slog.Logger
	cfg    Config
	conn   *grpc.ClientConn

	mu        sync.Mutex
	sessionID string
}

// Dial connects to the engine and waits for channel readiness.
func Dial(ctx context.Context, logger *slog.Logger, cfg Config) (*Client, error) {
	cfg.Target = strings.TrimSpace(cfg.Target)
	if cfg.Target == "" {
		return nil, errors.New("engine target is empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	if cfg.BeginTimeout <= 0 {
		cfg.BeginTimeout = 6 * time.Second
	}
	if cfg.EndTimeout <= 0 {
		cfg.EndTimeout = 4 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := grpc.NewClient(
		cfg.Target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial engine grpc %q: %w", cfg.Target, err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("wait for engine grpc readiness: %w", err)
	}

	return &Client{logger: logger, cfg: cfg, conn: conn}, nil
}

// Close releases the underlying grpc connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Begin starts one capture session on the engine.
func (c *Client) Begin(ctx context.Context, startCfg capture.StartConfig) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.BeginTimeout)
	defer cancel()

	req := &BeginRequest{
		CaptureType:        string(startCfg.CaptureType),
		DisplayName:        startCfg.DisplayName,
		WindowAddress:      startCfg.WindowAddress,
		WindowClass:        startCfg.WindowClass,
		DynamicRange:       string(startCfg.DynamicRange),
		CaptureSystemAudio: startCfg.CaptureSystemAudio,
		CaptureMic:         startCfg.CaptureMic,
		ExcludeApp:         startCfg.ExcludeApp,
		ExcludeAppAudio:    startCfg.ExcludeAppAudio,
		RecordStream:       startCfg.RecordStream,
	}
	if startCfg.CaptureMic {
		req.MicSource = c.cfg.MicSource
	}
	if startCfg.RecordStream {
		req.RecordDirectory = c.cfg.RecordDirectory
	}

	reply := &BeginReply{}
	if err := c.conn.Invoke(ctx, beginMethod, req, reply); err != nil {
		return fmt.Errorf("begin rpc: %w", err)
	}

	c.mu.Lock()
	c.sessionID = reply.SessionID
	c.mu.Unlock()

	c.logger.Debug("engine session began", "session_id", reply.SessionID)
	return nil
}

// End stops the current session. Ending with no active session is safe; the
// engine treats it as a no-op.
func (c *Client) End(ctx context.Context) (capture.EndResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.EndTimeout)
	defer cancel()

	c.mu.Lock()
	sessionID := c.sessionID
	c.sessionID = ""
	c.mu.Unlock()

	reply := &EndReply{}
	if err := c.conn.Invoke(ctx, endMethod, &EndRequest{SessionID: sessionID}, reply); err != nil {
		return capture.EndResult{}, fmt.Errorf("end rpc: %w", err)
	}

	c.logger.Debug("engine session ended",
		"session_id", sessionID,
		"recording", reply.RecordingPath,
	)
	return capture.EndResult{RecordingPath: reply.RecordingPath}, nil
}

// SessionID returns the engine-issued id of the active session, if any.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// waitForReady blocks until the gRPC connection enters Ready or fails.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
