package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
)

var watchStreamDesc = &grpc.StreamDesc{
	StreamName:    "Watch",
	ServerStreams: true,
}

// Watch subscribes to engine session events and dispatches each one to the
// handler until the stream closes. A clean server-side close returns nil;
// context cancellation returns the context error.
func (c *Client) Watch(ctx context.Context, handler func(SessionEvent)) error {
	stream, err := c.conn.NewStream(ctx, watchStreamDesc, watchMethod)
	if err != nil {
		return fmt.Errorf("open engine watch stream: %w", err)
	}
	if err := stream.SendMsg(&WatchRequest{}); err != nil {
		return fmt.Errorf("send watch request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("close watch send side: %w", err)
	}

	for {
		ev := SessionEvent{}
		if err := stream.RecvMsg(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive engine event: %w", err)
		}
		if handler != nil {
			handler(ev)
		}
	}
}
