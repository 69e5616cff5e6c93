package internal

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Socket wraps a websocket connection with per-operation timeouts and a
// JSON codec.
type Socket struct {
	ws           *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewSocket(ws *websocket.Conn, readTimeout, writeTimeout time.Duration) *Socket {
	return &Socket{ws: ws, readTimeout: readTimeout, writeTimeout: writeTimeout}
}

func (s *Socket) ReadJSON(ctx context.Context, v any) error {
	if s.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.readTimeout)
		defer cancel()
	}
	return wsjson.Read(ctx, s.ws, v)
}

func (s *Socket) WriteJSON(ctx context.Context, v any) error {
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, s.ws, v)
}

func (s *Socket) Close(code websocket.StatusCode, reason string) error {
	return s.ws.Close(code, reason)
}
