package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/logging"
	"github.com/agbru/heatsolve/internal/metrics"
	"github.com/agbru/heatsolve/internal/orchestration"
)

// outboxSize bounds the messages queued for a slow client.
const outboxSize = 64

// reasonAlreadyRunning is the RunFailed reason of a start request received
// while the connection still has an active run.
const reasonAlreadyRunning = "simulation already running"

// wsConn serves one WebSocket connection. At most one run is active on a
// connection at a time, and closing the connection cancels it.
type wsConn struct {
	s    *Server
	conn *websocket.Conn
	out  chan serverMessage

	mu         sync.Mutex
	session    *orchestration.Session
	forwarders sync.WaitGroup
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response.
		s.logger.Debug("websocket upgrade failed", logging.Err(err))
		return
	}
	s.conns.Add(1)
	defer s.conns.Done()
	s.httpMetrics.connections.Inc()
	defer s.httpMetrics.connections.Dec()

	ctx, cancel := context.WithCancel(s.connCtx)
	defer cancel()

	c := &wsConn{s: s, conn: conn, out: make(chan serverMessage, outboxSize)}
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop()
	}()

	stop := context.AfterFunc(s.connCtx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(WriteWait))
		_ = conn.Close()
	})
	defer stop()

	s.logger.Debug("websocket connected", logging.String("remote", r.RemoteAddr))
	c.readLoop(ctx)

	cancel()
	c.forwarders.Wait()
	close(c.out)
	<-writerDone
	_ = conn.Close()
	s.logger.Debug("websocket closed", logging.String("remote", r.RemoteAddr))
}

func (c *wsConn) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				c.s.logger.Debug("websocket read failed", logging.Err(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(runFailed("malformed message: " + err.Error()))
			continue
		}
		switch msg.Type {
		case msgStart:
			c.start(ctx, msg.configs())
		case msgCancel:
			c.cancel()
		default:
			c.send(runFailed(fmt.Sprintf("unknown message type %q", msg.Type)))
		}
	}
}

func (c *wsConn) start(ctx context.Context, configs []heat.SimulationConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.send(runFailed(reasonAlreadyRunning))
		return
	}
	if limit := c.s.security.MaxSimulations; limit > 0 && len(configs) > limit {
		c.send(runFailed(fmt.Sprintf("at most %d simulations per run, got %d", limit, len(configs))))
		return
	}
	session, err := c.s.orch.StartRun(ctx, configs)
	if err != nil {
		c.send(runFailed(err.Error()))
		return
	}

	c.session = session
	c.s.activeRuns.Add(1)
	bytes := int64(lo.SumBy(configs, func(cfg heat.SimulationConfig) uint64 { return metrics.GridBytes(cfg.GridSize) }))
	c.s.fieldBytes.Add(bytes)
	c.forwarders.Add(1)
	go c.forward(session, bytes)
}

// forward relays a session's stream to the client until it closes. The
// connection is free for a new run before the terminal event goes out.
func (c *wsConn) forward(session *orchestration.Session, bytes int64) {
	defer c.forwarders.Done()
	released := false
	release := func() {
		released = true
		c.mu.Lock()
		if c.session == session {
			c.session = nil
		}
		c.mu.Unlock()
		c.s.fieldBytes.Add(-bytes)
		c.s.activeRuns.Add(-1)
	}

	for ev := range session.Events() {
		if orchestration.IsTerminal(ev) && !released {
			release()
		}
		c.send(encodeEvent(ev))
	}
	if !released {
		release()
	}
}

func (c *wsConn) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.Cancel()
	}
}

func (c *wsConn) send(msg serverMessage) {
	c.out <- msg
}

// writeLoop is the only writer of data frames. After a write error it keeps
// draining the outbox so that senders never block.
func (c *wsConn) writeLoop() {
	failed := false
	for msg := range c.out {
		if failed {
			continue
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			failed = true
			c.s.logger.Debug("websocket write failed", logging.Err(err))
			_ = c.conn.Close()
		}
	}
}

func runFailed(reason string) serverMessage {
	return encodeEvent(orchestration.RunFailed{Reason: reason})
}
