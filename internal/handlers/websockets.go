package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cranewatch/internal/logger"
	"cranewatch/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxMsgSize   = 1 << 12 // 4 KB
	tickInterval = 1 * time.Second
)

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins for production
}

// wsConnect is the channel gateway: it upgrades the connection, verifies the
// bearer token, and only then hands the connection to a session. Missing and
// invalid tokens get the same close frame so the peer can't tell them apart;
// the distinction is only logged here.
func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	token := c.Query("token")
	if token == "" {
		h.rejectConn(conn, "no token")
		return
	}
	userID, err := h.services.ParseToken(token)
	if err != nil {
		h.rejectConn(conn, "invalid token")
		return
	}

	sess := newSession(conn, userID, h.services.Telemetry, h.services.History, h.log)
	if h.log != nil {
		h.log.Infow("ws_session_started", "conn_id", sess.id, "user_id", userID)
	}
	sess.run(c.Request.Context())
	if h.log != nil {
		h.log.Infow("ws_session_ended", "conn_id", sess.id)
	}
}

// rejectConn closes an unauthenticated connection with a policy-violation
// close frame. No telemetry is ever written before this point.
func (h *Handler) rejectConn(conn *websocket.Conn, reason string) {
	if h.log != nil {
		h.log.Infow("ws_rejected", "reason", reason)
	}
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "policy violation")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// session is one authenticated telemetry feed: it owns its tick timer and is
// torn down exactly once, whether the peer vanishes, the write fails, or the
// server shuts down.
type session struct {
	id        string
	userID    int
	conn      *websocket.Conn
	telemetry service.Telemetry
	history   service.History
	log       *logger.Logger

	ticker   *time.Ticker
	ping     *time.Ticker
	done     chan struct{}
	teardown sync.Once
}

func newSession(conn *websocket.Conn, userID int, telemetry service.Telemetry, hist service.History, log *logger.Logger) *session {
	return &session{
		id:        uuid.NewString(),
		userID:    userID,
		conn:      conn,
		telemetry: telemetry,
		history:   hist,
		log:       log,
		done:      make(chan struct{}),
	}
}

// run drives the feed until the peer disconnects or ctx is canceled.
func (s *session) run(ctx context.Context) {
	// Configure read limits and pong handler to extend read deadline.
	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Timers exist before the reader starts so teardown never races setup.
	s.ticker = time.NewTicker(tickInterval)
	s.ping = time.NewTicker(pingPeriod)
	defer s.stop()

	// Reader goroutine to handle control frames and detect disconnects.
	go s.startReader()

	// Send the first snapshot immediately.
	if err := s.pushSnapshot(ctx); err != nil {
		return
	}

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-s.ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if s.log != nil {
					s.log.Infow("ws_ping_failed", "conn_id", s.id, "err", err)
				}
				return
			}
		case <-s.ticker.C:
			if err := s.pushSnapshot(ctx); err != nil {
				return
			}
		}
	}
}

// pushSnapshot pulls one snapshot, appends it to the shared history, and
// writes it to the peer.
func (s *session) pushSnapshot(ctx context.Context) error {
	snap, err := s.telemetry.Snapshot(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Errorw("ws_snapshot_failed", "conn_id", s.id, "err", err)
		}
		return err
	}
	s.history.Append(snap)

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(snap); err != nil {
		if s.log != nil {
			s.log.Infow("ws_write_failed", "conn_id", s.id, "err", err)
		}
		return err
	}
	return nil
}

// startReader drains incoming messages to handle control frames and detect closure.
func (s *session) startReader() {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if s.log != nil {
				s.log.Infow("ws_read_closed", "conn_id", s.id, "err", err)
			}
			s.stop()
			return
		}
	}
}

// stop cancels the session timers. Safe to call more than once.
func (s *session) stop() {
	s.teardown.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		if s.ping != nil {
			s.ping.Stop()
		}
		close(s.done)
	})
}
