package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pomsaddons/BloxCord/internal/app"
	"github.com/pomsaddons/BloxCord/internal/auth"
	"github.com/pomsaddons/BloxCord/internal/avatar"
	"github.com/pomsaddons/BloxCord/internal/config"
	"github.com/pomsaddons/BloxCord/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the WebSocket surface: one connection per client,
// event dispatch, and fan-out through the presence table.
type Controller struct {
	Channels *app.ChannelRegistry
	Presence *app.Presence
	Groups   *app.GroupRegistry
	Bans     *auth.BanList
	Tokens   *auth.TokenService
	Avatars  *avatar.Resolver
	Limiter  *MessageRateLimiter
	Cfg      *config.Config
}

// WsConn wraps one websocket with a bounded send queue and the
// session binding set by a successful join. It implements
// core.SignalConnection.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool

	bmu      sync.RWMutex
	jobID    string
	username string
	userID   int64
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close seals the send queue. Frames already queued still go out:
// writePump drains the queue and only then tears down the socket, so a
// rejection event enqueued right before Close reaches the client.
func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

// binding returns the (channel, username, identity) bound at join
// time. All fields are zero before the first successful join.
func (c *WsConn) binding() (jobID, username string, userID int64) {
	c.bmu.RLock()
	defer c.bmu.RUnlock()
	return c.jobID, c.username, c.userID
}

func (c *WsConn) setBinding(jobID, username string, userID int64) {
	c.bmu.Lock()
	c.jobID = jobID
	c.username = username
	if userID != 0 {
		c.userID = userID
	}
	c.bmu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection's pumps.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	clientToken := c.GetString("client_token")
	log.Info().Str("module", "signal").Str("client", clientToken).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.Cfg != nil && ctl.Cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, conn)
	}()
}
