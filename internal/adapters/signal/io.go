package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pomsaddons/BloxCord/internal/core"
)

// envelope is the wire frame: an event name plus its payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	writeWait := 5 * time.Second
	pingPeriod := 25 * time.Second
	if ctl.Cfg != nil {
		if ctl.Cfg.WriteWait > 0 {
			writeWait = ctl.Cfg.WriteWait
		}
		if ctl.Cfg.PingPeriod > 0 {
			pingPeriod = ctl.Cfg.PingPeriod
		}
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	// The socket closes here, after the queue drains, never in Close.
	defer c.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				// Queue sealed and drained.
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *WsConn) {
	defer func() {
		ctl.handleDisconnect(c)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("readPump closing")
				return
			}
			ctl.dispatch(ctx, c, data)
		}
	}
}

func (ctl *Controller) dispatch(ctx context.Context, c *WsConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("bad frame")
		return
	}

	switch env.Event {
	case "joinChannel":
		ctl.handleJoinChannel(ctx, c, env.Data)
	case "updatePresence":
		ctl.handleUpdatePresence(c, env.Data)
	case "notifyTyping":
		ctl.handleNotifyTyping(c, env.Data)
	case "sendMessage":
		ctl.handleSendMessage(c, env.Data)
	case "editMessage":
		ctl.handleEditMessage(c, env.Data)
	case "deleteMessage":
		ctl.handleDeleteMessage(c, env.Data)
	case "addReaction":
		ctl.handleAddReaction(c, env.Data)
	case "removeReaction":
		ctl.handleRemoveReaction(c, env.Data)
	case "votePin":
		ctl.handleVotePin(c, env.Data)
	case "voteKick":
		ctl.handleVoteKick(c, env.Data)
	case "voteLanguage":
		ctl.handleVoteLanguage(c, env.Data)
	case "sendPrivateMessage":
		ctl.handleSendPrivateMessage(c, env.Data)
	case "mintToken":
		ctl.handleMintToken(c)
	case "getGames":
		ctl.handleGetGames(c)
	case "searchUsers":
		ctl.handleSearchUsers(c, env.Data)
	case "getGroups":
		ctl.handleGetGroups(c)
	case "createGroup":
		ctl.handleCreateGroup(c, env.Data)
	case "sendGroupMessage":
		ctl.handleSendGroupMessage(c, env.Data)
	case "ping":
		ctl.sendEvent(c, "pong", nil)
	default:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
	}
}

// handleDisconnect runs when the read loop ends. It never removes the
// participant immediately: departure waits out the grace period and is
// cancelled by a rejoin. A connection that never joined is a no-op.
func (ctl *Controller) handleDisconnect(c *WsConn) {
	jobID, username, userID := c.binding()
	ctl.Presence.DropUser(userID, c)
	if jobID == "" || username == "" {
		return
	}

	ctl.Presence.Leave(jobID, username)
	ctl.Presence.ScheduleDeparture(jobID, username, func() {
		ctl.Channels.RemoveParticipant(jobID, username)
		ctl.Channels.SetTyping(jobID, username, false)
		ctl.broadcastRoom(jobID, "participantsChanged", participantsChangedPayload{
			JobID:        jobID,
			Participants: ctl.Channels.Participants(jobID),
		})
		ctl.broadcastRoom(jobID, "typingIndicator", typingIndicatorPayload{
			JobID:     jobID,
			Usernames: ctl.Channels.Typing(jobID),
		})
	})
	log.Info().Str("module", "signal").Str("job", jobID).Str("username", username).Msg("disconnect, departure scheduled")
}

func (ctl *Controller) sendEvent(c *WsConn, event string, payload any) {
	b, err := marshalEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("marshal event")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendTo(conn core.SignalConnection, event string, payload any) {
	b, err := marshalEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("marshal event")
		return
	}
	_ = conn.TrySend(b)
}

// broadcastRoom marshals once and fans out to every connection bound
// to the channel. Slow consumers just drop the frame.
func (ctl *Controller) broadcastRoom(jobID, event string, payload any) {
	b, err := marshalEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("marshal event")
		return
	}
	for _, conn := range ctl.Presence.RoomConns(jobID) {
		_ = conn.TrySend(b)
	}
}

func marshalEvent(event string, payload any) (core.Frame, error) {
	var (
		data []byte
		err  error
	)
	if payload != nil {
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(envelope{Event: event, Data: data})
}
