package signal

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

type privateMessage struct {
	FromUserID   int64     `json:"fromUserId"`
	FromUsername string    `json:"fromUsername"`
	ToUserID     int64     `json:"toUserId"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
}

// handleSendPrivateMessage delivers to the recipient's connection when
// one is bound and always echoes to the sender. No queuing for offline
// recipients.
func (ctl *Controller) handleSendPrivateMessage(c *WsConn, data json.RawMessage) {
	var p struct {
		ToUserID     int64  `json:"toUserId"`
		Content      string `json:"content"`
		FromUsername string `json:"fromUsername"`
		FromUserID   int64  `json:"fromUserId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ToUserID == 0 || p.Content == "" || p.FromUserID == 0 {
		return
	}
	if _, banned := ctl.Bans.Check(p.FromUserID); banned {
		return
	}

	msg := privateMessage{
		FromUserID:   p.FromUserID,
		FromUsername: p.FromUsername,
		ToUserID:     p.ToUserID,
		Content:      p.Content,
		Timestamp:    time.Now().UTC(),
	}

	if targetConn, ok := ctl.Presence.UserConn(p.ToUserID); ok && targetConn != c {
		ctl.sendTo(targetConn, "receivePrivateMessage", msg)
	}
	ctl.sendEvent(c, "receivePrivateMessage", msg)
}

func (ctl *Controller) handleGetGroups(c *WsConn) {
	_, _, userID := c.binding()
	if userID == 0 {
		return
	}
	ctl.sendEvent(c, "userGroups", ctl.Groups.ForUser(userID))
}

func (ctl *Controller) handleCreateGroup(c *WsConn, data json.RawMessage) {
	_, _, userID := c.binding()
	if userID == 0 {
		return
	}
	var p struct {
		Participants []int64 `json:"participants"`
		Name         string  `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	group := ctl.Groups.Create(userID, p.Participants, p.Name)
	log.Info().Str("module", "signal").Str("group", group.ID).Int64("creator", userID).Msg("group created")

	for _, memberID := range group.Participants {
		if conn, ok := ctl.Presence.UserConn(memberID); ok {
			ctl.sendTo(conn, "groupCreated", group)
		}
	}
}

func (ctl *Controller) handleSendGroupMessage(c *WsConn, data json.RawMessage) {
	_, username, userID := c.binding()
	if userID == 0 || username == "" {
		return
	}
	var p struct {
		GroupID string `json:"groupId"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.GroupID == "" || p.Content == "" {
		return
	}
	msg, ok := ctl.Groups.Post(p.GroupID, userID, username, p.Content)
	if !ok {
		return
	}
	group, ok := ctl.Groups.Get(p.GroupID)
	if !ok {
		return
	}
	for _, memberID := range group.Participants {
		if conn, ok := ctl.Presence.UserConn(memberID); ok {
			ctl.sendTo(conn, "receiveGroupMessage", msg)
		}
	}
}
