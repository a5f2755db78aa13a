package signal

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pomsaddons/BloxCord/internal/domain"
)

// handleSendMessage appends to the channel ledger and fans out, or
// routes point-to-point when the job id uses the negative DM form.
func (ctl *Controller) handleSendMessage(c *WsConn, data json.RawMessage) {
	var p struct {
		JobID     string `json:"jobId"`
		Username  string `json:"username"`
		Content   string `json:"content"`
		UserID    int64  `json:"userId"`
		ReplyToID string `json:"replyToId"`
		Token     string `json:"token"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.Username == "" || p.Content == "" {
		return
	}

	_, _, boundUserID := c.binding()
	senderID := boundUserID
	if senderID == 0 {
		senderID = p.UserID
	}

	limiterKey := p.Username
	if senderID != 0 {
		limiterKey = strconv.FormatInt(senderID, 10)
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(limiterKey) {
		log.Debug().Str("module", "signal").Str("username", p.Username).Msg("message rate limited")
		return
	}

	if strings.HasPrefix(p.JobID, "-") {
		ctl.routeDirect(c, p.JobID, p.Username, senderID, p.Content, p.ReplyToID)
		return
	}

	ch, ok := ctl.Channels.Get(p.JobID)
	if !ok {
		return
	}

	finalUserID := p.UserID
	avatarURL := ""
	if participant, ok := ch.Participant(p.Username); ok {
		if finalUserID == 0 {
			finalUserID = participant.UserID
		}
		avatarURL = participant.AvatarURL
	}

	if _, banned := ctl.Bans.Check(finalUserID); banned {
		return
	}

	msg := domain.NewChatMessage(p.JobID, p.Username, finalUserID, p.Content, avatarURL, p.ReplyToID)

	authorToken := ""
	if finalUserID != 0 && ctl.Tokens.Valid(finalUserID, p.Token) {
		authorToken = p.Token
	}

	ch.AppendMessage(msg, authorToken)
	ctl.broadcastRoom(p.JobID, "receiveMessage", msg)
}

// routeDirect implements the DM addressing convention: a job id of
// "-<identity>" names the peer. The recipient sees the thread filed
// under the sender ("-<senderId>"), the sender's echo under the target.
// An offline recipient is skipped; the echo still goes out.
func (ctl *Controller) routeDirect(c *WsConn, jobID, username string, senderID int64, content, replyToID string) {
	targetID, err := strconv.ParseInt(strings.TrimPrefix(jobID, "-"), 10, 64)
	if err != nil {
		return
	}
	if _, banned := ctl.Bans.Check(senderID); banned {
		return
	}

	msg := domain.NewChatMessage(jobID, username, senderID, content, "", replyToID)

	if targetConn, ok := ctl.Presence.UserConn(targetID); ok {
		forTarget := msg
		forTarget.JobID = "-" + strconv.FormatInt(senderID, 10)
		ctl.sendTo(targetConn, "receiveMessage", forTarget)
	}

	forSender := msg
	forSender.JobID = "-" + strconv.FormatInt(targetID, 10)
	ctl.sendEvent(c, "receiveMessage", forSender)
}

// handleEditMessage mutates in place when the actor is authorized;
// unauthorized attempts are dropped with no event to anyone.
func (ctl *Controller) handleEditMessage(c *WsConn, data json.RawMessage) {
	var p struct {
		JobID     string `json:"jobId"`
		MessageID string `json:"messageId"`
		Username  string `json:"username"`
		UserID    int64  `json:"userId"`
		Content   string `json:"content"`
		Token     string `json:"token"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.MessageID == "" || p.Username == "" {
		return
	}
	ch, ok := ctl.Channels.Get(p.JobID)
	if !ok {
		return
	}
	updated, ok := ch.EditMessage(p.MessageID, p.Username, p.UserID, p.Token, p.Content)
	if !ok {
		return
	}
	ctl.broadcastRoom(p.JobID, "messageUpdated", updated)
}

func (ctl *Controller) handleDeleteMessage(c *WsConn, data json.RawMessage) {
	var p struct {
		JobID     string `json:"jobId"`
		MessageID string `json:"messageId"`
		Username  string `json:"username"`
		UserID    int64  `json:"userId"`
		Token     string `json:"token"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.MessageID == "" || p.Username == "" {
		return
	}
	ch, ok := ctl.Channels.Get(p.JobID)
	if !ok {
		return
	}
	updated, ok := ch.DeleteMessage(p.MessageID, p.Username, p.UserID, p.Token)
	if !ok {
		return
	}
	ctl.broadcastRoom(p.JobID, "messageUpdated", updated)
}

type reactionPayload struct {
	JobID     string `json:"jobId"`
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	Username  string `json:"username"`
	UserID    int64  `json:"userId"`
}

func (ctl *Controller) handleAddReaction(c *WsConn, data json.RawMessage) {
	var p reactionPayload
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.MessageID == "" || p.Emoji == "" || p.Username == "" {
		return
	}
	ch, ok := ctl.Channels.Get(p.JobID)
	if !ok {
		return
	}
	updated, ok := ch.AddReaction(p.MessageID, p.Emoji, p.Username, p.UserID)
	if !ok {
		return
	}
	ctl.broadcastRoom(p.JobID, "messageUpdated", updated)
}

func (ctl *Controller) handleRemoveReaction(c *WsConn, data json.RawMessage) {
	var p reactionPayload
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.MessageID == "" || p.Emoji == "" || p.Username == "" {
		return
	}
	ch, ok := ctl.Channels.Get(p.JobID)
	if !ok {
		return
	}
	updated, ok := ch.RemoveReaction(p.MessageID, p.Emoji, p.Username, p.UserID)
	if !ok {
		return
	}
	ctl.broadcastRoom(p.JobID, "messageUpdated", updated)
}
