package signal

import (
	"encoding/json"

	"github.com/pomsaddons/BloxCord/internal/core"
)

// handleVotePin: pinVoteState goes out on every ballot, the
// pinnedMessageChanged event only when quorum is reached.
func (ctl *Controller) handleVotePin(c *WsConn, data json.RawMessage) {
	var p struct {
		JobID     string `json:"jobId"`
		MessageID string `json:"messageId"`
		Username  string `json:"username"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.MessageID == "" || p.Username == "" {
		return
	}
	ch, ok := ctl.Channels.Get(p.JobID)
	if !ok {
		return
	}
	result, ok := ch.VotePin(p.MessageID, p.Username)
	if !ok {
		return
	}

	ctl.broadcastRoom(p.JobID, "pinVoteState", struct {
		JobID           string        `json:"jobId"`
		PinnedMessageID string        `json:"pinnedMessageId,omitempty"`
		ActivePinVote   *core.PinVote `json:"activePinVote"`
	}{p.JobID, result.PinnedMessageID, result.Vote})

	if result.PinnedNow {
		ctl.broadcastRoom(p.JobID, "pinnedMessageChanged", struct {
			JobID           string `json:"jobId"`
			PinnedMessageID string `json:"pinnedMessageId"`
		}{p.JobID, result.PinnedMessageID})
	}
}

// handleVoteKick: quorum forcibly removes the target. The target gets
// a kicked event and is dropped from the room group before the
// participant and typing broadcasts go out.
func (ctl *Controller) handleVoteKick(c *WsConn, data json.RawMessage) {
	var p struct {
		JobID          string `json:"jobId"`
		TargetUsername string `json:"targetUsername"`
		Username       string `json:"username"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.TargetUsername == "" || p.Username == "" {
		return
	}
	ch, ok := ctl.Channels.Get(p.JobID)
	if !ok {
		return
	}
	result := ch.VoteKick(p.TargetUsername, p.Username)

	ctl.broadcastRoom(p.JobID, "kickVoteState", struct {
		JobID          string         `json:"jobId"`
		ActiveKickVote *core.KickVote `json:"activeKickVote"`
	}{p.JobID, result.Vote})

	if !result.KickedNow {
		return
	}

	if targetConn, ok := ctl.Presence.ParticipantConn(p.JobID, p.TargetUsername); ok {
		ctl.sendTo(targetConn, "kicked", struct {
			JobID  string `json:"jobId"`
			Reason string `json:"reason"`
		}{p.JobID, "Vote kick passed"})
	}
	ctl.Presence.Leave(p.JobID, p.TargetUsername)
	ctl.Presence.CancelDeparture(p.JobID, p.TargetUsername)
	ch.RemoveParticipant(p.TargetUsername)

	ctl.broadcastRoom(p.JobID, "participantsChanged", participantsChangedPayload{
		JobID:        p.JobID,
		Participants: ch.Participants(),
	})
	ctl.broadcastRoom(p.JobID, "typingIndicator", typingIndicatorPayload{
		JobID:     p.JobID,
		Usernames: ch.Typing(),
	})
}

// handleVoteLanguage: languageVoteState on every ballot,
// languageChanged additionally when a bucket reaches quorum.
func (ctl *Controller) handleVoteLanguage(c *WsConn, data json.RawMessage) {
	var p struct {
		JobID        string `json:"jobId"`
		Username     string `json:"username"`
		LanguageCode string `json:"languageCode"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.Username == "" || p.LanguageCode == "" {
		return
	}
	ch, ok := ctl.Channels.Get(p.JobID)
	if !ok {
		return
	}
	result := ch.VoteLanguage(p.LanguageCode, p.Username)

	ctl.broadcastRoom(p.JobID, "languageVoteState", struct {
		JobID        string              `json:"jobId"`
		LanguageCode string              `json:"languageCode"`
		Votes        map[string][]string `json:"votes"`
	}{p.JobID, result.Code, result.Votes})

	if result.ChangedNow {
		ctl.broadcastRoom(p.JobID, "languageChanged", struct {
			JobID        string `json:"jobId"`
			LanguageCode string `json:"languageCode"`
		}{p.JobID, result.Code})
	}
}
