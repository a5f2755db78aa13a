package signal

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pomsaddons/BloxCord/internal/domain"
)

type participantsChangedPayload struct {
	JobID        string               `json:"jobId"`
	Participants []domain.Participant `json:"participants"`
}

type typingIndicatorPayload struct {
	JobID     string   `json:"jobId"`
	Usernames []string `json:"usernames"`
}

type bannedPayload struct {
	UserID    int64  `json:"userId"`
	Reason    string `json:"reason"`
	AppealURL string `json:"appealUrl,omitempty"`
}

// handleJoinChannel is the only inbound path with explicit rejection
// events: banned and invalid-token joins are answered and then the
// connection is closed, with no session state touched.
func (ctl *Controller) handleJoinChannel(ctx context.Context, c *WsConn, data json.RawMessage) {
	var p struct {
		JobID             string `json:"jobId"`
		Username          string `json:"username"`
		UserID            int64  `json:"userId"`
		PlaceID           int64  `json:"placeId"`
		CountryCode       string `json:"countryCode"`
		PreferredLanguage string `json:"preferredLanguage"`
		DMPublicKey       string `json:"dmPublicKey"`
		Token             string `json:"token"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.Username == "" {
		return
	}
	if err := domain.ValidateUsername(p.Username); err != nil {
		return
	}

	if ban, banned := ctl.Bans.Check(p.UserID); banned {
		ctl.sendEvent(c, "banned", bannedPayload{
			UserID:    p.UserID,
			Reason:    banReason(ban.Reason),
			AppealURL: ban.AppealURL,
		})
		c.Close()
		return
	}

	if p.UserID != 0 && p.Token != "" {
		if expected, ok := ctl.Tokens.Token(p.UserID); ok && expected != p.Token {
			ctl.sendEvent(c, "authFailed", map[string]any{
				"userId": p.UserID,
				"reason": "Invalid token",
			})
			c.Close()
			return
		}
	}

	// External enrichment happens before any session mutation; a slow
	// or failing lookup degrades to no avatar.
	avatarURL := ""
	if p.UserID != 0 && ctl.Avatars != nil {
		avatarURL = ctl.Avatars.HeadshotURL(ctx, p.UserID)
	}

	prevJob, prevUser, _ := c.binding()
	if prevJob != "" && prevUser != "" && (prevJob != p.JobID || !strings.EqualFold(prevUser, p.Username)) {
		ctl.Channels.RemoveParticipant(prevJob, prevUser)
		ctl.Presence.Leave(prevJob, prevUser)
		ctl.Presence.CancelDeparture(prevJob, prevUser)
		ctl.broadcastRoom(prevJob, "participantsChanged", participantsChangedPayload{
			JobID:        prevJob,
			Participants: ctl.Channels.Participants(prevJob),
		})
	}

	ch := ctl.Channels.GetOrCreate(p.JobID, p.Username, p.PlaceID)
	ch.Join(domain.Participant{
		Username:          p.Username,
		UserID:            p.UserID,
		AvatarURL:         avatarURL,
		CountryCode:       p.CountryCode,
		PreferredLanguage: p.PreferredLanguage,
		DMPublicKey:       p.DMPublicKey,
	})
	ctl.Presence.Bind(p.JobID, p.Username, p.UserID, c)
	c.setBinding(p.JobID, p.Username, p.UserID)

	ctl.sendEvent(c, "channelSnapshot", ch.Snapshot())
	ctl.broadcastRoom(p.JobID, "participantsChanged", participantsChangedPayload{
		JobID:        p.JobID,
		Participants: ch.Participants(),
	})
	log.Info().Str("module", "signal").Str("job", p.JobID).Str("username", p.Username).Msg("joined channel")
}

func banReason(reason string) string {
	if reason == "" {
		return "Banned"
	}
	return reason
}

func (ctl *Controller) handleUpdatePresence(c *WsConn, data json.RawMessage) {
	var p struct {
		JobID             string `json:"jobId"`
		Username          string `json:"username"`
		CountryCode       string `json:"countryCode"`
		PreferredLanguage string `json:"preferredLanguage"`
		DMPublicKey       string `json:"dmPublicKey"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.Username == "" {
		return
	}
	ch, ok := ctl.Channels.Get(p.JobID)
	if !ok {
		return
	}
	if !ch.UpdatePresence(p.Username, domain.Presence{
		CountryCode:       p.CountryCode,
		PreferredLanguage: p.PreferredLanguage,
		DMPublicKey:       p.DMPublicKey,
	}) {
		return
	}
	ctl.broadcastRoom(p.JobID, "participantsChanged", participantsChangedPayload{
		JobID:        p.JobID,
		Participants: ch.Participants(),
	})
}

func (ctl *Controller) handleNotifyTyping(c *WsConn, data json.RawMessage) {
	var p struct {
		JobID    string `json:"jobId"`
		Username string `json:"username"`
		IsTyping bool   `json:"isTyping"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.JobID == "" || p.Username == "" {
		return
	}
	ctl.Channels.SetTyping(p.JobID, p.Username, p.IsTyping)
	ctl.broadcastRoom(p.JobID, "typingIndicator", typingIndicatorPayload{
		JobID:     p.JobID,
		Usernames: ctl.Channels.Typing(p.JobID),
	})
}
