package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleGetGames(c *WsConn) {
	ctl.sendEvent(c, "gamesList", ctl.Channels.Games())
}

func (ctl *Controller) handleSearchUsers(c *WsConn, data json.RawMessage) {
	var p struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	jobID, _, _ := c.binding()
	ctl.sendEvent(c, "searchResults", ctl.Channels.SearchUsers(p.Query, jobID))
}

// handleMintToken issues (or re-issues) the bearer token for the
// identity bound at join time. Banned identities are rejected the same
// way a join is.
func (ctl *Controller) handleMintToken(c *WsConn) {
	_, _, userID := c.binding()
	if userID == 0 {
		return
	}

	if ban, banned := ctl.Bans.Check(userID); banned {
		ctl.sendEvent(c, "banned", bannedPayload{
			UserID:    userID,
			Reason:    banReason(ban.Reason),
			AppealURL: ban.AppealURL,
		})
		c.Close()
		return
	}

	token, err := ctl.Tokens.GetOrCreate(userID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Int64("user", userID).Msg("mint token")
		return
	}
	ctl.sendEvent(c, "tokenMinted", struct {
		UserID int64  `json:"userId"`
		Token  string `json:"token"`
	}{userID, token})
}
