// Package auth holds the pluggable authorization providers: the ban
// list and the bearer-token store. Both read externally-owned files
// whose shape is fixed by the deployment, not by this server.
package auth

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// Ban describes why an identity is rejected.
type Ban struct {
	Reason    string `json:"reason,omitempty"`
	AppealURL string `json:"appealUrl,omitempty"`
}

type banFile struct {
	AppealURL       string            `json:"appealUrl,omitempty"`
	BannedUserIDs   []int64           `json:"bannedUserIds,omitempty"`
	ReasonsByUserID map[string]string `json:"reasonsByUserId,omitempty"`
}

// BanList answers ban lookups by numeric identity. A missing or
// unreadable file means nobody is banned.
type BanList struct {
	mu        sync.RWMutex
	path      string
	appealURL string
	reasons   map[int64]string
}

func NewBanList(path string) *BanList {
	b := &BanList{path: path, reasons: make(map[int64]string)}
	if err := b.Reload(); err != nil {
		log.Warn().Err(err).Str("module", "auth.bans").Str("path", path).Msg("ban list not loaded, treating as empty")
	}
	return b
}

// Reload re-reads the ban file. The previous list stays active on
// parse errors.
func (b *BanList) Reload() error {
	raw, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		b.mu.Lock()
		b.appealURL = ""
		b.reasons = make(map[int64]string)
		b.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}
	var file banFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return err
	}

	reasons := make(map[int64]string, len(file.BannedUserIDs))
	for _, id := range file.BannedUserIDs {
		reasons[id] = file.ReasonsByUserID[strconv.FormatInt(id, 10)]
	}
	b.mu.Lock()
	b.appealURL = file.AppealURL
	b.reasons = reasons
	b.mu.Unlock()
	log.Info().Str("module", "auth.bans").Int("banned", len(reasons)).Msg("ban list loaded")
	return nil
}

// Check reports whether the identity is banned. The zero identity is
// anonymous and never banned.
func (b *BanList) Check(userID int64) (Ban, bool) {
	if userID == 0 {
		return Ban{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	reason, banned := b.reasons[userID]
	if !banned {
		return Ban{}, false
	}
	return Ban{Reason: reason, AppealURL: b.appealURL}, true
}
