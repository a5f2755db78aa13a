package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pomsaddons/BloxCord/internal/domain"
)

// PinVote is the read-only view of an in-flight pin vote.
type PinVote struct {
	MessageID string   `json:"messageId"`
	Voters    []string `json:"voters"`
}

// KickVote is the read-only view of an in-flight kick vote.
type KickVote struct {
	TargetUsername string   `json:"targetUsername"`
	Voters         []string `json:"voters"`
}

type PinResult struct {
	PinnedMessageID string
	Vote            *PinVote
	PinnedNow       bool
}

type KickResult struct {
	KickedNow bool
	Vote      *KickVote
}

type LanguageResult struct {
	Code       string
	ChangedNow bool
	Votes      map[string][]string
}

// Snapshot is the full session state handed to a joining connection.
type Snapshot struct {
	JobID           string               `json:"jobId"`
	CreatedAt       time.Time            `json:"createdAt"`
	CreatedBy       string               `json:"createdBy"`
	History         []domain.ChatMessage `json:"history"`
	Participants    []domain.Participant `json:"participants"`
	PinnedMessageID string               `json:"pinnedMessageId,omitempty"`
	ActivePinVote   *PinVote             `json:"activePinVote,omitempty"`
	ActiveKickVote  *KickVote            `json:"activeKickVote,omitempty"`
	LanguageCode    string               `json:"languageCode"`
}

// Channel is one session: ledger, directory, votes and typing state
// under a single lock. Each channel is mutated only under its own
// mutex; the registry lock is never held across these calls.
type Channel struct {
	JobID     string
	PlaceID   int64
	CreatedBy string
	CreatedAt time.Time

	mu       sync.RWMutex
	ledger   *Ledger
	dir      *Directory
	pinnedID string
	pinVote  ballot
	kickVote ballot
	language *languageTally
}

func NewChannel(jobID, createdBy string, placeID int64, historyLimit int) *Channel {
	return &Channel{
		JobID:     jobID,
		PlaceID:   placeID,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		ledger:    NewLedger(historyLimit),
		dir:       NewDirectory(),
		language:  newLanguageTally(),
	}
}

func (c *Channel) Join(p domain.Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dir.Upsert(p)
	log.Debug().Str("module", "core.channel").Str("job", c.JobID).Str("username", p.Username).Msg("participant joined")
}

func (c *Channel) RemoveParticipant(username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := c.dir.Remove(username)
	if removed {
		log.Debug().Str("module", "core.channel").Str("job", c.JobID).Str("username", username).Msg("participant removed")
	}
	return removed
}

func (c *Channel) Participant(username string) (domain.Participant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dir.Get(username)
}

func (c *Channel) Participants() []domain.Participant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dir.List()
}

func (c *Channel) ParticipantCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dir.Len()
}

func (c *Channel) UpdatePresence(username string, p domain.Presence) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dir.UpdatePresence(username, p)
}

func (c *Channel) SetTyping(username string, isTyping bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dir.SetTyping(username, isTyping)
}

func (c *Channel) Typing() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dir.Typing()
}

func (c *Channel) AppendMessage(msg domain.ChatMessage, authorToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ledger.Append(msg, authorToken)
}

func (c *Channel) Message(id string) (domain.ChatMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.Get(id)
}

func (c *Channel) History() []domain.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.History()
}

// authorized reports whether the actor may mutate the message. A
// token-bound message requires the exact token; otherwise a best-effort
// author match on user id or username applies.
func (c *Channel) authorized(existing domain.ChatMessage, username string, userID int64, token string) bool {
	if expected := c.ledger.AuthorToken(existing.ID); expected != "" {
		return token == expected
	}
	if existing.UserID != 0 && userID != 0 && existing.UserID == userID {
		return true
	}
	return existing.Username == username
}

// EditMessage replaces the content in place when the actor is
// authorized. Unauthorized or unknown ids return false with no event.
func (c *Channel) EditMessage(id, username string, userID int64, token, content string) (domain.ChatMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.ledger.Get(id)
	if !ok || !c.authorized(existing, username, userID, token) {
		return domain.ChatMessage{}, false
	}
	now := time.Now().UTC()
	return c.ledger.Apply(id, MessagePatch{Content: &content, EditedAt: &now})
}

// DeleteMessage empties the content and stamps DeletedAt; the entry
// keeps its id and position.
func (c *Channel) DeleteMessage(id, username string, userID int64, token string) (domain.ChatMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.ledger.Get(id)
	if !ok || !c.authorized(existing, username, userID, token) {
		return domain.ChatMessage{}, false
	}
	now := time.Now().UTC()
	empty := ""
	return c.ledger.Apply(id, MessagePatch{Content: &empty, DeletedAt: &now})
}

func (c *Channel) AddReaction(id, emoji, username string, userID int64) (domain.ChatMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.AddReaction(id, emoji, username, userID)
}

func (c *Channel) RemoveReaction(id, emoji, username string, userID int64) (domain.ChatMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.RemoveReaction(id, emoji, username, userID)
}

// VotePin casts a pin ballot for a known message. Quorum pins the
// message and clears the vote.
func (c *Channel) VotePin(messageID, voter string) (PinResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ledger.Get(messageID); !ok {
		return PinResult{}, false
	}
	reached := c.pinVote.cast(messageID, voter, c.dir.Len())
	if reached {
		c.pinnedID = messageID
		c.pinVote.reset()
		log.Info().Str("module", "core.channel").Str("job", c.JobID).Str("message_id", messageID).Msg("message pinned")
	}
	return PinResult{
		PinnedMessageID: c.pinnedID,
		Vote:            c.pinVoteView(),
		PinnedNow:       reached,
	}, true
}

// VoteKick casts a kick ballot. Quorum clears the vote and reports
// KickedNow; the caller performs the removal and fan-out.
func (c *Channel) VoteKick(targetUsername, voter string) KickResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	reached := c.kickVote.cast(targetUsername, voter, c.dir.Len())
	if reached {
		c.kickVote.reset()
		log.Info().Str("module", "core.channel").Str("job", c.JobID).Str("target", targetUsername).Msg("kick vote passed")
	}
	return KickResult{KickedNow: reached, Vote: c.kickVoteView()}
}

func (c *Channel) VoteLanguage(code, voter string) LanguageResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.language.cast(code, voter, c.dir.Len())
	if changed {
		log.Info().Str("module", "core.channel").Str("job", c.JobID).Str("language", c.language.current).Msg("room language changed")
	}
	return LanguageResult{
		Code:       c.language.current,
		ChangedNow: changed,
		Votes:      c.language.votes(),
	}
}

func (c *Channel) PinnedMessageID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pinnedID
}

func (c *Channel) LanguageCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language.current
}

func (c *Channel) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		JobID:           c.JobID,
		CreatedAt:       c.CreatedAt,
		CreatedBy:       c.CreatedBy,
		History:         c.ledger.History(),
		Participants:    c.dir.List(),
		PinnedMessageID: c.pinnedID,
		ActivePinVote:   c.pinVoteView(),
		ActiveKickVote:  c.kickVoteView(),
		LanguageCode:    c.language.current,
	}
}

func (c *Channel) pinVoteView() *PinVote {
	if !c.pinVote.active() {
		return nil
	}
	return &PinVote{MessageID: c.pinVote.candidate, Voters: c.pinVote.voterList()}
}

func (c *Channel) kickVoteView() *KickVote {
	if !c.kickVote.active() {
		return nil
	}
	return &KickVote{TargetUsername: c.kickVote.candidate, Voters: c.kickVote.voterList()}
}
