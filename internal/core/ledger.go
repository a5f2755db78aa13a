package core

import (
	"time"

	"github.com/pomsaddons/BloxCord/internal/domain"
)

// DefaultHistoryLimit bounds a channel's message history.
const DefaultHistoryLimit = 100

// Ledger is a bounded ordered message log with an id index and an
// author-token binding per entry. Mutations replace the stored value at
// its existing position; ids and ordering never change. The Ledger has
// no lock of its own, it is owned by a Channel.
type Ledger struct {
	limit   int
	history []*domain.ChatMessage
	byID    map[string]*domain.ChatMessage
	tokens  map[string]string
}

func NewLedger(limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Ledger{
		limit:  limit,
		byID:   make(map[string]*domain.ChatMessage),
		tokens: make(map[string]string),
	}
}

func (l *Ledger) Len() int { return len(l.history) }

// Append inserts at the tail and evicts the oldest entries past the
// limit. Eviction drops the id index and the token binding together.
func (l *Ledger) Append(msg domain.ChatMessage, authorToken string) {
	entry := msg.Clone()
	l.history = append(l.history, &entry)
	l.byID[entry.ID] = &entry
	if authorToken != "" {
		l.tokens[entry.ID] = authorToken
	}

	for len(l.history) > l.limit {
		oldest := l.history[0]
		l.history = l.history[1:]
		delete(l.byID, oldest.ID)
		delete(l.tokens, oldest.ID)
	}
}

func (l *Ledger) Get(id string) (domain.ChatMessage, bool) {
	entry, ok := l.byID[id]
	if !ok {
		return domain.ChatMessage{}, false
	}
	return entry.Clone(), true
}

// AuthorToken returns the token bound at append time, if any.
func (l *Ledger) AuthorToken(id string) string { return l.tokens[id] }

// MessagePatch mutates content and edit/delete stamps; nil fields are
// left untouched.
type MessagePatch struct {
	Content   *string
	EditedAt  *time.Time
	DeletedAt *time.Time
}

// Apply replaces the entry in place. A delete keeps the entry: content
// goes empty, DeletedAt is set, and the id stays retrievable.
func (l *Ledger) Apply(id string, patch MessagePatch) (domain.ChatMessage, bool) {
	entry, ok := l.byID[id]
	if !ok {
		return domain.ChatMessage{}, false
	}
	if patch.Content != nil {
		entry.Content = *patch.Content
	}
	if patch.EditedAt != nil {
		entry.EditedAt = patch.EditedAt
	}
	if patch.DeletedAt != nil {
		entry.DeletedAt = patch.DeletedAt
	}
	return entry.Clone(), true
}

// AddReaction is idempotent per (emoji, actor).
func (l *Ledger) AddReaction(id, emoji, username string, userID int64) (domain.ChatMessage, bool) {
	entry, ok := l.byID[id]
	if !ok {
		return domain.ChatMessage{}, false
	}
	if entry.Reactions == nil {
		entry.Reactions = make(map[string]domain.Reaction)
	}
	bucket := entry.Reactions[emoji]
	if !containsString(bucket.Usernames, username) {
		bucket.Usernames = append(bucket.Usernames, username)
	}
	if userID != 0 && !containsInt64(bucket.UserIDs, userID) {
		bucket.UserIDs = append(bucket.UserIDs, userID)
	}
	entry.Reactions[emoji] = bucket
	return entry.Clone(), true
}

// RemoveReaction drops the actor from the emoji bucket; removing the
// last actor removes the emoji key entirely.
func (l *Ledger) RemoveReaction(id, emoji, username string, userID int64) (domain.ChatMessage, bool) {
	entry, ok := l.byID[id]
	if !ok {
		return domain.ChatMessage{}, false
	}
	bucket, ok := entry.Reactions[emoji]
	if !ok {
		return domain.ChatMessage{}, false
	}

	bucket.Usernames = removeString(bucket.Usernames, username)
	if userID != 0 {
		bucket.UserIDs = removeInt64(bucket.UserIDs, userID)
	}

	if len(bucket.Usernames) == 0 && len(bucket.UserIDs) == 0 {
		delete(entry.Reactions, emoji)
	} else {
		entry.Reactions[emoji] = bucket
	}
	return entry.Clone(), true
}

// History returns a defensive copy in insertion order.
func (l *Ledger) History() []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(l.history))
	for _, entry := range l.history {
		out = append(out, entry.Clone())
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt64(list []int64, v int64) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func removeInt64(list []int64, v int64) []int64 {
	out := list[:0]
	for _, n := range list {
		if n != v {
			out = append(out, n)
		}
	}
	return out
}
