package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reaction is one emoji bucket on a message.
type Reaction struct {
	Usernames []string `json:"usernames"`
	UserIDs   []int64  `json:"userIds"`
}

// ChatMessage is one entry of a channel's history.
// The id is stable for the lifetime of the entry; edits, deletes and
// reactions replace the stored value but never the id or its position.
type ChatMessage struct {
	ID        string     `json:"id"`
	JobID     string     `json:"jobId"`
	Username  string     `json:"username"`
	UserID    int64      `json:"userId,omitempty"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	ReplyToID string     `json:"replyToId,omitempty"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	IsSystem  bool       `json:"isSystem,omitempty"`

	Reactions map[string]Reaction `json:"reactions,omitempty"`
}

// NewChatMessage avoids ad-hoc struct literals in adapters.
func NewChatMessage(jobID, username string, userID int64, content, avatarURL, replyToID string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Username:  username,
		UserID:    userID,
		Content:   content,
		Timestamp: time.Now().UTC(),
		AvatarURL: avatarURL,
		ReplyToID: replyToID,
	}
}

// Clone returns a deep copy, so callers can hand messages out of the
// ledger without sharing reaction maps.
func (m ChatMessage) Clone() ChatMessage {
	out := m
	if m.Reactions != nil {
		out.Reactions = make(map[string]Reaction, len(m.Reactions))
		for emoji, r := range m.Reactions {
			out.Reactions[emoji] = Reaction{
				Usernames: append([]string(nil), r.Usernames...),
				UserIDs:   append([]int64(nil), r.UserIDs...),
			}
		}
	}
	return out
}
