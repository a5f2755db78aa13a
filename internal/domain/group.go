package domain

import (
	"time"

	"github.com/google/uuid"
)

// Group is a private multi-user DM thread, independent of any channel.
type Group struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	CreatedBy    int64     `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	Participants []int64   `json:"participants"`
}

type GroupMessage struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewGroup(createdBy int64, participants []int64, name string) Group {
	members := append([]int64{createdBy}, participants...)
	seen := make(map[int64]struct{}, len(members))
	unique := members[:0]
	for _, id := range members {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return Group{
		ID:           uuid.NewString(),
		Name:         name,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now().UTC(),
		Participants: unique,
	}
}
