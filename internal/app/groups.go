package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pomsaddons/BloxCord/internal/domain"
)

// GroupRegistry holds private multi-user DM threads. Groups live for
// the process lifetime, like channels.
type GroupRegistry struct {
	mu     sync.RWMutex
	groups map[string]*domain.Group
}

func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{groups: make(map[string]*domain.Group)}
}

func (g *GroupRegistry) Create(createdBy int64, participants []int64, name string) domain.Group {
	group := domain.NewGroup(createdBy, participants, name)
	g.mu.Lock()
	g.groups[group.ID] = &group
	g.mu.Unlock()
	return group
}

func (g *GroupRegistry) Get(id string) (domain.Group, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	group, ok := g.groups[id]
	if !ok {
		return domain.Group{}, false
	}
	return *group, true
}

// ForUser lists every group the identity belongs to.
func (g *GroupRegistry) ForUser(userID int64) []domain.Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := []domain.Group{}
	for _, group := range g.groups {
		for _, id := range group.Participants {
			if id == userID {
				out = append(out, *group)
				break
			}
		}
	}
	return out
}

// Post builds a message for the group when the sender is a member;
// non-members get nothing, matching the silent-drop policy.
func (g *GroupRegistry) Post(groupID string, userID int64, username, content string) (domain.GroupMessage, bool) {
	group, ok := g.Get(groupID)
	if !ok {
		return domain.GroupMessage{}, false
	}
	member := false
	for _, id := range group.Participants {
		if id == userID {
			member = true
			break
		}
	}
	if !member {
		return domain.GroupMessage{}, false
	}
	return domain.GroupMessage{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		UserID:    userID,
		Username:  username,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}, true
}
