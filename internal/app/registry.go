package app

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pomsaddons/BloxCord/internal/core"
	"github.com/pomsaddons/BloxCord/internal/domain"
)

// maxAvatarSamples caps the avatar references per server summary.
const maxAvatarSamples = 4

// ChannelRegistry maps job ids to live channel sessions. Channels are
// created on first join and live for the process lifetime. The registry
// lock only guards the map itself; per-channel mutations run under the
// channel's own lock.
type ChannelRegistry struct {
	mu           sync.RWMutex
	channels     map[string]*core.Channel
	historyLimit int
}

func NewChannelRegistry(historyLimit int) *ChannelRegistry {
	return &ChannelRegistry{
		channels:     make(map[string]*core.Channel),
		historyLimit: historyLimit,
	}
}

// GetOrCreate resolves the channel for jobID, creating it on first
// join with the joining user recorded as creator.
func (r *ChannelRegistry) GetOrCreate(jobID, createdBy string, placeID int64) *core.Channel {
	r.mu.RLock()
	ch, ok := r.channels[jobID]
	r.mu.RUnlock()
	if ok {
		return ch
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok = r.channels[jobID]; ok {
		return ch
	}
	ch = core.NewChannel(jobID, createdBy, placeID, r.historyLimit)
	r.channels[jobID] = ch
	log.Info().Str("module", "app.registry").Str("job", jobID).Int64("place", placeID).Msg("channel created")
	return ch
}

func (r *ChannelRegistry) Get(jobID string) (*core.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[jobID]
	return ch, ok
}

func (r *ChannelRegistry) RemoveParticipant(jobID, username string) {
	if ch, ok := r.Get(jobID); ok {
		ch.RemoveParticipant(username)
	}
}

func (r *ChannelRegistry) SetTyping(jobID, username string, isTyping bool) {
	if ch, ok := r.Get(jobID); ok {
		ch.SetTyping(username, isTyping)
	}
}

func (r *ChannelRegistry) Participants(jobID string) []domain.Participant {
	if ch, ok := r.Get(jobID); ok {
		return ch.Participants()
	}
	return []domain.Participant{}
}

func (r *ChannelRegistry) Typing(jobID string) []string {
	if ch, ok := r.Get(jobID); ok {
		return ch.Typing()
	}
	return []string{}
}

func (r *ChannelRegistry) snapshot() []*core.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	return out
}

// Games folds all channels that declared a place id into discovery
// groups ordered by descending server count. The aggregation is pure
// over in-memory state; name and icon enrichment is the caller's job.
func (r *ChannelRegistry) Games() []domain.GameGroup {
	groups := make(map[int64]*domain.GameGroup)
	for _, ch := range r.snapshot() {
		if ch.PlaceID == 0 {
			continue
		}
		group, ok := groups[ch.PlaceID]
		if !ok {
			group = &domain.GameGroup{PlaceID: ch.PlaceID}
			groups[ch.PlaceID] = group
		}
		participants := ch.Participants()
		avatars := make([]string, 0, maxAvatarSamples)
		for _, p := range participants {
			if p.AvatarURL == "" {
				continue
			}
			avatars = append(avatars, p.AvatarURL)
			if len(avatars) == maxAvatarSamples {
				break
			}
		}
		group.ServerCount++
		group.PlayerCount += len(participants)
		group.Servers = append(group.Servers, domain.ServerSummary{
			JobID:       ch.JobID,
			PlayerCount: len(participants),
			AvatarURLs:  avatars,
		})
	}

	out := make([]domain.GameGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ServerCount != out[j].ServerCount {
			return out[i].ServerCount > out[j].ServerCount
		}
		return out[i].PlaceID < out[j].PlaceID
	})
	return out
}

// SearchUsers matches participants of every channel by case-insensitive
// username substring, deduplicated by username. The caller's own
// channel is skipped so results point to people elsewhere.
func (r *ChannelRegistry) SearchUsers(query, excludeJobID string) []domain.UserSearchResult {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []domain.UserSearchResult{}
	}

	seen := make(map[string]struct{})
	out := []domain.UserSearchResult{}
	for _, ch := range r.snapshot() {
		if ch.JobID == excludeJobID || strings.HasPrefix(ch.JobID, "-") {
			continue
		}
		for _, p := range ch.Participants() {
			key := strings.ToLower(p.Username)
			if _, dup := seen[key]; dup {
				continue
			}
			if !strings.Contains(key, needle) {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, domain.UserSearchResult{
				Username:  p.Username,
				UserID:    p.UserID,
				AvatarURL: p.AvatarURL,
				JobID:     ch.JobID,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}
