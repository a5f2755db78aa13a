package app

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pomsaddons/BloxCord/internal/core"
)

// DefaultGracePeriod is how long a disconnect may last before it counts
// as a departure.
const DefaultGracePeriod = 5 * time.Second

// Presence tracks which connection serves which user and channel
// binding, and owns the disconnect-grace timers. It is the only
// registry-wide structure besides the channel map; both change only on
// connection bind/unbind, so one coarse lock is enough.
type Presence struct {
	mu     sync.Mutex
	byUser map[int64]core.SignalConnection
	rooms  map[string]map[string]core.SignalConnection
	timers map[string]*time.Timer
	grace  time.Duration
}

func NewPresence(grace time.Duration) *Presence {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Presence{
		byUser: make(map[int64]core.SignalConnection),
		rooms:  make(map[string]map[string]core.SignalConnection),
		timers: make(map[string]*time.Timer),
		grace:  grace,
	}
}

func graceKey(jobID, username string) string {
	return jobID + ":" + strings.ToLower(username)
}

// Bind registers the connection under the room group and, when an
// identity is known, under the user map. A pending departure timer for
// the same (channel, username) is cancelled so a rejoin within the
// grace window produces no churn.
func (p *Presence) Bind(jobID, username string, userID int64, conn core.SignalConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if userID != 0 {
		p.byUser[userID] = conn
	}
	room := p.rooms[jobID]
	if room == nil {
		room = make(map[string]core.SignalConnection)
		p.rooms[jobID] = room
	}
	room[strings.ToLower(username)] = conn

	key := graceKey(jobID, username)
	if timer, ok := p.timers[key]; ok {
		timer.Stop()
		delete(p.timers, key)
		log.Debug().Str("module", "app.presence").Str("key", key).Msg("departure cancelled by rejoin")
	}
}

// Leave drops the connection from its room group only; the user map
// entry survives so DMs keep routing during a channel switch.
func (p *Presence) Leave(jobID, username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if room, ok := p.rooms[jobID]; ok {
		delete(room, strings.ToLower(username))
		if len(room) == 0 {
			delete(p.rooms, jobID)
		}
	}
}

// DropUser unbinds the identity, but only when it still points at the
// given connection; a reconnect that already rebound wins.
func (p *Presence) DropUser(userID int64, conn core.SignalConnection) {
	if userID == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.byUser[userID]; ok && current == conn {
		delete(p.byUser, userID)
	}
}

func (p *Presence) UserConn(userID int64) (core.SignalConnection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	conn, ok := p.byUser[userID]
	return conn, ok
}

func (p *Presence) ParticipantConn(jobID, username string) (core.SignalConnection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	room, ok := p.rooms[jobID]
	if !ok {
		return nil, false
	}
	conn, ok := room[strings.ToLower(username)]
	return conn, ok
}

// RoomConns returns a snapshot of the room group for fan-out.
func (p *Presence) RoomConns(jobID string) []core.SignalConnection {
	p.mu.Lock()
	defer p.mu.Unlock()
	room := p.rooms[jobID]
	out := make([]core.SignalConnection, 0, len(room))
	for _, conn := range room {
		out = append(out, conn)
	}
	return out
}

// ScheduleDeparture arms the grace timer for (channel, username). A
// second disconnect for the same key replaces the pending timer rather
// than stacking. fire runs once, after the timer self-clears.
func (p *Presence) ScheduleDeparture(jobID, username string, fire func()) {
	key := graceKey(jobID, username)
	p.mu.Lock()
	defer p.mu.Unlock()
	if timer, ok := p.timers[key]; ok {
		timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(p.grace, func() {
		p.mu.Lock()
		current, ok := p.timers[key]
		if !ok || current != t {
			// Replaced or cancelled while this callback was in flight.
			p.mu.Unlock()
			return
		}
		delete(p.timers, key)
		p.mu.Unlock()
		log.Debug().Str("module", "app.presence").Str("key", key).Msg("departure grace expired")
		fire()
	})
	p.timers[key] = t
}

// CancelDeparture stops a pending grace timer, reporting whether one
// was armed.
func (p *Presence) CancelDeparture(jobID, username string) bool {
	key := graceKey(jobID, username)
	p.mu.Lock()
	defer p.mu.Unlock()
	if timer, ok := p.timers[key]; ok {
		timer.Stop()
		delete(p.timers, key)
		return true
	}
	return false
}
