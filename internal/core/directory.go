package core

import (
	"strings"

	"github.com/pomsaddons/BloxCord/internal/domain"
)

// Directory is a channel's membership set. Usernames are unique
// case-insensitively; the display form first seen is preserved. Like
// the Ledger it carries no lock, the owning Channel serializes access.
type Directory struct {
	byKey  map[string]*domain.Participant
	order  []string
	typing map[string]string // key -> display form
}

func NewDirectory() *Directory {
	return &Directory{
		byKey:  make(map[string]*domain.Participant),
		typing: make(map[string]string),
	}
}

func participantKey(username string) string { return strings.ToLower(username) }

func (d *Directory) Len() int { return len(d.byKey) }

// Upsert adds or refreshes a participant. Existing entries are merged:
// set fields win, empty ones keep the previous value. The typing flag
// is never touched here, only through SetTyping.
func (d *Directory) Upsert(p domain.Participant) {
	key := participantKey(p.Username)
	existing, ok := d.byKey[key]
	if !ok {
		entry := p
		entry.IsTyping = false
		d.byKey[key] = &entry
		d.order = append(d.order, key)
		return
	}
	if p.UserID != 0 {
		existing.UserID = p.UserID
	}
	if p.AvatarURL != "" {
		existing.AvatarURL = p.AvatarURL
	}
	if p.CountryCode != "" {
		existing.CountryCode = p.CountryCode
	}
	if p.PreferredLanguage != "" {
		existing.PreferredLanguage = p.PreferredLanguage
	}
	if p.DMPublicKey != "" {
		existing.DMPublicKey = p.DMPublicKey
	}
}

func (d *Directory) Remove(username string) bool {
	key := participantKey(username)
	if _, ok := d.byKey[key]; !ok {
		return false
	}
	delete(d.byKey, key)
	delete(d.typing, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

func (d *Directory) Get(username string) (domain.Participant, bool) {
	entry, ok := d.byKey[participantKey(username)]
	if !ok {
		return domain.Participant{}, false
	}
	return *entry, true
}

// UpdatePresence merges the refreshable attributes of an existing
// participant; unknown usernames are ignored.
func (d *Directory) UpdatePresence(username string, p domain.Presence) bool {
	entry, ok := d.byKey[participantKey(username)]
	if !ok {
		return false
	}
	if p.CountryCode != "" {
		entry.CountryCode = p.CountryCode
	}
	if p.PreferredLanguage != "" {
		entry.PreferredLanguage = p.PreferredLanguage
	}
	if p.DMPublicKey != "" {
		entry.DMPublicKey = p.DMPublicKey
	}
	return true
}

// List returns participants in join order.
func (d *Directory) List() []domain.Participant {
	out := make([]domain.Participant, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, *d.byKey[key])
	}
	return out
}

func (d *Directory) SetTyping(username string, isTyping bool) bool {
	key := participantKey(username)
	entry, ok := d.byKey[key]
	if !ok {
		return false
	}
	entry.IsTyping = isTyping
	if isTyping {
		d.typing[key] = entry.Username
	} else {
		delete(d.typing, key)
	}
	return true
}

func (d *Directory) Typing() []string {
	out := make([]string, 0, len(d.typing))
	for _, key := range d.order {
		if name, ok := d.typing[key]; ok {
			out = append(out, name)
		}
	}
	return out
}
