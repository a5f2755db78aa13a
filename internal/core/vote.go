package core

import "strings"

// Quorum is the majority threshold for a room of n participants.
// It is evaluated against the population at ballot time, never frozen
// at vote start; a room that shrinks mid-vote only reaches quorum on
// the next cast.
func Quorum(n int) int { return n/2 + 1 }

// ballot is a single-candidate vote. Casting for a different candidate
// discards all prior progress; at most one candidate is live per kind.
type ballot struct {
	candidate string
	voters    map[string]struct{}
}

// cast registers voter for candidate and reports whether quorum was
// reached against participants. Re-voting by the same user is a no-op
// for the count.
func (b *ballot) cast(candidate, voter string, participants int) bool {
	if b.candidate != candidate || b.voters == nil {
		b.candidate = candidate
		b.voters = make(map[string]struct{})
	}
	b.voters[voter] = struct{}{}
	return len(b.voters) >= Quorum(participants)
}

func (b *ballot) active() bool { return b.voters != nil }

func (b *ballot) reset() {
	b.candidate = ""
	b.voters = nil
}

func (b *ballot) voterList() []string {
	out := make([]string, 0, len(b.voters))
	for v := range b.voters {
		out = append(out, v)
	}
	return out
}

// DefaultLanguageCode is the room language before any vote passes.
const DefaultLanguageCode = "en"

// languageTally is the multi-candidate variant: every participant holds
// at most one live ballot and recasting moves it between buckets.
type languageTally struct {
	current string
	byCode  map[string]map[string]struct{}
	byVoter map[string]string
}

func newLanguageTally() *languageTally {
	return &languageTally{
		current: DefaultLanguageCode,
		byCode:  make(map[string]map[string]struct{}),
		byVoter: make(map[string]string),
	}
}

// cast normalizes code, moves the voter's ballot, then checks every
// bucket against quorum. The first qualifying bucket wins and all
// buckets are cleared; with several qualifying at once the winner
// follows map iteration order, which is not deterministic.
func (t *languageTally) cast(code, voter string, participants int) (changed bool) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if normalized == "" {
		return false
	}

	if prev, ok := t.byVoter[voter]; ok {
		if set := t.byCode[prev]; set != nil {
			delete(set, voter)
			if len(set) == 0 {
				delete(t.byCode, prev)
			}
		}
	}

	t.byVoter[voter] = normalized
	bucket := t.byCode[normalized]
	if bucket == nil {
		bucket = make(map[string]struct{})
		t.byCode[normalized] = bucket
	}
	bucket[voter] = struct{}{}

	needed := Quorum(participants)
	for code, voters := range t.byCode {
		if len(voters) >= needed {
			t.current = code
			t.byCode = make(map[string]map[string]struct{})
			t.byVoter = make(map[string]string)
			return true
		}
	}
	return false
}

func (t *languageTally) votes() map[string][]string {
	out := make(map[string][]string, len(t.byCode))
	for code, voters := range t.byCode {
		list := make([]string, 0, len(voters))
		for v := range voters {
			list = append(list, v)
		}
		out[code] = list
	}
	return out
}
