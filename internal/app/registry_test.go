package app

import (
	"fmt"
	"testing"

	"github.com/pomsaddons/BloxCord/internal/domain"
)

func seedChannel(r *ChannelRegistry, jobID string, placeID int64, players int) {
	ch := r.GetOrCreate(jobID, "creator", placeID)
	for i := 0; i < players; i++ {
		ch.Join(domain.Participant{
			Username:  fmt.Sprintf("%s-player%d", jobID, i),
			AvatarURL: fmt.Sprintf("http://a/%s-%d.png", jobID, i),
		})
	}
}

func TestGetOrCreateReusesChannel(t *testing.T) {
	r := NewChannelRegistry(0)
	first := r.GetOrCreate("J1", "alice", 7)
	second := r.GetOrCreate("J1", "bob", 9)
	if first != second {
		t.Fatal("same job id must resolve to one channel")
	}
	if second.CreatedBy != "alice" || second.PlaceID != 7 {
		t.Fatalf("later joins must not rewrite creation metadata: %+v", second)
	}
}

func TestGamesGroupsAndOrders(t *testing.T) {
	r := NewChannelRegistry(0)
	seedChannel(r, "J1", 100, 2)
	seedChannel(r, "J2", 100, 3)
	seedChannel(r, "J3", 200, 6)
	seedChannel(r, "J4", 0, 4) // no place id, stays out of discovery

	games := r.Games()
	if len(games) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(games))
	}
	if games[0].PlaceID != 100 || games[0].ServerCount != 2 || games[0].PlayerCount != 5 {
		t.Fatalf("group with more servers should sort first: %+v", games[0])
	}
	if games[1].PlaceID != 200 || games[1].ServerCount != 1 || games[1].PlayerCount != 6 {
		t.Fatalf("second group wrong: %+v", games[1])
	}
}

func TestGamesCapsAvatarSamples(t *testing.T) {
	r := NewChannelRegistry(0)
	seedChannel(r, "J1", 100, 9)

	games := r.Games()
	if len(games) != 1 || len(games[0].Servers) != 1 {
		t.Fatalf("unexpected shape: %+v", games)
	}
	server := games[0].Servers[0]
	if server.PlayerCount != 9 {
		t.Fatalf("player count = %d", server.PlayerCount)
	}
	if len(server.AvatarURLs) != maxAvatarSamples {
		t.Fatalf("avatar samples = %d, want %d", len(server.AvatarURLs), maxAvatarSamples)
	}
}

func TestSearchUsersExcludesOwnChannelAndDMs(t *testing.T) {
	r := NewChannelRegistry(0)
	r.GetOrCreate("J1", "alice", 0).Join(domain.Participant{Username: "SearchMe"})
	r.GetOrCreate("J2", "bob", 0).Join(domain.Participant{Username: "searchme2"})
	r.GetOrCreate("-42", "dm", 0).Join(domain.Participant{Username: "searchme3"})

	results := r.SearchUsers("search", "J1")
	if len(results) != 1 {
		t.Fatalf("expected only the other public channel to match: %+v", results)
	}
	if results[0].Username != "searchme2" || results[0].JobID != "J2" {
		t.Fatalf("unexpected result: %+v", results[0])
	}
}

func TestSearchUsersDeduplicatesByUsername(t *testing.T) {
	r := NewChannelRegistry(0)
	r.GetOrCreate("J1", "a", 0).Join(domain.Participant{Username: "Dup"})
	r.GetOrCreate("J2", "b", 0).Join(domain.Participant{Username: "dup"})

	results := r.SearchUsers("dup", "")
	if len(results) != 1 {
		t.Fatalf("case variants of one username should collapse: %+v", results)
	}
}

func TestSearchUsersEmptyQuery(t *testing.T) {
	r := NewChannelRegistry(0)
	r.GetOrCreate("J1", "a", 0).Join(domain.Participant{Username: "alice"})
	if got := r.SearchUsers("   ", ""); len(got) != 0 {
		t.Fatalf("blank query should match nothing, got %+v", got)
	}
}
