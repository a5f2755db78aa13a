package core

import (
	"fmt"
	"testing"

	"github.com/pomsaddons/BloxCord/internal/domain"
)

func mkMessage(id, username, content string) domain.ChatMessage {
	msg := domain.NewChatMessage("J1", username, 0, content, "", "")
	if id != "" {
		msg.ID = id
	}
	return msg
}

func TestLedgerCapacityEvictsOldestWithToken(t *testing.T) {
	l := NewLedger(100)
	for i := 0; i < 100; i++ {
		l.Append(mkMessage(fmt.Sprintf("m%d", i), "alice", "hi"), fmt.Sprintf("tok%d", i))
	}
	if l.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", l.Len())
	}

	l.Append(mkMessage("m100", "alice", "overflow"), "tok100")

	if l.Len() != 100 {
		t.Fatalf("expected ledger to stay at 100 entries, got %d", l.Len())
	}
	if _, ok := l.Get("m0"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if tok := l.AuthorToken("m0"); tok != "" {
		t.Fatalf("evicted entry kept its token binding: %q", tok)
	}
	if _, ok := l.Get("m100"); !ok {
		t.Fatal("newest entry missing after eviction")
	}
	history := l.History()
	if history[0].ID != "m1" {
		t.Fatalf("expected m1 at head after eviction, got %s", history[0].ID)
	}
}

func TestLedgerApplyKeepsIDAndPosition(t *testing.T) {
	l := NewLedger(10)
	for _, id := range []string{"a", "b", "c"} {
		l.Append(mkMessage(id, "alice", "original"), "")
	}

	content := "edited"
	updated, ok := l.Apply("b", MessagePatch{Content: &content})
	if !ok {
		t.Fatal("apply failed for known id")
	}
	if updated.ID != "b" || updated.Content != "edited" {
		t.Fatalf("unexpected updated message: %+v", updated)
	}

	history := l.History()
	if len(history) != 3 {
		t.Fatalf("edit changed history length: %d", len(history))
	}
	if history[1].ID != "b" || history[1].Content != "edited" {
		t.Fatalf("edit moved or missed the entry: %+v", history[1])
	}
}

func TestLedgerDeleteKeepsEntry(t *testing.T) {
	l := NewLedger(10)
	l.Append(mkMessage("a", "alice", "secret"), "")

	empty := ""
	now := l.history[0].Timestamp
	deleted, ok := l.Apply("a", MessagePatch{Content: &empty, DeletedAt: &now})
	if !ok {
		t.Fatal("delete failed")
	}
	if deleted.Content != "" || deleted.DeletedAt == nil {
		t.Fatalf("delete should empty content and stamp DeletedAt: %+v", deleted)
	}
	if got, ok := l.Get("a"); !ok || got.ID != "a" {
		t.Fatal("deleted entry must stay retrievable by id")
	}
	if l.Len() != 1 {
		t.Fatalf("delete removed the entry: len=%d", l.Len())
	}
}

func TestLedgerReactionIdempotent(t *testing.T) {
	l := NewLedger(10)
	l.Append(mkMessage("a", "alice", "hi"), "")

	l.AddReaction("a", "👍", "bob", 7)
	updated, ok := l.AddReaction("a", "👍", "bob", 7)
	if !ok {
		t.Fatal("add reaction failed")
	}
	bucket := updated.Reactions["👍"]
	if len(bucket.Usernames) != 1 || len(bucket.UserIDs) != 1 {
		t.Fatalf("reaction add should be idempotent per actor: %+v", bucket)
	}
}

func TestLedgerRemoveLastReactorDropsEmoji(t *testing.T) {
	l := NewLedger(10)
	l.Append(mkMessage("a", "alice", "hi"), "")
	l.AddReaction("a", "🔥", "bob", 7)
	l.AddReaction("a", "🔥", "carol", 8)

	l.RemoveReaction("a", "🔥", "bob", 7)
	got, _ := l.Get("a")
	if bucket, ok := got.Reactions["🔥"]; !ok || len(bucket.Usernames) != 1 {
		t.Fatalf("expected one reactor left: %+v", got.Reactions)
	}

	l.RemoveReaction("a", "🔥", "carol", 8)
	got, _ = l.Get("a")
	if _, ok := got.Reactions["🔥"]; ok {
		t.Fatal("removing the last reactor should drop the emoji key")
	}
}

func TestLedgerHistoryIsDefensiveCopy(t *testing.T) {
	l := NewLedger(10)
	l.Append(mkMessage("a", "alice", "hi"), "")
	l.AddReaction("a", "👍", "bob", 0)

	history := l.History()
	history[0].Content = "tampered"
	history[0].Reactions["👍"] = domain.Reaction{Usernames: []string{"mallory"}}

	got, _ := l.Get("a")
	if got.Content != "hi" {
		t.Fatal("history copy shared the stored entry")
	}
	if got.Reactions["👍"].Usernames[0] != "bob" {
		t.Fatal("history copy shared the reaction map")
	}
}
