package signal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pomsaddons/BloxCord/internal/app"
	"github.com/pomsaddons/BloxCord/internal/auth"
	"github.com/pomsaddons/BloxCord/internal/core"
	"github.com/pomsaddons/BloxCord/internal/domain"
)

func newTestControllerWithBans(t *testing.T, bansJSON string) *Controller {
	t.Helper()
	dir := t.TempDir()
	bansPath := filepath.Join(dir, "bans.json")
	if err := os.WriteFile(bansPath, []byte(bansJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	return &Controller{
		Channels: app.NewChannelRegistry(0),
		Presence: app.NewPresence(time.Minute),
		Groups:   app.NewGroupRegistry(),
		Bans:     auth.NewBanList(bansPath),
		Tokens:   auth.NewTokenService(filepath.Join(dir, "tokens.json"), "test-secret"),
		Limiter:  NewMessageRateLimiter(100, time.Minute),
	}
}

func TestCloseDrainsQueuedFrames(t *testing.T) {
	c := &WsConn{send: make(chan core.Frame, 32)}

	if err := c.TrySend(core.Frame(`{"event":"banned"}`)); err != nil {
		t.Fatal(err)
	}
	c.Close()

	// The queue is sealed, not discarded: the frame enqueued before
	// Close must still come out, then the channel reports closed.
	f, ok := <-c.send
	if !ok || string(f) != `{"event":"banned"}` {
		t.Fatalf("queued frame lost on close: %q %v", f, ok)
	}
	if _, ok := <-c.send; ok {
		t.Fatal("queue should be closed after the drain")
	}
	if err := c.TrySend(core.Frame(`late`)); err == nil {
		t.Fatal("send after close must fail")
	}
}

func TestJoinBannedGetsEventBeforeTeardown(t *testing.T) {
	ctl := newTestControllerWithBans(t, `{
		"appealUrl": "https://example.com/appeal",
		"bannedUserIds": [666],
		"reasonsByUserId": {"666": "spam"}
	}`)
	c := &WsConn{send: make(chan core.Frame, 32)}

	ctl.handleJoinChannel(context.Background(), c, json.RawMessage(`{"jobId":"J1","username":"troll","userId":666}`))

	got := drainEvents(t, c)
	if len(got) != 1 || got[0].Event != "banned" {
		t.Fatalf("banned join must be answered with the banned event: %+v", got)
	}
	var p bannedPayload
	if err := json.Unmarshal(got[0].Data, &p); err != nil {
		t.Fatal(err)
	}
	if p.UserID != 666 || p.Reason != "spam" || p.AppealURL != "https://example.com/appeal" {
		t.Fatalf("banned payload = %+v", p)
	}
	if err := c.TrySend(core.Frame(`x`)); err == nil {
		t.Fatal("connection should be closed after the rejection")
	}
	if _, ok := ctl.Channels.Get("J1"); ok {
		t.Fatal("a rejected join must not create the channel")
	}
}

func TestJoinInvalidTokenGetsAuthFailed(t *testing.T) {
	ctl := newTestController(t)
	if _, err := ctl.Tokens.GetOrCreate(10); err != nil {
		t.Fatal(err)
	}
	c := &WsConn{send: make(chan core.Frame, 32)}

	ctl.handleJoinChannel(context.Background(), c, json.RawMessage(`{"jobId":"J1","username":"alice","userId":10,"token":"forged"}`))

	got := drainEvents(t, c)
	if len(got) != 1 || got[0].Event != "authFailed" {
		t.Fatalf("wrong-token join must be answered with authFailed: %+v", got)
	}
	if err := c.TrySend(core.Frame(`x`)); err == nil {
		t.Fatal("connection should be closed after the rejection")
	}
	if _, ok := ctl.Channels.Get("J1"); ok {
		t.Fatal("a rejected join must not create the channel")
	}
}

func TestJoinOversizedUsernameDroppedSilently(t *testing.T) {
	ctl := newTestController(t)
	c := &WsConn{send: make(chan core.Frame, 32)}
	long := strings.Repeat("x", 40)

	ctl.handleJoinChannel(context.Background(), c, json.RawMessage(`{"jobId":"J1","username":"`+long+`"}`))

	if got := drainEvents(t, c); len(got) != 0 {
		t.Fatalf("invalid username should be dropped with no event: %+v", got)
	}
	if err := c.TrySend(core.Frame(`x`)); err != nil {
		t.Fatal("a silent drop must not close the connection")
	}
}

func TestJoinDeliversSnapshotAndBroadcastsArrival(t *testing.T) {
	ctl := newTestController(t)

	alice := &WsConn{send: make(chan core.Frame, 32)}
	ctl.handleJoinChannel(context.Background(), alice, json.RawMessage(`{"jobId":"J1","username":"alice","userId":10}`))

	got := drainEvents(t, alice)
	if len(got) != 2 || got[0].Event != "channelSnapshot" || got[1].Event != "participantsChanged" {
		t.Fatalf("first join events = %+v", got)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(got[0].Data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.JobID != "J1" || snap.CreatedBy != "alice" || len(snap.Participants) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.LanguageCode != core.DefaultLanguageCode {
		t.Fatalf("language default = %q", snap.LanguageCode)
	}

	bob := &WsConn{send: make(chan core.Frame, 32)}
	ctl.handleJoinChannel(context.Background(), bob, json.RawMessage(`{"jobId":"J1","username":"bob","userId":20}`))

	// The sitting participant sees the arrival.
	aliceGot := drainEvents(t, alice)
	if len(aliceGot) != 1 || aliceGot[0].Event != "participantsChanged" {
		t.Fatalf("alice's events on bob's join = %+v", aliceGot)
	}
	var change participantsChangedPayload
	if err := json.Unmarshal(aliceGot[0].Data, &change); err != nil {
		t.Fatal(err)
	}
	if len(change.Participants) != 2 {
		t.Fatalf("participants after second join = %+v", change.Participants)
	}

	// The joiner's snapshot already contains both.
	bobGot := drainEvents(t, bob)
	if err := json.Unmarshal(bobGot[0].Data, &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Participants) != 2 {
		t.Fatalf("joiner snapshot participants = %+v", snap.Participants)
	}
}

func TestJoinSwitchLeavesPreviousChannel(t *testing.T) {
	ctl := newTestController(t)

	watcher := &recordingConn{}
	ctl.Channels.GetOrCreate("J1", "watcher", 0).Join(domain.Participant{Username: "watcher"})
	ctl.Presence.Bind("J1", "watcher", 0, watcher)

	alice := &WsConn{send: make(chan core.Frame, 32)}
	ctl.handleJoinChannel(context.Background(), alice, json.RawMessage(`{"jobId":"J1","username":"alice","userId":10}`))
	drainEvents(t, alice)
	watcher.mu.Lock()
	watcher.frames = nil
	watcher.mu.Unlock()

	ctl.handleJoinChannel(context.Background(), alice, json.RawMessage(`{"jobId":"J2","username":"alice","userId":10}`))

	// The old room hears the departure, without alice in the list.
	got := watcher.events(t)
	if len(got) != 1 || got[0].Event != "participantsChanged" {
		t.Fatalf("old-room events on switch = %+v", got)
	}
	var change participantsChangedPayload
	if err := json.Unmarshal(got[0].Data, &change); err != nil {
		t.Fatal(err)
	}
	if change.JobID != "J1" || len(change.Participants) != 1 || change.Participants[0].Username != "watcher" {
		t.Fatalf("old-room roster after switch = %+v", change)
	}

	if _, ok := ctl.Channels.GetOrCreate("J1", "", 0).Participant("alice"); ok {
		t.Fatal("alice should be out of the previous channel")
	}
	if _, ok := ctl.Channels.GetOrCreate("J2", "", 0).Participant("alice"); !ok {
		t.Fatal("alice should be in the new channel")
	}
}

func TestMintTokenBannedRejected(t *testing.T) {
	ctl := newTestControllerWithBans(t, `{"bannedUserIds": [666]}`)
	c := &WsConn{send: make(chan core.Frame, 32)}
	c.setBinding("J1", "troll", 666)

	ctl.handleMintToken(c)

	got := drainEvents(t, c)
	if len(got) != 1 || got[0].Event != "banned" {
		t.Fatalf("banned mint must be answered with the banned event: %+v", got)
	}
	if err := c.TrySend(core.Frame(`x`)); err == nil {
		t.Fatal("connection should be closed after the rejection")
	}
	if _, ok := ctl.Tokens.Token(666); ok {
		t.Fatal("no token may be minted for a banned identity")
	}
}
