package core

import "testing"

func TestQuorum(t *testing.T) {
	cases := []struct {
		participants int
		want         int
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{5, 3},
		{10, 6},
	}
	for _, tc := range cases {
		if got := Quorum(tc.participants); got != tc.want {
			t.Errorf("Quorum(%d) = %d, want %d", tc.participants, got, tc.want)
		}
	}
}

func TestBallotSwitchingCandidateDiscardsProgress(t *testing.T) {
	var b ballot
	if b.cast("m1", "alice", 4) {
		t.Fatal("single ballot should not reach quorum of 3")
	}
	if b.cast("m1", "bob", 4) {
		t.Fatal("two ballots should not reach quorum of 3")
	}

	// A new candidate resets the voter set.
	if b.cast("m2", "carol", 4) {
		t.Fatal("fresh vote should start from one voter")
	}
	if len(b.voters) != 1 {
		t.Fatalf("expected prior progress discarded, have %d voters", len(b.voters))
	}
}

func TestBallotRevoteIsNoOp(t *testing.T) {
	var b ballot
	for i := 0; i < 5; i++ {
		if b.cast("bob", "alice", 2) {
			t.Fatal("alice alone should never reach quorum of 2 however often she votes")
		}
	}
	if b.cast("bob", "carol", 2) != true {
		t.Fatal("second distinct voter should complete the vote")
	}
}

func TestBallotThresholdTracksCurrentPopulation(t *testing.T) {
	var b ballot
	if b.cast("m1", "alice", 5) {
		t.Fatal("1 of 5 should not pass")
	}
	if b.cast("m1", "bob", 5) {
		t.Fatal("2 of 5 should not pass")
	}
	// The room shrank; the next ballot is judged against the new count.
	if !b.cast("m1", "carol", 3) {
		t.Fatal("3 of 3 should pass with threshold 2")
	}
}

func TestLanguageTallyRecastMovesBallot(t *testing.T) {
	tally := newLanguageTally()

	tally.cast("en", "alice", 4)
	tally.cast("fr", "alice", 4)

	votes := tally.votes()
	if _, ok := votes["en"]; ok {
		t.Fatalf("alice's ballot should have left the en bucket: %v", votes)
	}
	if got := votes["fr"]; len(got) != 1 || got[0] != "alice" {
		t.Fatalf("alice's ballot should be in fr: %v", votes)
	}

	total := 0
	for _, voters := range votes {
		total += len(voters)
	}
	if total != 1 {
		t.Fatalf("one voter must hold exactly one live ballot, counted %d", total)
	}
}

func TestLanguageTallyWinClearsAllBuckets(t *testing.T) {
	tally := newLanguageTally()

	tally.cast("de", "carol", 3)
	tally.cast("fr", "alice", 3)
	if changed := tally.cast("fr", "bob", 3); !changed {
		t.Fatal("2 of 3 should switch the language")
	}
	if tally.current != "fr" {
		t.Fatalf("current = %q, want fr", tally.current)
	}
	if len(tally.votes()) != 0 {
		t.Fatalf("all buckets should clear on a win, got %v", tally.votes())
	}
}

func TestLanguageTallyNormalizesCode(t *testing.T) {
	tally := newLanguageTally()
	tally.cast("  FR ", "alice", 2)
	tally.cast("fr", "bob", 2)
	if tally.current != "fr" {
		t.Fatalf("code should be trimmed and case-folded, current=%q", tally.current)
	}
}
