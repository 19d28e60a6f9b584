// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally_test

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jannurey/botosafe-sub000/ballotbox"
	"github.com/jannurey/botosafe-sub000/tally"
	"github.com/jannurey/botosafe-sub000/testutil"
)

func masterKey(t *testing.T) []byte {
	t.Helper()
	key, err := hex.DecodeString(testutil.TestBallotKey)
	if err != nil {
		t.Fatalf("bad test ballot key: %v", err)
	}
	return key
}

// storeEnvelope seals choices under the election key and inserts the
// envelope directly, bypassing token redemption.
func storeEnvelope(t *testing.T, conn *sql.DB, master []byte, electionID, voterID string, choices map[string]int) {
	t.Helper()

	plaintext, err := json.Marshal(choices)
	if err != nil {
		t.Fatalf("failed to encode choices: %v", err)
	}
	key, err := ballotbox.DeriveElectionKey(master, electionID)
	if err != nil {
		t.Fatalf("key derivation failed: %v", err)
	}
	sealed, err := ballotbox.Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO ballot_envelope (id, election_id, voter_id, ciphertext, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), electionID, voterID, base64.StdEncoding.EncodeToString(sealed), time.Now())
	if err != nil {
		t.Fatalf("failed to store envelope: %v", err)
	}
}

func storeRawEnvelope(t *testing.T, conn *sql.DB, electionID, voterID, encoded string) {
	t.Helper()
	_, err := conn.Exec(`
		INSERT INTO ballot_envelope (id, election_id, voter_id, ciphertext, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), electionID, voterID, encoded, time.Now())
	if err != nil {
		t.Fatalf("failed to store raw envelope: %v", err)
	}
}

func TestCountAggregatesBallots(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	master := masterKey(t)

	electionID := testutil.CreateTestElection(t, conn, "closed")

	// Three ballots: candidate 1 gets two votes for president, candidate 2
	// one; secretary splits 10 vs 11.
	voters := []map[string]int{
		{"pos-president": 1, "pos-secretary": 10},
		{"pos-president": 1, "pos-secretary": 11},
		{"pos-president": 2},
	}
	for _, choices := range voters {
		voterID := testutil.CreateTestVoter(t, conn, uuid.NewString()+"@example.edu")
		storeEnvelope(t, conn, master, electionID, voterID, choices)
	}

	counter := tally.NewCounter(conn, master)
	result, err := counter.Count(context.Background(), electionID)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	if result.Ballots != 3 {
		t.Errorf("Ballots = %d, want 3", result.Ballots)
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Skipped)
	}
	if result.Counts[1] != 2 || result.Counts[2] != 1 {
		t.Errorf("president counts = %v, want 1:2 2:1", result.Counts)
	}
	if result.ByPosition["pos-president"][1] != 2 {
		t.Errorf("by-position president = %v", result.ByPosition["pos-president"])
	}
	if result.ByPosition["pos-secretary"][10] != 1 || result.ByPosition["pos-secretary"][11] != 1 {
		t.Errorf("secretary tie not preserved: %v", result.ByPosition["pos-secretary"])
	}
}

func TestCountPreservesTies(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	master := masterKey(t)

	electionID := testutil.CreateTestElection(t, conn, "closed")
	for i := 0; i < 4; i++ {
		voterID := testutil.CreateTestVoter(t, conn, uuid.NewString()+"@example.edu")
		candidate := 1 + i%2
		storeEnvelope(t, conn, master, electionID, voterID, map[string]int{"pos-president": candidate})
	}

	result, err := tally.NewCounter(conn, master).Count(context.Background(), electionID)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if result.Counts[1] != 2 || result.Counts[2] != 2 {
		t.Errorf("tie not preserved: %v", result.Counts)
	}
}

func TestCountSkipsUnreadableEnvelopes(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	master := masterKey(t)

	electionID := testutil.CreateTestElection(t, conn, "closed")

	good := testutil.CreateTestVoter(t, conn, "good@example.edu")
	storeEnvelope(t, conn, master, electionID, good, map[string]int{"pos-president": 1})

	// Not base64 at all.
	v1 := testutil.CreateTestVoter(t, conn, "bad1@example.edu")
	storeRawEnvelope(t, conn, electionID, v1, "%%% not base64 %%%")

	// Base64 but too short to be an envelope.
	v2 := testutil.CreateTestVoter(t, conn, "bad2@example.edu")
	storeRawEnvelope(t, conn, electionID, v2, base64.StdEncoding.EncodeToString([]byte("short")))

	// Sealed under the wrong election's key.
	v3 := testutil.CreateTestVoter(t, conn, "bad3@example.edu")
	otherKey, _ := ballotbox.DeriveElectionKey(master, "some-other-election")
	sealed, err := ballotbox.Seal(otherKey, []byte(`{"pos-president":2}`))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	storeRawEnvelope(t, conn, electionID, v3, base64.StdEncoding.EncodeToString(sealed))

	result, err := tally.NewCounter(conn, master).Count(context.Background(), electionID)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	if result.Ballots != 1 {
		t.Errorf("Ballots = %d, want 1", result.Ballots)
	}
	if result.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", result.Skipped)
	}
	if result.Counts[1] != 1 {
		t.Errorf("good ballot lost: %v", result.Counts)
	}
	if result.Counts[2] != 0 {
		t.Errorf("wrong-key ballot counted: %v", result.Counts)
	}
}

func TestCountEmptyElection(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	master := masterKey(t)

	electionID := testutil.CreateTestElection(t, conn, "open")

	result, err := tally.NewCounter(conn, master).Count(context.Background(), electionID)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if result.Ballots != 0 || result.Skipped != 0 || len(result.Counts) != 0 {
		t.Errorf("empty election produced %+v", result)
	}
}

func TestCountScopedToElection(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()
	master := masterKey(t)

	e1 := testutil.CreateTestElection(t, conn, "closed")
	e2 := testutil.CreateTestElection(t, conn, "closed")

	v1 := testutil.CreateTestVoter(t, conn, "one@example.edu")
	v2 := testutil.CreateTestVoter(t, conn, "two@example.edu")
	storeEnvelope(t, conn, master, e1, v1, map[string]int{"pos-president": 1})
	storeEnvelope(t, conn, master, e2, v2, map[string]int{"pos-president": 2})

	result, err := tally.NewCounter(conn, master).Count(context.Background(), e1)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if result.Ballots != 1 {
		t.Errorf("Ballots = %d, want 1", result.Ballots)
	}
	if result.Counts[2] != 0 {
		t.Errorf("other election's ballot leaked into the tally: %v", result.Counts)
	}
}
