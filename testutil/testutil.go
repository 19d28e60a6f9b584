// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jannurey/botosafe-sub000/cliparse"
	"github.com/jannurey/botosafe-sub000/db"
)

// TestBallotKey is the 256-bit master ballot key used by test fixtures.
const TestBallotKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// SetupTestDB opens a fresh in-memory sqlite database with the full
// schema. The database is named after the test so parallel packages
// never share state.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// In-memory sqlite allows one writer; funnel the pool through a
	// single connection so concurrent test goroutines queue instead of
	// failing with SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         4117,
		DatabaseURL:  "file:test?mode=memory",
		DatabaseType: "sqlite",
		TokenSecret:  "test-token-secret",
		BallotKeyHex: TestBallotKey,
	}
}

// CreateTestElection creates an election and returns its ID.
// status should be "draft", "open", or "closed". Open elections get a
// voting window spanning the current hour.
func CreateTestElection(t *testing.T, conn *sql.DB, status string) string {
	t.Helper()

	electionID := uuid.NewString()
	now := time.Now()
	var opensAt, closesAt *time.Time
	if status == "open" {
		o, c := now.Add(-time.Hour), now.Add(time.Hour)
		opensAt, closesAt = &o, &c
	}

	_, err := conn.Exec(`
		INSERT INTO election (id, name, status, opens_at, closes_at, created_at)
		VALUES ($1, 'Test Election', $2, $3, $4, $5)
	`, electionID, status, opensAt, closesAt, now)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID
}

// CreateTestVoter inserts a voter and returns the voter ID.
func CreateTestVoter(t *testing.T, conn *sql.DB, email string) string {
	t.Helper()

	voterID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO voter (id, email, created_at)
		VALUES ($1, $2, $3)
	`, voterID, email, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}

	return voterID
}

// EnrollTestEmbedding stores an enrolled face embedding for a voter.
func EnrollTestEmbedding(t *testing.T, conn *sql.DB, voterID string, vector []float64) {
	t.Helper()

	raw, err := json.Marshal(vector)
	if err != nil {
		t.Fatalf("Failed to encode embedding: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO voter_embedding (id, voter_id, vector, enrolled_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), voterID, string(raw), time.Now())
	if err != nil {
		t.Fatalf("Failed to enroll embedding: %v", err)
	}
}

// AddTestPosition adds a contested position to an election.
func AddTestPosition(t *testing.T, conn *sql.DB, electionID, positionID, title string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO position (id, election_id, title)
		VALUES ($1, $2, $3)
	`, positionID, electionID, title)
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}
}

// AddTestCandidate adds a candidate under a position.
func AddTestCandidate(t *testing.T, conn *sql.DB, positionID string, candidateID int, name string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO candidate (id, position_id, name)
		VALUES ($1, $2, $3)
	`, candidateID, positionID, name)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
