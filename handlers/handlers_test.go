// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jannurey/botosafe-sub000/mailer"
	"github.com/jannurey/botosafe-sub000/models"
	"github.com/jannurey/botosafe-sub000/router"
	"github.com/jannurey/botosafe-sub000/testutil"
)

// enrolledVector is the session voter's enrolled face embedding.
var enrolledVector = []float64{1, 0, 0, 0}

// serverFixture is a fully wired pipeline over a fresh database: one open
// election with a single contested position, one enrolled voter.
type serverFixture struct {
	conn       *sql.DB
	mux        *http.ServeMux
	rec        *mailer.Recorder
	electionID string
	voterID    string
}

func setupServer(t *testing.T) *serverFixture {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	t.Cleanup(func() { conn.Close() })

	electionID := testutil.CreateTestElection(t, conn, "open")
	voterID := testutil.CreateTestVoter(t, conn, "alice@example.edu")
	testutil.EnrollTestEmbedding(t, conn, voterID, enrolledVector)
	testutil.AddTestPosition(t, conn, electionID, "pos-president", "President")
	testutil.AddTestCandidate(t, conn, "pos-president", 1, "Candidate One")
	testutil.AddTestCandidate(t, conn, "pos-president", 2, "Candidate Two")

	rec := &mailer.Recorder{}
	mux, err := router.NewRouter(conn, testutil.GetTestConfig(), rec)
	if err != nil {
		t.Fatalf("Failed to build router: %v", err)
	}

	return &serverFixture{
		conn:       conn,
		mux:        mux,
		rec:        rec,
		electionID: electionID,
		voterID:    voterID,
	}
}

// do runs one request through the full router and middleware stack.
func (f *serverFixture) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest(method, path, body, headers)
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

// session returns the headers of an authenticated SSO session.
func (f *serverFixture) session() map[string]string {
	return map[string]string{"X-Session-Voter": f.voterID}
}

// verifyFace runs the biometric proof and returns the issued vote token.
func (f *serverFixture) verifyFace(t *testing.T) string {
	t.Helper()

	w := f.do(http.MethodPost, "/elections/"+f.electionID+"/verify-face",
		models.VerifyFaceRequest{Embedding: enrolledVector}, f.session())
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.TokenResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Token == "" {
		t.Fatal("verify-face returned an empty token")
	}
	return resp.Token
}
