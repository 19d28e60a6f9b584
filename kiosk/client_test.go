// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kiosk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jannurey/botosafe-sub000/biometric"
	"github.com/jannurey/botosafe-sub000/kiosk"
	"github.com/jannurey/botosafe-sub000/mailer"
	"github.com/jannurey/botosafe-sub000/router"
	"github.com/jannurey/botosafe-sub000/testutil"
)

// startServer runs the real pipeline behind an httptest server and returns
// a client bound to an enrolled voter's session.
func startServer(t *testing.T) (*kiosk.Client, *mailer.Recorder, string) {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	t.Cleanup(func() { conn.Close() })

	electionID := testutil.CreateTestElection(t, conn, "open")
	voterID := testutil.CreateTestVoter(t, conn, "alice@example.edu")
	testutil.EnrollTestEmbedding(t, conn, voterID, []float64{1, 0, 0, 0})
	testutil.AddTestPosition(t, conn, electionID, "pos-president", "President")
	testutil.AddTestCandidate(t, conn, "pos-president", 1, "Candidate One")

	rec := &mailer.Recorder{}
	mux, err := router.NewRouter(conn, testutil.GetTestConfig(), rec)
	if err != nil {
		t.Fatalf("Failed to build router: %v", err)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return kiosk.NewClient(srv.URL, voterID), rec, electionID
}

func TestClientVerifyFaceAndSubmit(t *testing.T) {
	client, _, electionID := startServer(t)
	ctx := context.Background()

	token, err := client.VerifyFace(ctx, electionID, biometric.Embedding{1, 0, 0, 0})
	if err != nil {
		t.Fatalf("VerifyFace failed: %v", err)
	}
	if token == "" {
		t.Fatal("empty vote token")
	}

	envelopeID, err := client.SubmitBallot(ctx, electionID, token, map[string]int{"pos-president": 1})
	if err != nil {
		t.Fatalf("SubmitBallot failed: %v", err)
	}
	if envelopeID == "" {
		t.Error("empty envelope id")
	}
}

func TestClientVerifyFaceMismatch(t *testing.T) {
	client, _, electionID := startServer(t)

	_, err := client.VerifyFace(context.Background(), electionID, biometric.Embedding{9, 9, 9, 9})
	var apiErr *kiosk.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("VerifyFace = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.Status)
	}
	if apiErr.Message == "" {
		t.Error("expected the server's message to survive the round trip")
	}
}

func TestClientOtpFlow(t *testing.T) {
	client, rec, electionID := startServer(t)
	ctx := context.Background()

	if err := client.RequestOtp(ctx, electionID); err != nil {
		t.Fatalf("RequestOtp failed: %v", err)
	}
	sent := rec.Sent()
	if len(sent) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(sent))
	}

	token, err := client.VerifyOtp(ctx, electionID, sent[0].Code)
	if err != nil {
		t.Fatalf("VerifyOtp failed: %v", err)
	}

	envelopeID, err := client.SubmitBallot(ctx, electionID, token, map[string]int{"pos-president": 1})
	if err != nil {
		t.Fatalf("SubmitBallot failed: %v", err)
	}
	if envelopeID == "" {
		t.Error("empty envelope id")
	}
}

func TestClientSubmitBallotTokenReuse(t *testing.T) {
	client, _, electionID := startServer(t)
	ctx := context.Background()

	token, err := client.VerifyFace(ctx, electionID, biometric.Embedding{1, 0, 0, 0})
	if err != nil {
		t.Fatalf("VerifyFace failed: %v", err)
	}
	if _, err := client.SubmitBallot(ctx, electionID, token, map[string]int{"pos-president": 1}); err != nil {
		t.Fatalf("first SubmitBallot failed: %v", err)
	}

	_, err = client.SubmitBallot(ctx, electionID, token, map[string]int{"pos-president": 1})
	var apiErr *kiosk.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("second SubmitBallot = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("status = %d, want 409", apiErr.Status)
	}
}
