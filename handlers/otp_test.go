// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"net/http"
	"testing"

	"github.com/jannurey/botosafe-sub000/models"
	"github.com/jannurey/botosafe-sub000/testutil"
)

func (f *serverFixture) requestOtp(t *testing.T) string {
	t.Helper()

	w := f.do(http.MethodPost, "/elections/"+f.electionID+"/otp/request", nil, f.session())
	testutil.AssertStatus(t, w, http.StatusAccepted)

	sent := f.rec.Sent()
	if len(sent) == 0 {
		t.Fatal("no otp delivery recorded")
	}
	return sent[len(sent)-1].Code
}

func TestRequestOtpDeliversCode(t *testing.T) {
	f := setupServer(t)

	code := f.requestOtp(t)
	if len(code) != 6 {
		t.Errorf("code length = %d, want 6", len(code))
	}

	sent := f.rec.Sent()
	if sent[0].ToEmail != "alice@example.edu" {
		t.Errorf("delivered to %q, want alice@example.edu", sent[0].ToEmail)
	}
}

func TestRequestOtpNoSession(t *testing.T) {
	f := setupServer(t)

	w := f.do(http.MethodPost, "/elections/"+f.electionID+"/otp/request", nil, nil)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestRequestOtpUnknownVoter(t *testing.T) {
	f := setupServer(t)

	w := f.do(http.MethodPost, "/elections/"+f.electionID+"/otp/request", nil,
		map[string]string{"X-Session-Voter": "nobody"})
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestRequestOtpResendTooSoon(t *testing.T) {
	f := setupServer(t)

	f.requestOtp(t)

	// An immediate resend sits inside the cool-down.
	w := f.do(http.MethodPost, "/elections/"+f.electionID+"/otp/request", nil, f.session())
	testutil.AssertStatus(t, w, http.StatusTooManyRequests)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Message == "" {
		t.Error("expected a retry hint in the error message")
	}
}

func TestVerifyOtpIssuesToken(t *testing.T) {
	f := setupServer(t)
	code := f.requestOtp(t)

	w := f.do(http.MethodPost, "/elections/"+f.electionID+"/otp/verify",
		models.VerifyOtpRequest{Code: code}, f.session())
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.TokenResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Token == "" {
		t.Error("expected a vote token")
	}
}

func TestVerifyOtpWrongCode(t *testing.T) {
	f := setupServer(t)
	code := f.requestOtp(t)

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	w := f.do(http.MethodPost, "/elections/"+f.electionID+"/otp/verify",
		models.VerifyOtpRequest{Code: wrong}, f.session())
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestVerifyOtpNoChallenge(t *testing.T) {
	f := setupServer(t)

	w := f.do(http.MethodPost, "/elections/"+f.electionID+"/otp/verify",
		models.VerifyOtpRequest{Code: "123456"}, f.session())
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestVerifyOtpMissingCode(t *testing.T) {
	f := setupServer(t)

	w := f.do(http.MethodPost, "/elections/"+f.electionID+"/otp/verify",
		models.VerifyOtpRequest{}, f.session())
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

// The two proof paths are interchangeable: an otp-issued token casts a
// ballot exactly like a biometric one.
func TestOtpTokenCastsBallot(t *testing.T) {
	f := setupServer(t)
	code := f.requestOtp(t)

	w := f.do(http.MethodPost, "/elections/"+f.electionID+"/otp/verify",
		models.VerifyOtpRequest{Code: code}, f.session())
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.TokenResponse
	testutil.AssertJSON(t, w, &resp)

	w = f.do(http.MethodPost, "/elections/"+f.electionID+"/ballots",
		models.SubmitBallotRequest{Choices: map[string]int{"pos-president": 1}},
		map[string]string{"X-Vote-Token": resp.Token})
	testutil.AssertStatus(t, w, http.StatusCreated)
}
