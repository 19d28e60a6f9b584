// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jannurey/botosafe-sub000/models"
	"github.com/jannurey/botosafe-sub000/testutil"
)

// Ten goroutines race the same vote token through the full HTTP stack;
// exactly one ballot may land.
func TestConcurrentTokenRedemption(t *testing.T) {
	f := setupServer(t)
	token := f.verifyFace(t)

	const goroutines = 10
	var successes, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := f.submitBallot(token, map[string]int{"pos-president": 1})
			switch w.Code {
			case http.StatusCreated:
				successes.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			default:
				t.Errorf("unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("got %d successful submissions, want exactly 1", successes.Load())
	}
	if conflicts.Load() != goroutines-1 {
		t.Errorf("got %d conflicts, want %d", conflicts.Load(), goroutines-1)
	}

	var result models.TallyResponse
	w := f.do(http.MethodGet, "/elections/"+f.electionID+"/tally", nil, nil)
	testutil.AssertJSON(t, w, &result)
	if result.Ballots != 1 {
		t.Errorf("tally ballots = %d, want 1", result.Ballots)
	}
}

// Concurrent voters with their own tokens all succeed, and the tally sums
// exactly.
func TestConcurrentDistinctVoters(t *testing.T) {
	f := setupServer(t)

	const voters = 8
	tokens := make([]string, voters)
	for i := 0; i < voters; i++ {
		voterID := testutil.CreateTestVoter(t, f.conn, uuidEmail(i))
		testutil.EnrollTestEmbedding(t, f.conn, voterID, []float64{float64(i + 10), 0, 0, 0})

		w := f.do(http.MethodPost, "/elections/"+f.electionID+"/verify-face",
			models.VerifyFaceRequest{Embedding: []float64{float64(i + 10), 0, 0, 0}},
			map[string]string{"X-Session-Voter": voterID})
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.TokenResponse
		testutil.AssertJSON(t, w, &resp)
		tokens[i] = resp.Token
	}

	var successes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(tok string, candidate int) {
			defer wg.Done()
			w := f.submitBallot(tok, map[string]int{"pos-president": candidate})
			if w.Code == http.StatusCreated {
				successes.Add(1)
			} else {
				t.Errorf("submission failed with %d: %s", w.Code, w.Body.String())
			}
		}(tokens[i], 1+i%2)
	}
	wg.Wait()

	if successes.Load() != voters {
		t.Fatalf("got %d successes, want %d", successes.Load(), voters)
	}

	var result models.TallyResponse
	w := f.do(http.MethodGet, "/elections/"+f.electionID+"/tally", nil, nil)
	testutil.AssertJSON(t, w, &result)
	if result.Ballots != voters {
		t.Errorf("tally ballots = %d, want %d", result.Ballots, voters)
	}
	if result.Counts[1]+result.Counts[2] != voters {
		t.Errorf("tally counts %v do not sum to %d", result.Counts, voters)
	}
}

func uuidEmail(i int) string {
	return string(rune('a'+i)) + "-voter@example.edu"
}
