// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package tally decrypts all ballot envelopes for an election and
// aggregates per-candidate counts. The output is aggregate only: voter
// linkage never enters the decrypted path, and per-ballot plaintext is
// discarded as soon as it is counted. One corrupt envelope is logged and
// skipped, never aborting the rest of the tally.
package tally

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jannurey/botosafe-sub000/ballotbox"
)

// Result is the aggregate outcome for one election. Counts is the overall
// candidate id → vote count map; ByPosition breaks the same counts down
// per contested position. Skipped counts envelopes that failed to decrypt
// or parse.
type Result struct {
	ElectionID string
	Counts     map[int]int
	ByPosition map[string]map[int]int
	Ballots    int
	Skipped    int
}

// Counter recomputes tallies from the stored envelopes. It only ever
// reads committed rows, so it can run while voting is still open.
type Counter struct {
	db     *sql.DB
	master []byte
}

func NewCounter(db *sql.DB, masterKey []byte) *Counter {
	return &Counter{db: db, master: masterKey}
}

// Count fetches every envelope for the election, decrypts each, and
// increments one counter per candidate for every position entry in the
// plaintext. Ties are preserved exactly; there is no rounding anywhere.
func (c *Counter) Count(ctx context.Context, electionID string) (*Result, error) {
	key, err := ballotbox.DeriveElectionKey(c.master, electionID)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, ciphertext FROM ballot_envelope WHERE election_id = $1
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query envelopes: %w", err)
	}
	defer rows.Close()

	result := &Result{
		ElectionID: electionID,
		Counts:     make(map[int]int),
		ByPosition: make(map[string]map[int]int),
	}

	for rows.Next() {
		var envelopeID, encoded string
		if err := rows.Scan(&envelopeID, &encoded); err != nil {
			return nil, fmt.Errorf("failed to scan envelope: %w", err)
		}

		choices, err := c.open(key, encoded)
		if err != nil {
			slog.Warn("skipping unreadable ballot envelope",
				"election_id", electionID,
				"envelope_id", envelopeID,
				"error", err,
			)
			result.Skipped++
			continue
		}

		for positionID, candidateID := range choices {
			result.Counts[candidateID]++
			if result.ByPosition[positionID] == nil {
				result.ByPosition[positionID] = make(map[int]int)
			}
			result.ByPosition[positionID][candidateID]++
		}
		result.Ballots++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read envelopes: %w", err)
	}

	return result, nil
}

func (c *Counter) open(key []byte, encoded string) (map[string]int, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("malformed envelope encoding: %w", err)
	}
	plaintext, err := ballotbox.Open(key, sealed)
	if err != nil {
		return nil, err
	}
	var choices map[string]int
	if err := json.Unmarshal(plaintext, &choices); err != nil {
		return nil, fmt.Errorf("malformed ballot plaintext: %w", err)
	}
	return choices, nil
}
