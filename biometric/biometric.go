// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package biometric

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

var (
	ErrNoFaceCaptured     = errors.New("no face captured")
	ErrEmbeddingMismatch  = errors.New("embedding does not match enrolled voter")
	ErrEmbeddingCollision = errors.New("embedding matches a different enrolled voter")
	ErrDimensionMismatch  = errors.New("embedding dimensions do not match")
)

// DefaultMatchThreshold is the Euclidean distance below which two
// embeddings count as the same face. Tuned empirically; applied
// consistently for both own-match and collision checks.
const DefaultMatchThreshold = 0.60

// Embedding is a fixed-length face vector.
type Embedding []float64

// Distance returns the Euclidean distance between two embeddings.
func Distance(a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// CollisionError reports that a captured embedding matched an enrolled
// voter other than the claimed one. It satisfies
// errors.Is(err, ErrEmbeddingCollision).
type CollisionError struct {
	ClaimedVoterID string
	MatchedVoterID string
	Distance       float64
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("embedding for voter %s matched enrolled voter %s (distance %.4f)",
		e.ClaimedVoterID, e.MatchedVoterID, e.Distance)
}

func (e *CollisionError) Is(target error) bool {
	return target == ErrEmbeddingCollision
}

// EmbeddingStore is the enrolled-embedding collaborator.
type EmbeddingStore interface {
	// GetEmbeddings returns the claimed voter's enrolled embeddings.
	GetEmbeddings(ctx context.Context, voterID string) ([]Embedding, error)
	// AllEnrolled returns every voter's enrolled embeddings, keyed by
	// voter id, for the collision scan.
	AllEnrolled(ctx context.Context) (map[string][]Embedding, error)
}

// Match is a successful verification outcome.
type Match struct {
	VoterID  string
	Distance float64
}

// Verifier checks a captured embedding against the claimed voter's
// enrollment. The claimed voter id must come from the caller's
// authenticated session, never from a client-supplied identity claim.
type Verifier struct {
	Store     EmbeddingStore
	Threshold float64
}

func NewVerifier(store EmbeddingStore) *Verifier {
	return &Verifier{Store: store, Threshold: DefaultMatchThreshold}
}

// Verify returns the match on success, or one of:
//
//   - ErrNoFaceCaptured: the embedding is empty
//   - ErrEmbeddingMismatch: no enrolled embedding of the claimed voter is
//     within the threshold, and nobody else's is either
//   - *CollisionError (ErrEmbeddingCollision): the embedding matches a
//     different enrolled voter - a possible security incident, logged at
//     Warn, never silently retried
//
// The own-match check runs first so a legitimate match can never degrade
// into a collision against the voter's own enrollment.
func (v *Verifier) Verify(ctx context.Context, claimedVoterID string, emb Embedding) (Match, error) {
	if len(emb) == 0 {
		return Match{}, ErrNoFaceCaptured
	}

	own, err := v.Store.GetEmbeddings(ctx, claimedVoterID)
	if err != nil {
		return Match{}, fmt.Errorf("failed to load enrolled embeddings: %w", err)
	}

	if d, ok := v.closest(emb, own); ok {
		return Match{VoterID: claimedVoterID, Distance: d}, nil
	}

	all, err := v.Store.AllEnrolled(ctx)
	if err != nil {
		return Match{}, fmt.Errorf("failed to scan enrolled embeddings: %w", err)
	}

	for voterID, enrolled := range all {
		if voterID == claimedVoterID {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Match{}, err
		}
		if d, ok := v.closest(emb, enrolled); ok {
			collision := &CollisionError{
				ClaimedVoterID: claimedVoterID,
				MatchedVoterID: voterID,
				Distance:       d,
			}
			slog.Warn("embedding collision detected",
				"claimed_voter", claimedVoterID,
				"matched_voter", voterID,
				"distance", d,
			)
			return Match{}, collision
		}
	}

	return Match{}, ErrEmbeddingMismatch
}

// closest returns the smallest distance within the threshold, if any.
// Dimension mismatches are skipped rather than failing the whole check.
func (v *Verifier) closest(emb Embedding, enrolled []Embedding) (float64, bool) {
	best := math.Inf(1)
	for _, e := range enrolled {
		d, err := Distance(emb, e)
		if err != nil {
			continue
		}
		if d < best {
			best = d
		}
	}
	return best, best <= v.Threshold
}
