// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package biometric verifies a captured face embedding against the claimed
voter's enrolled embeddings.

Matching uses Euclidean distance with one tunable threshold applied to
both the own-match check and the collision scan. Outcomes:

  - Match: proceed to the token service with proof kind biometric
  - ErrEmbeddingMismatch: nobody matched; reset the liveness machine
  - ErrEmbeddingCollision: the embedding matched a DIFFERENT enrolled
    voter - surfaced as a distinct, higher-severity error and logged,
    never silently retried
  - ErrNoFaceCaptured: empty embedding; reset

The claimed voter id always comes from the authenticated session. SQLStore
implements the enrolled-embedding store over the voter_embedding table.
*/
package biometric
