// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballotbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecryptionFailure  = errors.New("ballot decryption failed")
)

// Wire format: IV (12 bytes) || AUTH_TAG (16 bytes) || CIPHERTEXT.
const (
	ivSize        = 12
	tagSize       = 16
	minCiphertext = ivSize + tagSize
)

// DeriveElectionKey derives the per-election ballot key from the master
// key with HKDF-SHA256, bound to the election id. Ballots of one election
// never share a key with another.
func DeriveElectionKey(master []byte, electionID string) ([]byte, error) {
	if len(master) != 32 {
		return nil, errors.New("master key must be 32 bytes")
	}
	r := hkdf.New(sha256.New, master, []byte("botosafe-ballot-v1"), []byte(electionID))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive election key: %w", err)
	}
	return key, nil
}

// Seal encrypts a plaintext ballot with AES-256-GCM under a fresh random
// IV and returns IV || TAG || CIPHERTEXT.
func Seal(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	// gcm.Seal appends ciphertext||tag; the wire format wants the tag
	// between the IV and the ciphertext.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ct := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, ivSize+tagSize+len(ct))
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}

// Open decrypts IV || TAG || CIPHERTEXT. Payloads shorter than 28 bytes
// are rejected outright; any bit-flip or truncation fails authentication
// with ErrDecryptionFailure instead of silently mis-parsing.
func Open(key, sealed []byte) ([]byte, error) {
	if len(sealed) < minCiphertext {
		return nil, ErrCiphertextTooShort
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := sealed[:ivSize]
	tag := sealed[ivSize : ivSize+tagSize]
	ct := sealed[ivSize+tagSize:]

	joined := make([]byte, 0, len(ct)+tagSize)
	joined = append(joined, ct...)
	joined = append(joined, tag...)

	plaintext, err := gcm.Open(nil, iv, joined, nil)
	if err != nil {
		return nil, ErrDecryptionFailure
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init gcm: %w", err)
	}
	return gcm, nil
}
