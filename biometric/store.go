// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package biometric

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLStore reads enrolled embeddings from the voter_embedding table.
// Vectors are stored as JSON arrays in the vector column.
type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) GetEmbeddings(ctx context.Context, voterID string) ([]Embedding, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT vector FROM voter_embedding WHERE voter_id = $1
	`, voterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var out []Embedding
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		var emb Embedding
		if err := json.Unmarshal([]byte(raw), &emb); err != nil {
			return nil, fmt.Errorf("malformed embedding vector for voter %s: %w", voterID, err)
		}
		out = append(out, emb)
	}
	return out, rows.Err()
}

func (s *SQLStore) AllEnrolled(ctx context.Context) (map[string][]Embedding, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT voter_id, vector FROM voter_embedding
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]Embedding)
	for rows.Next() {
		var voterID, raw string
		if err := rows.Scan(&voterID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		var emb Embedding
		if err := json.Unmarshal([]byte(raw), &emb); err != nil {
			return nil, fmt.Errorf("malformed embedding vector for voter %s: %w", voterID, err)
		}
		out[voterID] = append(out[voterID], emb)
	}
	return out, rows.Err()
}
