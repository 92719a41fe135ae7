package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/facegate/facegate/internal/database"
)

func (s *Store) UpsertIdentity(ctx context.Context, identity database.Identity) error {
	var vec interface{}
	if len(identity.Vector) > 0 {
		vec = pgvector.NewVector(identity.Vector)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (id, name, name_normalized, embedding, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    name_normalized = EXCLUDED.name_normalized,
		    embedding = COALESCE(EXCLUDED.embedding, identities.embedding)
	`, identity.ID, identity.Name, database.NormalizeName(identity.Name), vec)
	if err != nil {
		return fmt.Errorf("upsert identity %s: %w", identity.ID, err)
	}
	return nil
}

func (s *Store) GetIdentity(ctx context.Context, id string) (*database.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, embedding, created_at
		FROM identities
		WHERE id = $1
	`, id)

	identity, err := scanIdentity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity %s: %w", id, err)
	}
	return identity, nil
}

func (s *Store) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, embedding, created_at
		FROM identities
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var identities []database.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, *identity)
	}
	return identities, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIdentity(r rowScanner) (*database.Identity, error) {
	var identity database.Identity
	var vec *pgvector.Vector
	if err := r.Scan(&identity.ID, &identity.Name, &vec, &identity.CreatedAt); err != nil {
		return nil, err
	}
	if vec != nil {
		identity.Vector = vec.Slice()
	}
	return &identity, nil
}
