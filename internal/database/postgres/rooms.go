package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/facegate/facegate/internal/authz"
	"github.com/facegate/facegate/internal/database"
)

func (s *Store) UpsertRoom(ctx context.Context, room database.Room) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
	`, room.Code, room.Name)
	if err != nil {
		return fmt.Errorf("upsert room %s: %w", room.Code, err)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, code string) (*database.Room, error) {
	var room database.Room
	err := s.db.QueryRowContext(ctx, `
		SELECT code, name FROM rooms WHERE code = $1
	`, code).Scan(&room.Code, &room.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", code, err)
	}
	return &room, nil
}

func (s *Store) UpsertPolicy(ctx context.Context, policy database.AccessPolicy) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO room_access (identity_id, room_code, allowed, allowed_from_minutes, allowed_to_minutes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identity_id, room_code) DO UPDATE
		SET allowed = EXCLUDED.allowed,
		    allowed_from_minutes = EXCLUDED.allowed_from_minutes,
		    allowed_to_minutes = EXCLUDED.allowed_to_minutes
	`, policy.IdentityID, policy.RoomCode, policy.Allowed,
		minutesOrNil(policy.AllowedFrom), minutesOrNil(policy.AllowedTo))
	if err != nil {
		return fmt.Errorf("upsert policy (%s, %s): %w", policy.IdentityID, policy.RoomCode, err)
	}
	return nil
}

func (s *Store) GetPolicy(ctx context.Context, identityID, roomCode string) (*database.AccessPolicy, error) {
	policy := database.AccessPolicy{IdentityID: identityID, RoomCode: roomCode}
	var from, to sql.NullInt64

	// The primary key guarantees at most one row per pair.
	err := s.db.QueryRowContext(ctx, `
		SELECT allowed, allowed_from_minutes, allowed_to_minutes
		FROM room_access
		WHERE identity_id = $1 AND room_code = $2
	`, identityID, roomCode).Scan(&policy.Allowed, &from, &to)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get policy (%s, %s): %w", identityID, roomCode, err)
	}

	policy.AllowedFrom = timeOfDayOrNil(from)
	policy.AllowedTo = timeOfDayOrNil(to)
	return &policy, nil
}

func minutesOrNil(t *authz.TimeOfDay) interface{} {
	if t == nil {
		return nil
	}
	return t.Minutes()
}

func timeOfDayOrNil(n sql.NullInt64) *authz.TimeOfDay {
	if !n.Valid {
		return nil
	}
	return &authz.TimeOfDay{Hour: int(n.Int64) / 60, Minute: int(n.Int64) % 60}
}
