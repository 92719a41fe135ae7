// Package database defines the storage contracts of the access system and
// shared row types. Backends live in subpackages (postgres, mock).
package database

import "context"

// IdentityStore manages enrolled identities and their vectors.
type IdentityStore interface {
	UpsertIdentity(ctx context.Context, identity Identity) error
	GetIdentity(ctx context.Context, id string) (*Identity, error)
	// ListIdentities returns all identities in a stable order (by ID).
	// The matcher's first-wins tie-break depends on that order.
	ListIdentities(ctx context.Context) ([]Identity, error)
}

// RoomStore manages rooms and per-room access policies.
type RoomStore interface {
	UpsertRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, code string) (*Room, error)
	UpsertPolicy(ctx context.Context, policy AccessPolicy) error
	// GetPolicy returns nil when no policy exists for the pair; absence is
	// deny-by-default for the authorizer.
	GetPolicy(ctx context.Context, identityID, roomCode string) (*AccessPolicy, error)
}

// AttendanceStore appends and queries the attendance log. Rows are
// append-only; there is no update or delete.
type AttendanceStore interface {
	AppendAttendance(ctx context.Context, row AttendanceRow) error
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceRow, error)
	CountAttendance(ctx context.Context) (int, error)
	AppendAttendanceBackup(ctx context.Context, row AttendanceBackupRow) error
}

// AuditStore appends the audit log. Append-only.
type AuditStore interface {
	AppendAudit(ctx context.Context, row AuditRow) error
}

// Store is the full storage surface used by the orchestrator and CLI.
type Store interface {
	IdentityStore
	RoomStore
	AttendanceStore
	AuditStore
}
