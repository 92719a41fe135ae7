package database

import (
	"time"

	"github.com/facegate/facegate/internal/audit"
	"github.com/facegate/facegate/internal/authz"
	"github.com/facegate/facegate/internal/embedding"
)

// Identity is an enrolled person. Vector is nil until a face has been
// enrolled; identities without vectors cannot be matched.
type Identity struct {
	ID        string // external identifier, unique and stable
	Name      string
	Vector    embedding.Vector
	CreatedAt time.Time
}

// Room is a physical room controlled by the system.
type Room struct {
	Code string
	Name string
}

// AccessPolicy is the access rule for one (identity, room) pair. The store
// enforces at most one policy per pair.
type AccessPolicy struct {
	IdentityID  string
	RoomCode    string
	Allowed     bool
	AllowedFrom *authz.TimeOfDay
	AllowedTo   *authz.TimeOfDay
}

// AttendanceRow is one persisted access decision. Payload and Signature are
// stored verbatim as produced by the signer; rows are append-only.
type AttendanceRow struct {
	ID           int64
	IdentityID   string
	IdentityName string
	RoomCode     string
	Status       string
	Confidence   float64
	Payload      audit.Payload
	Signature    string
	CreatedAt    time.Time
}

// AuditRow is one persisted audit event. Actor may be sealed by the secret
// field codec before it reaches the store.
type AuditRow struct {
	ID        int64
	EventID   string
	Action    string
	Actor     string
	Source    string
	Payload   audit.Payload
	Signature string
	CreatedAt time.Time
}

// AttendanceBackupRow is a copy of an attendance row taken by the backup
// command, kept separately so the live table can be pruned.
type AttendanceBackupRow struct {
	ID         int64
	OriginalID int64
	IdentityID string
	RoomCode   string
	Status     string
	Confidence float64
	Payload    audit.Payload
	Signature  string
	OriginalAt time.Time
	BackupAt   time.Time
}

// AttendanceFilter narrows attendance listings. Query matches the identity
// name (diacritic-insensitive) or identifier; empty fields match everything.
type AttendanceFilter struct {
	Query  string
	Status string
	Limit  int
}
