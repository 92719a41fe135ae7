// Package mock is an in-memory database.Store for tests and local runs
// without PostgreSQL.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/facegate/facegate/internal/database"
)

// Store implements database.Store in memory. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	identities map[string]database.Identity
	rooms      map[string]database.Room
	policies   map[string]database.AccessPolicy // keyed identityID + "\x00" + roomCode
	attendance []database.AttendanceRow
	audit      []database.AuditRow
	backups    []database.AttendanceBackupRow
	nextID     int64
}

func New() *Store {
	return &Store{
		identities: make(map[string]database.Identity),
		rooms:      make(map[string]database.Room),
		policies:   make(map[string]database.AccessPolicy),
		nextID:     1,
	}
}

func policyKey(identityID, roomCode string) string {
	return identityID + "\x00" + roomCode
}

func (s *Store) UpsertIdentity(_ context.Context, identity database.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.identities[identity.ID]; ok && len(identity.Vector) == 0 {
		identity.Vector = existing.Vector
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}
	s.identities[identity.ID] = identity
	return nil
}

func (s *Store) GetIdentity(_ context.Context, id string) (*database.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[id]
	if !ok {
		return nil, nil
	}
	return &identity, nil
}

func (s *Store) ListIdentities(_ context.Context) ([]database.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]database.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		out = append(out, identity)
	}
	// Stable order by ID, matching the postgres backend.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpsertRoom(_ context.Context, room database.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code] = room
	return nil
}

func (s *Store) GetRoom(_ context.Context, code string) (*database.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (s *Store) UpsertPolicy(_ context.Context, policy database.AccessPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policyKey(policy.IdentityID, policy.RoomCode)] = policy
	return nil
}

func (s *Store) GetPolicy(_ context.Context, identityID, roomCode string) (*database.AccessPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[policyKey(identityID, roomCode)]
	if !ok {
		return nil, nil
	}
	return &policy, nil
}

func (s *Store) AppendAttendance(_ context.Context, row database.AttendanceRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row.ID = s.nextID
	s.nextID++
	s.attendance = append(s.attendance, row)
	return nil
}

func (s *Store) ListAttendance(_ context.Context, filter database.AttendanceFilter) ([]database.AttendanceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query := database.NormalizeName(filter.Query)

	var out []database.AttendanceRow
	// Newest first, like the postgres backend.
	for i := len(s.attendance) - 1; i >= 0 && len(out) < limit; i-- {
		row := s.attendance[i]
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(row.IdentityID), strings.ToLower(filter.Query)) &&
			!strings.Contains(database.NormalizeName(row.IdentityName), query) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) CountAttendance(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attendance), nil
}

func (s *Store) AppendAttendanceBackup(_ context.Context, row database.AttendanceBackupRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row.ID = int64(len(s.backups) + 1)
	if row.BackupAt.IsZero() {
		row.BackupAt = time.Now()
	}
	s.backups = append(s.backups, row)
	return nil
}

func (s *Store) AppendAudit(_ context.Context, row database.AuditRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row.ID = s.nextID
	s.nextID++
	s.audit = append(s.audit, row)
	return nil
}

// AuditRows returns a copy of the audit log for assertions in tests.
func (s *Store) AuditRows() []database.AuditRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]database.AuditRow(nil), s.audit...)
}

// BackupRows returns a copy of the backup table for assertions in tests.
func (s *Store) BackupRows() []database.AttendanceBackupRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]database.AttendanceBackupRow(nil), s.backups...)
}
