package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/facegate/facegate/internal/database"
)

const defaultAttendanceLimit = 200

func (s *Store) AppendAttendance(ctx context.Context, row database.AttendanceRow) error {
	payload, err := json.Marshal(row.Payload)
	if err != nil {
		return fmt.Errorf("marshal attendance payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attendance (identity_id, identity_name, identity_name_normalized, room_code, status, confidence, payload, signature, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, row.IdentityID, row.IdentityName, database.NormalizeName(row.IdentityName),
		row.RoomCode, row.Status, row.Confidence, payload, row.Signature, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("append attendance: %w", err)
	}
	return nil
}

func (s *Store) ListAttendance(ctx context.Context, filter database.AttendanceFilter) ([]database.AttendanceRow, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAttendanceLimit
	}

	query := `
		SELECT id, identity_id, identity_name, room_code, status, confidence, payload, signature, created_at
		FROM attendance
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR identity_id ILIKE '%' || $2 || '%'
		       OR identity_name_normalized LIKE '%' || $3 || '%')
		ORDER BY created_at DESC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query,
		filter.Status, filter.Query, database.NormalizeName(filter.Query), limit)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []database.AttendanceRow
	for rows.Next() {
		var row database.AttendanceRow
		var payload []byte
		if err := rows.Scan(&row.ID, &row.IdentityID, &row.IdentityName, &row.RoomCode,
			&row.Status, &row.Confidence, &payload, &row.Signature, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance row: %w", err)
		}
		if err := json.Unmarshal(payload, &row.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal attendance payload: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) CountAttendance(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendance").Scan(&count)
	return count, err
}

func (s *Store) AppendAttendanceBackup(ctx context.Context, row database.AttendanceBackupRow) error {
	payload, err := json.Marshal(row.Payload)
	if err != nil {
		return fmt.Errorf("marshal backup payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attendance_backup (original_attendance_id, identity_id, room_code, status, confidence, payload, signature, original_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, row.OriginalID, row.IdentityID, row.RoomCode, row.Status, row.Confidence,
		payload, row.Signature, row.OriginalAt)
	if err != nil {
		return fmt.Errorf("append attendance backup: %w", err)
	}
	return nil
}
