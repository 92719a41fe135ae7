package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/facegate/facegate/internal/database"
)

func (s *Store) AppendAudit(ctx context.Context, row database.AuditRow) error {
	payload, err := json.Marshal(row.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_id, action, actor, source, payload, signature, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, row.EventID, row.Action, row.Actor, row.Source, payload, row.Signature, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
