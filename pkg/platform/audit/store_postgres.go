package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          TEXT PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	action      TEXT NOT NULL,
	record_id   TEXT NOT NULL DEFAULT '',
	record_type TEXT NOT NULL DEFAULT '',
	identity_id TEXT NOT NULL DEFAULT '',
	role        TEXT NOT NULL DEFAULT '',
	detail      TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT ''
);
`

// PostgresStore persists audit events durably.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore ensures the audit table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, auditSchema); err != nil {
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_events (id, occurred_at, action, record_id,
			record_type, identity_id, role, detail, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.NewString(), event.Timestamp, event.Action, event.RecordID,
		event.RecordType, event.IdentityID, event.Role, event.Detail,
		event.RequestID)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT occurred_at, action, record_id, record_type, identity_id,
			role, detail, request_id
		FROM audit_events ORDER BY occurred_at`)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Timestamp, &e.Action, &e.RecordID, &e.RecordType,
			&e.IdentityID, &e.Role, &e.Detail, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
