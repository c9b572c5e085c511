package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-task-manager/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_audit_entries (action, occurred_at, user_id, username, client_ip, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.Action, entry.OccurredAt, entry.UserID, entry.Username, entry.IP, entry.Status)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}
