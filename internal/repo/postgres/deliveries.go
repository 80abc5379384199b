package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventlocator/internal/domain/delivery"
)

type DeliveriesRepo struct {
	pool *pgxpool.Pool
}

func NewDeliveriesRepo(pool *pgxpool.Pool) *DeliveriesRepo {
	return &DeliveriesRepo{pool: pool}
}

// TryStart claims the reminder for one event. Exactly one worker wins the
// insert; a redelivered duplicate gets ErrAlreadySent or ErrInProgress
// unless the previous attempt failed, in which case the claim flips
// failed -> sending atomically.
func (r *DeliveriesRepo) TryStart(ctx context.Context, jobID, eventID string) error {
	kind := delivery.KindEventReminder

	// 1) Insert if missing
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_deliveries (kind, event_id, job_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'sending', NOW(), NOW())
	`, kind, eventID, jobID)

	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// 2) Row exists. If it was failed, claim it for retry by switching back
	// to sending. Atomic: only one worker can flip failed -> sending.
	tag, uErr := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'sending',
		    job_id = $3,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE kind = $1 AND event_id = $2 AND status = 'failed'
	`, kind, eventID, jobID)

	if uErr != nil {
		return uErr
	}
	if tag.RowsAffected() == 1 {
		return nil // we successfully claimed the retry
	}

	// 3) Not failed. Determine whether it's already sent or currently sending.
	var status string
	var sentAt *time.Time

	qErr := r.pool.QueryRow(ctx, `
		SELECT status, sent_at
		FROM notification_deliveries
		WHERE kind = $1 AND event_id = $2
	`, kind, eventID).Scan(&status, &sentAt)

	if qErr != nil {
		if errors.Is(qErr, pgx.ErrNoRows) {
			// row disappeared; let caller retry
			return nil
		}
		return qErr
	}

	if sentAt != nil || status == "sent" {
		return delivery.ErrAlreadySent
	}

	// status == "sending"
	return delivery.ErrInProgress
}

func (r *DeliveriesRepo) MarkSent(ctx context.Context, eventID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'sent',
		    sent_at = NOW(),
		    last_error = NULL,
		    updated_at = NOW()
		WHERE kind = $1 AND event_id = $2
	`, delivery.KindEventReminder, eventID)

	return err
}

func (r *DeliveriesRepo) MarkFailed(ctx context.Context, eventID string, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'failed',
		    last_error = $3,
		    updated_at = NOW()
		WHERE kind = $1 AND event_id = $2
	`, delivery.KindEventReminder, eventID, errMsg)

	return err
}
