package assistant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcamp/medcamp/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type assistantRepoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed assistant repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &assistantRepoPG{pool: pool}
}

func (r *assistantRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *assistantRepoPG) ContextByRecord(ctx context.Context, recordID, userID uuid.UUID) (*PatientContext, error) {
	var pc PatientContext
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT name, disease_detected, area_location FROM patients WHERE id = $1 AND user_id = $2`,
		recordID, userID).Scan(&pc.Name, &pc.Disease, &pc.Location)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *assistantRepoPG) LatestContext(ctx context.Context, userID uuid.UUID) (*PatientContext, error) {
	var pc PatientContext
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT name, disease_detected, area_location
		FROM patients
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, userID).Scan(&pc.Name, &pc.Disease, &pc.Location)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *assistantRepoPG) SaveMessage(ctx context.Context, msg *ChatMessage) error {
	msg.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_chat_messages (id, patient_user_id, patient_record_id, message_text, sender_type, language)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING timestamp`,
		msg.ID, msg.PatientUserID, msg.PatientRecordID, msg.MessageText, msg.SenderType, msg.Language,
	).Scan(&msg.Timestamp)
}
