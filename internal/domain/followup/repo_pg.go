package followup

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

type followUpRepoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed follow-up repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &followUpRepoPG{pool: pool}
}

func (r *followUpRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *followUpRepoPG) Create(ctx context.Context, fu *FollowUp) error {
	fu.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO camp_follow_ups (id, camp_id, patient_identifier, notes, added_by_organizer_id, linked_patient_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		fu.ID, fu.CampID, fu.PatientIdentifier, fu.Notes, fu.AddedByOrganizerID, fu.LinkedPatientUserID,
	).Scan(&fu.CreatedAt)
}

func (r *followUpRepoPG) ListForCamp(ctx context.Context, campID uuid.UUID) ([]ListEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_identifier, notes, created_at, linked_patient_user_id
		FROM camp_follow_ups
		WHERE camp_id = $1
		ORDER BY created_at DESC`, campID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]ListEntry, 0)
	for rows.Next() {
		var e ListEntry
		if err := rows.Scan(&e.ID, &e.PatientIdentifier, &e.Notes, &e.CreatedAt,
			&e.LinkedPatientUserID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *followUpRepoPG) LatestForPatient(ctx context.Context, userID uuid.UUID, email, phone string) (*EligibleFollowUp, error) {
	var fu EligibleFollowUp
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT cf.id, cf.notes, c.name AS camp_name
		FROM camp_follow_ups cf
		JOIN camps c ON cf.camp_id = c.id
		WHERE cf.linked_patient_user_id = $1
		   OR cf.patient_identifier = $2
		   OR ($3 <> '' AND cf.patient_identifier = $3)
		ORDER BY cf.created_at DESC
		LIMIT 1`,
		userID, email, phone,
	).Scan(&fu.ID, &fu.Notes, &fu.CampName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fu, nil
}
