package review

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

type reviewRepoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed review repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &reviewRepoPG{pool: pool}
}

func (r *reviewRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *reviewRepoPG) Create(ctx context.Context, rv *Review) error {
	rv.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO camp_reviews (id, camp_id, patient_user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		rv.ID, rv.CampID, rv.PatientUserID, rv.Rating, rv.Comment,
	).Scan(&rv.CreatedAt)
}

func (r *reviewRepoPG) ExistsForUser(ctx context.Context, campID, userID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM camp_reviews WHERE camp_id = $1 AND patient_user_id = $2`,
		campID, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *reviewRepoPG) ListForCamp(ctx context.Context, campID uuid.UUID) ([]CampReview, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT cr.id, cr.patient_user_id, u.username AS patient_name, cr.rating, cr.comment, cr.created_at
		FROM camp_reviews cr
		JOIN users u ON cr.patient_user_id = u.id
		WHERE cr.camp_id = $1
		ORDER BY cr.created_at DESC`, campID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]CampReview, 0)
	for rows.Next() {
		var rv CampReview
		if err := rows.Scan(&rv.ID, &rv.PatientUserID, &rv.PatientName, &rv.Rating,
			&rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
