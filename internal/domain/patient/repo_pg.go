package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcamp/medcamp/internal/domain/camp"
	"github.com/medcamp/medcamp/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type patientRepoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed patient repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `p.id, p.camp_id, c.name AS camp_name, p.user_id, p.name, p.email, p.phone_number,
	p.disease_detected, p.area_location, p.organizer_notes, p.created_by_organizer_id, p.created_at`

func scanPatients(rows pgx.Rows) ([]*Patient, error) {
	defer rows.Close()
	var patients []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.CampID, &p.CampName, &p.UserID, &p.Name, &p.Email,
			&p.PhoneNumber, &p.DiseaseDetected, &p.AreaLocation, &p.OrganizerNotes,
			&p.CreatedByOrganizerID, &p.CreatedAt); err != nil {
			return nil, err
		}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, camp_id, user_id, name, email, phone_number,
			disease_detected, area_location, organizer_notes, created_by_organizer_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at`,
		p.ID, p.CampID, p.UserID, p.Name, p.Email, p.PhoneNumber,
		p.DiseaseDetected, p.AreaLocation, p.OrganizerNotes, p.CreatedByOrganizerID,
	).Scan(&p.CreatedAt)
}

func (r *patientRepoPG) ExistsInCamp(ctx context.Context, campID uuid.UUID, email string) (bool, error) {
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM patients WHERE email = $1 AND camp_id = $2`, email, campID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *patientRepoPG) ListByCamp(ctx context.Context, campID uuid.UUID) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+`
		FROM patients p
		JOIN camps c ON p.camp_id = c.id
		WHERE p.camp_id = $1
		ORDER BY p.name`, campID)
	if err != nil {
		return nil, err
	}
	return scanPatients(rows)
}

func (r *patientRepoPG) LinkUserByEmail(ctx context.Context, userID uuid.UUID, email string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET user_id = $1
		WHERE email = $2 AND user_id IS NULL AND camp_id IS NOT NULL`, userID, email)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *patientRepoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+`
		FROM patients p
		LEFT JOIN camps c ON p.camp_id = c.id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanPatients(rows)
}

func (r *patientRepoPG) ListUnlinkedByEmail(ctx context.Context, email string) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+`
		FROM patients p
		JOIN camps c ON p.camp_id = c.id
		WHERE p.email = $1 AND p.user_id IS NULL
		ORDER BY p.created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return scanPatients(rows)
}

func (r *patientRepoPG) SeedProfile(ctx context.Context, userID uuid.UUID, name, email, phone string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, user_id, name, email, phone_number, camp_id, created_by_organizer_id)
		VALUES ($1, $2, $3, $4, $5, NULL, NULL)`,
		uuid.New(), userID, name, email, phone)
	return err
}

func (r *patientRepoPG) RosterForCamp(ctx context.Context, campID uuid.UUID) ([]camp.ReportPatient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT name, email, phone_number, disease_detected, area_location, organizer_notes
		FROM patients
		WHERE camp_id = $1
		ORDER BY name`, campID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []camp.ReportPatient
	for rows.Next() {
		var p camp.ReportPatient
		if err := rows.Scan(&p.Name, &p.Email, &p.PhoneNumber, &p.DiseaseDetected,
			&p.AreaLocation, &p.OrganizerNotes); err != nil {
			return nil, err
		}
		roster = append(roster, p)
	}
	return roster, rows.Err()
}
