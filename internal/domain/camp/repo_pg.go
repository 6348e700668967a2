package camp

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

type campRepoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed camp repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &campRepoPG{pool: pool}
}

func (r *campRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const campCols = `id, name, description, location_latitude, location_longitude, location_address,
	start_date, end_date, organizer_id, status, target_patients, geohash, created_at, updated_at`

const summaryCols = `id, name, description, location_latitude, location_longitude, location_address,
	start_date, end_date, organizer_id, status, target_patients`

func scanCamp(row pgx.Row) (*Camp, error) {
	var c Camp
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.LocationLatitude, &c.LocationLongitude,
		&c.LocationAddress, &c.StartDate, &c.EndDate, &c.OrganizerID, &c.Status,
		&c.TargetPatients, &c.Geohash, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanSummaries(rows pgx.Rows) ([]*Summary, error) {
	defer rows.Close()
	var camps []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Lat, &s.Lng, &s.LocationAddress,
			&s.StartDate, &s.EndDate, &s.OrganizerID, &s.Status, &s.TargetPatients); err != nil {
			return nil, err
		}
		camps = append(camps, &s)
	}
	return camps, rows.Err()
}

func (r *campRepoPG) Create(ctx context.Context, c *Camp) error {
	c.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO camps (id, name, description, location_latitude, location_longitude,
			location_address, start_date, end_date, organizer_id, status, geohash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING target_patients, created_at, updated_at`,
		c.ID, c.Name, c.Description, c.LocationLatitude, c.LocationLongitude,
		c.LocationAddress, c.StartDate, c.EndDate, c.OrganizerID, c.Status, c.Geohash,
	).Scan(&c.TargetPatients, &c.CreatedAt, &c.UpdatedAt)
}

func (r *campRepoPG) FindByID(ctx context.Context, id uuid.UUID) (*Camp, error) {
	return scanCamp(r.conn(ctx).QueryRow(ctx, `SELECT `+campCols+` FROM camps WHERE id = $1`, id))
}

func (r *campRepoPG) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+summaryCols+`
		FROM camps
		WHERE organizer_id = $1
		ORDER BY start_date DESC`, organizerID)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func (r *campRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM camps WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *campRepoPG) ListPublic(ctx context.Context) ([]*Ref, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name
		FROM camps
		WHERE status IN ($1, $2, $3)
		ORDER BY name ASC`, StatusActive, StatusCompleted, StatusPlanned)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []*Ref
	for rows.Next() {
		var ref Ref
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, &ref)
	}
	return refs, rows.Err()
}

func (r *campRepoPG) ListByGeohashPrefixes(ctx context.Context, prefixes []string) ([]*Summary, error) {
	patterns := make([]string, len(prefixes))
	for i, p := range prefixes {
		patterns[i] = p + "%"
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+summaryCols+`
		FROM camps
		WHERE geohash LIKE ANY($1)`, patterns)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func (r *campRepoPG) SetTargetPatients(ctx context.Context, campID uuid.UUID, target int) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE camps SET target_patients = $1, updated_at = now() WHERE id = $2`, target, campID)
	return err
}

func (r *campRepoPG) ListStaff(ctx context.Context, campID uuid.UUID) ([]*StaffMember, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, role, origin, contact, notes
		FROM camp_staff
		WHERE camp_id = $1`, campID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []*StaffMember
	for rows.Next() {
		var m StaffMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Origin, &m.Contact, &m.Notes); err != nil {
			return nil, err
		}
		staff = append(staff, &m)
	}
	return staff, rows.Err()
}

func (r *campRepoPG) ListMedicines(ctx context.Context, campID uuid.UUID) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, unit, quantity_per_patient, notes
		FROM camp_medicines
		WHERE camp_id = $1`, campID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []*Medicine
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.QuantityPerPatient, &m.Notes); err != nil {
			return nil, err
		}
		meds = append(meds, &m)
	}
	return meds, rows.Err()
}

func (r *campRepoPG) ListEquipment(ctx context.Context, campID uuid.UUID) ([]*Equipment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, quantity, notes
		FROM camp_equipment
		WHERE camp_id = $1`, campID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var equipment []*Equipment
	for rows.Next() {
		var e Equipment
		if err := rows.Scan(&e.ID, &e.Name, &e.Quantity, &e.Notes); err != nil {
			return nil, err
		}
		equipment = append(equipment, &e)
	}
	return equipment, rows.Err()
}

func (r *campRepoPG) ReplaceStaff(ctx context.Context, campID uuid.UUID, staff []StaffInput) error {
	conn := r.conn(ctx)
	if _, err := conn.Exec(ctx, `DELETE FROM camp_staff WHERE camp_id = $1`, campID); err != nil {
		return err
	}
	for _, m := range staff {
		_, err := conn.Exec(ctx, `
			INSERT INTO camp_staff (id, camp_id, name, role, origin, contact, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.New(), campID, m.Name, m.Role, m.Origin, m.Contact, m.Notes)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *campRepoPG) ReplaceMedicines(ctx context.Context, campID uuid.UUID, medicines []MedicineInput) error {
	conn := r.conn(ctx)
	if _, err := conn.Exec(ctx, `DELETE FROM camp_medicines WHERE camp_id = $1`, campID); err != nil {
		return err
	}
	for _, m := range medicines {
		_, err := conn.Exec(ctx, `
			INSERT INTO camp_medicines (id, camp_id, name, unit, quantity_per_patient, notes)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			uuid.New(), campID, m.Name, m.Unit, m.QuantityPerPatient, m.Notes)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *campRepoPG) ReplaceEquipment(ctx context.Context, campID uuid.UUID, equipment []EquipmentInput) error {
	conn := r.conn(ctx)
	if _, err := conn.Exec(ctx, `DELETE FROM camp_equipment WHERE camp_id = $1`, campID); err != nil {
		return err
	}
	for _, e := range equipment {
		_, err := conn.Exec(ctx, `
			INSERT INTO camp_equipment (id, camp_id, name, quantity, notes)
			VALUES ($1,$2,$3,$4,$5)`,
			uuid.New(), campID, e.Name, e.Quantity, e.Notes)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *campRepoPG) CreateRegistration(ctx context.Context, reg *Registration) error {
	reg.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO camp_registrations (id, camp_id, user_id, status, notes)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING registration_date`,
		reg.ID, reg.CampID, reg.UserID, reg.Status, reg.Notes,
	).Scan(&reg.RegistrationDate)
}

func (r *campRepoPG) ListRegistrations(ctx context.Context, campID uuid.UUID) ([]*RegistrationDetail, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT r.id, r.camp_id, r.user_id, r.status, r.notes, r.registration_date, u.username
		FROM camp_registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.camp_id = $1
		ORDER BY r.registration_date DESC`, campID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*RegistrationDetail
	for rows.Next() {
		var d RegistrationDetail
		if err := rows.Scan(&d.ID, &d.CampID, &d.UserID, &d.Status, &d.Notes,
			&d.RegistrationDate, &d.Username); err != nil {
			return nil, err
		}
		regs = append(regs, &d)
	}
	return regs, rows.Err()
}
