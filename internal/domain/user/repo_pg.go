package user

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

type userRepoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed account repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const userCols = `id, username, email, phone_number, password_hash, user_type,
	address, latitude, longitude, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.UserType,
		&u.Address, &u.Latitude, &u.Longitude, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, username, email, phone_number, password_hash, user_type, address)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		u.ID, u.Username, u.Email, u.PhoneNumber, u.PasswordHash, u.UserType, u.Address,
	).Scan(&u.CreatedAt)
}

func (r *userRepoPG) Lookup(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r *userRepoPG) FindRequesterByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1 AND user_type = $2`, email, TypeRequester))
}

func (r *userRepoPG) FindRequesterByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users
		WHERE (email = $1 OR phone_number = $1) AND user_type = $2`, identifier, TypeRequester))
}

func (r *userRepoPG) IdentityTaken(ctx context.Context, username, email, phone string) (bool, error) {
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM users WHERE username = $1 OR email = $2 OR phone_number = $3`,
		username, email, phone).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *userRepoPG) ListLocalOrganisations(ctx context.Context) ([]*LocalOrganisation, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, username, email, address, phone_number
		FROM users
		WHERE user_type = $1`, TypeLocalOrganisation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*LocalOrganisation
	for rows.Next() {
		var o LocalOrganisation
		if err := rows.Scan(&o.ID, &o.Name, &o.Email, &o.Address, &o.PhoneNumber); err != nil {
			return nil, err
		}
		orgs = append(orgs, &o)
	}
	return orgs, rows.Err()
}
