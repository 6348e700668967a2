package connection

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

type connectionRepoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed connection repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &connectionRepoPG{pool: pool}
}

func (r *connectionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *connectionRepoPG) CreateRequest(ctx context.Context, campID, organizerID, localOrgID uuid.UUID) (*RequestReceipt, error) {
	receipt := RequestReceipt{ID: uuid.New()}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO connection_requests (id, camp_id, organizer_id, local_org_id)
		VALUES ($1, $2, $3, $4)
		RETURNING status, requested_at`,
		receipt.ID, campID, organizerID, localOrgID,
	).Scan(&receipt.Status, &receipt.RequestedAt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *connectionRepoPG) FindRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, camp_id, organizer_id, local_org_id, status, requested_at, responded_at
		FROM connection_requests
		WHERE id = $1`, id,
	).Scan(&req.ID, &req.CampID, &req.OrganizerID, &req.LocalOrgID,
		&req.Status, &req.RequestedAt, &req.RespondedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *connectionRepoPG) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status string) (*ResponseReceipt, error) {
	var receipt ResponseReceipt
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE connection_requests
		SET status = $1, responded_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING id, status, responded_at`,
		status, id,
	).Scan(&receipt.ID, &receipt.Status, &receipt.RespondedAt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *connectionRepoPG) ListPendingForOrg(ctx context.Context, localOrgID uuid.UUID) ([]PendingRequest, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT cr.id AS request_id, cr.status, cr.requested_at,
			c.id AS camp_id, c.name AS camp_name, c.start_date AS camp_start_date,
			u.id AS organizer_id, u.username AS organizer_name
		FROM connection_requests cr
		JOIN camps c ON cr.camp_id = c.id
		JOIN users u ON cr.organizer_id = u.id
		WHERE cr.local_org_id = $1 AND cr.status = 'pending'
		ORDER BY cr.requested_at DESC`, localOrgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pending := make([]PendingRequest, 0)
	for rows.Next() {
		var p PendingRequest
		if err := rows.Scan(&p.RequestID, &p.Status, &p.RequestedAt, &p.CampID, &p.CampName,
			&p.CampStartDate, &p.OrganizerID, &p.OrganizerName); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (r *connectionRepoPG) ListForOrg(ctx context.Context, localOrgID uuid.UUID, statusFilter string) ([]Connection, error) {
	query := `
		SELECT cr.id AS connection_id, cr.camp_id, c.name AS camp_name,
			cr.organizer_id, u_org.username AS organizer_name,
			cr.status, cr.requested_at, cr.responded_at
		FROM connection_requests cr
		JOIN camps c ON cr.camp_id = c.id
		JOIN users u_org ON cr.organizer_id = u_org.id
		WHERE cr.local_org_id = $1`
	args := []interface{}{localOrgID}
	if statusFilter != "" {
		query += ` AND cr.status = $2`
		args = append(args, statusFilter)
	}
	query += ` ORDER BY cr.responded_at DESC, cr.requested_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	connections := make([]Connection, 0)
	for rows.Next() {
		var conn Connection
		if err := rows.Scan(&conn.ConnectionID, &conn.CampID, &conn.CampName, &conn.OrganizerID,
			&conn.OrganizerName, &conn.Status, &conn.RequestedAt, &conn.RespondedAt); err != nil {
			return nil, err
		}
		connections = append(connections, conn)
	}
	return connections, rows.Err()
}

func (r *connectionRepoPG) ListForCamp(ctx context.Context, campID, organizerID uuid.UUID) ([]CampConnection, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT cr.id AS connection_id, cr.local_org_id,
			u_local_org.username AS local_org_name, cr.status,
			cr.requested_at, cr.responded_at
		FROM connection_requests cr
		JOIN users u_local_org ON cr.local_org_id = u_local_org.id
		WHERE cr.camp_id = $1 AND cr.organizer_id = $2`, campID, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	connections := make([]CampConnection, 0)
	for rows.Next() {
		var conn CampConnection
		if err := rows.Scan(&conn.ConnectionID, &conn.LocalOrgID, &conn.LocalOrgName,
			&conn.Status, &conn.RequestedAt, &conn.RespondedAt); err != nil {
			return nil, err
		}
		connections = append(connections, conn)
	}
	return connections, rows.Err()
}

func (r *connectionRepoPG) ListMessages(ctx context.Context, connectionID uuid.UUID) ([]ChatMessage, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT cm.id, cm.sender_id, u.username AS sender_name, cm.message_text, cm.sent_at
		FROM chat_messages cm
		JOIN users u ON cm.sender_id = u.id
		WHERE cm.connection_request_id = $1
		ORDER BY cm.sent_at ASC`, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]ChatMessage, 0)
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.MessageText, &m.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *connectionRepoPG) CreateMessage(ctx context.Context, connectionID, senderID uuid.UUID, text string) (*ChatMessage, error) {
	q := r.conn(ctx)
	msg := ChatMessage{ID: uuid.New(), SenderID: senderID, MessageText: text}
	err := q.QueryRow(ctx, `
		INSERT INTO chat_messages (id, connection_request_id, sender_id, message_text)
		VALUES ($1, $2, $3, $4)
		RETURNING sent_at`,
		msg.ID, connectionID, senderID, text,
	).Scan(&msg.SentAt)
	if err != nil {
		return nil, err
	}

	err = q.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, senderID).Scan(&msg.SenderName)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return &msg, nil
}
