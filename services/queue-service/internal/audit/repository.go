// Package audit records one structured row per accepted lifecycle
// transition. Format and retention are a collaborator concern; the engine
// only writes.
package audit

import (
	"context"
	"time"

	"github.com/floorlinehq/floorline/libs/db"
)

type Entry struct {
	AppointmentID string
	Action        string
	ActorID       string
	ActorRole     string
	FromStatus    string
	ToStatus      string
}

type Log interface {
	Record(ctx context.Context, e Entry) error
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Record(ctx context.Context, e Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (appointment_id, action, actor_id, actor_role, from_status, to_status)
		VALUES (NULLIF($1, '')::uuid, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
	`, e.AppointmentID, e.Action, e.ActorID, e.ActorRole, e.FromStatus, e.ToStatus)
	return err
}

type Event struct {
	ID            int64     `json:"id"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	Action        string    `json:"action"`
	ActorID       string    `json:"actor_id,omitempty"`
	ActorRole     string    `json:"actor_role,omitempty"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(appointment_id::text, ''), action,
			COALESCE(actor_id, ''), COALESCE(actor_role, ''),
			COALESCE(from_status, ''), COALESCE(to_status, ''), created_at
		FROM audit_events
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.AppointmentID, &e.Action, &e.ActorID, &e.ActorRole, &e.FromStatus, &e.ToStatus, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

// Nop discards entries; used when running without a database.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
