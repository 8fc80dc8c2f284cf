package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/floorlinehq/floorline/libs/db"
	"github.com/floorlinehq/floorline/services/queue-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres implements Store on a pgx pool. Active-slot uniqueness is
// enforced by a partial unique index over (provider_id, slot_date, slot_time)
// restricted to active statuses; see schema.sql. A violation surfaces here as
// ErrSlotTaken, which closes the check-then-insert race across processes.
type Postgres struct {
	pool *db.Pool
}

func NewPostgres(pool *db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const apptColumns = `id::text, customer_name, provider_id, service_name, price, ` +
	`to_char(slot_date, 'YYYY-MM-DD'), to_char(slot_time, 'HH24:MI'), status, ` +
	`created_at, checked_in_at, completed_at, cancelled_at, COALESCE(cancel_reason, '')`

func (p *Postgres) Insert(ctx context.Context, appt *model.Appointment) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(customer_name, provider_id, service_name, price, slot_date, slot_time, status)
		VALUES ($1, $2, $3, $4, $5::date, $6::time, $7)
		RETURNING id::text, created_at
	`, appt.CustomerName, appt.ProviderID, appt.ServiceName, appt.Price,
		appt.SlotDate, appt.SlotTime, string(appt.Status)).Scan(&appt.ID, &appt.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return wrapUnavailable(err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE id = $1::uuid
	`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, ErrNotFound
		}
		return model.Appointment{}, wrapUnavailable(err)
	}
	return appt, nil
}

func (p *Postgres) ActiveBySlot(ctx context.Context, providerID, date, slot string) ([]model.Appointment, error) {
	return p.list(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE provider_id = $1
			AND slot_date = $2::date
			AND slot_time = $3::time
			AND status IN ('pending', 'confirmed', 'checked_in')
		ORDER BY slot_time ASC
	`, providerID, date, slot)
}

func (p *Postgres) ActiveByProviderDay(ctx context.Context, providerID, date string) ([]model.Appointment, error) {
	return p.list(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE provider_id = $1
			AND slot_date = $2::date
			AND status IN ('pending', 'confirmed', 'checked_in')
		ORDER BY slot_time ASC
	`, providerID, date)
}

func (p *Postgres) ActiveOn(ctx context.Context, date string) ([]model.Appointment, error) {
	return p.list(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE slot_date = $1::date
			AND status IN ('pending', 'confirmed', 'checked_in')
		ORDER BY provider_id, slot_time ASC
	`, date)
}

func (p *Postgres) CheckedIn(ctx context.Context, date string) ([]model.Appointment, error) {
	return p.list(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE slot_date = $1::date
			AND status = 'checked_in'
		ORDER BY slot_time ASC
	`, date)
}

func (p *Postgres) Reservations(ctx context.Context) ([]model.Appointment, error) {
	return p.list(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE status IN ('pending', 'confirmed')
		ORDER BY slot_date, slot_time ASC
	`)
}

func (p *Postgres) UpdateStatus(ctx context.Context, id string, from []model.Status, to model.Status, at time.Time, reason string) (model.Appointment, error) {
	fromStrs := make([]string, 0, len(from))
	for _, s := range from {
		fromStrs = append(fromStrs, string(s))
	}

	row := p.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3,
			checked_in_at = CASE WHEN $3 = 'checked_in' THEN $4 ELSE checked_in_at END,
			completed_at  = CASE WHEN $3 = 'completed'  THEN $4 ELSE completed_at END,
			cancelled_at  = CASE WHEN $3 = 'cancelled'  THEN $4 ELSE cancelled_at END,
			cancel_reason = CASE WHEN $3 = 'cancelled'  THEN $5 ELSE cancel_reason END
		WHERE id = $1::uuid AND status = ANY($2)
		RETURNING `+apptColumns+`
	`, id, fromStrs, string(to), at, reason)

	appt, err := scanAppointment(row)
	if err == nil {
		return appt, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, wrapUnavailable(err)
	}

	// Guard matched nothing: distinguish a missing row from a stale status.
	if _, getErr := p.Get(ctx, id); getErr != nil {
		return model.Appointment{}, getErr
	}
	return model.Appointment{}, ErrStaleStatus
}

func (p *Postgres) ListDay(ctx context.Context, providerID, date string) ([]model.Appointment, error) {
	return p.list(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE provider_id = $1
			AND slot_date = $2::date
		ORDER BY slot_time ASC
	`, providerID, date)
}

func (p *Postgres) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, wrapUnavailable(err)
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, wrapUnavailable(rows.Err())
	}
	return appts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	err := row.Scan(
		&appt.ID,
		&appt.CustomerName,
		&appt.ProviderID,
		&appt.ServiceName,
		&appt.Price,
		&appt.SlotDate,
		&appt.SlotTime,
		&status,
		&appt.CreatedAt,
		&appt.CheckedInAt,
		&appt.CompletedAt,
		&appt.CancelledAt,
		&appt.CancelReason,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	return appt, nil
}

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
