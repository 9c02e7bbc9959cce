package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo persists calls in the calls table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const callColumns = `call_id, attendant_id, phone_id, start_time, end_time, status`

func scanCall(row interface{ Scan(dest ...any) error }) (Call, error) {
	var c Call
	err := row.Scan(
		&c.CallID,
		&c.AttendantID,
		&c.PhoneID,
		&c.StartTime,
		&c.EndTime,
		&c.Status,
	)
	return c, err
}

func (r *PostgresRepo) Create(ctx context.Context, c Call) error {
	const q = `
INSERT INTO calls (call_id, attendant_id, phone_id, start_time, end_time, status)
VALUES ($1,$2,$3,$4,$5,$6)
`
	_, err := r.db.ExecContext(ctx, q,
		c.CallID,
		c.AttendantID,
		c.PhoneID,
		c.StartTime,
		c.EndTime,
		c.Status,
	)
	return err
}

func (r *PostgresRepo) Find(ctx context.Context, callID string) (Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE call_id = $1
`
	c, err := scanCall(r.db.QueryRowContext(ctx, q, callID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func (r *PostgresRepo) Close(ctx context.Context, callID string, status CallStatus, endTime time.Time) (Call, bool, error) {
	// End time and status land in one statement. The self-join reads the
	// row's pre-update end_time, so the caller learns whether this write was
	// the one that closed the call.
	const q = `
UPDATE calls AS c
SET end_time = $2,
    status = $3
FROM calls AS prior
WHERE c.call_id = $1
  AND prior.call_id = c.call_id
RETURNING c.call_id, c.attendant_id, c.phone_id, c.start_time, c.end_time, c.status,
          (prior.end_time IS NULL)
`
	var c Call
	var wasOpen bool
	err := r.db.QueryRowContext(ctx, q, callID, endTime, status).Scan(
		&c.CallID,
		&c.AttendantID,
		&c.PhoneID,
		&c.StartTime,
		&c.EndTime,
		&c.Status,
		&wasOpen,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, false, ErrNotFound
		}
		return Call{}, false, err
	}
	return c, wasOpen, nil
}

func (r *PostgresRepo) ListByAttendant(ctx context.Context, attendantID string, status *CallStatus) ([]Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE attendant_id = $1
  AND ($2::text IS NULL OR status = $2)
ORDER BY start_time
`
	var filter *string
	if status != nil {
		s := string(*status)
		filter = &s
	}
	rows, err := r.db.QueryContext(ctx, q, attendantID, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListByPhone(ctx context.Context, phoneID string) ([]Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE phone_id = $1
ORDER BY start_time
`
	rows, err := r.db.QueryContext(ctx, q, phoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
