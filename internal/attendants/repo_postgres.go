package attendants

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo persists attendants in the attendants table.
//
// Token issuance and soft delete are single UPDATE statements guarded by
// deleted_at IS NULL; the RETURNING clause makes each mutation atomic and
// race-free without explicit row locks.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const attendantColumns = `attendant_id, name, is_online, token_id, token_expires_at, created_at, deleted_at`

func scanAttendant(row interface{ Scan(dest ...any) error }) (Attendant, error) {
	var a Attendant
	err := row.Scan(
		&a.AttendantID,
		&a.Name,
		&a.IsOnline,
		&a.TokenID,
		&a.TokenExpiresAt,
		&a.CreatedAt,
		&a.DeletedAt,
	)
	return a, err
}

func (r *PostgresRepo) Create(ctx context.Context, a Attendant) error {
	const q = `
INSERT INTO attendants (attendant_id, name, is_online, token_id, token_expires_at, created_at, deleted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := r.db.ExecContext(ctx, q,
		a.AttendantID,
		a.Name,
		a.IsOnline,
		a.TokenID,
		a.TokenExpiresAt,
		a.CreatedAt,
		a.DeletedAt,
	)
	return err
}

func (r *PostgresRepo) Find(ctx context.Context, attendantID string) (Attendant, error) {
	const q = `
SELECT ` + attendantColumns + `
FROM attendants
WHERE attendant_id = $1
`
	a, err := scanAttendant(r.db.QueryRowContext(ctx, q, attendantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attendant{}, ErrNotFound
		}
		return Attendant{}, err
	}
	return a, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Attendant, error) {
	const q = `
SELECT ` + attendantColumns + `
FROM attendants
WHERE deleted_at IS NULL
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Attendant, 0)
	for rows.Next() {
		a, err := scanAttendant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateProfile(ctx context.Context, attendantID string, name *string, isOnline *bool) (Attendant, error) {
	const q = `
UPDATE attendants
SET name = COALESCE($2, name),
    is_online = COALESCE($3, is_online)
WHERE attendant_id = $1 AND deleted_at IS NULL
RETURNING ` + attendantColumns + `
`
	a, err := scanAttendant(r.db.QueryRowContext(ctx, q, attendantID, name, isOnline))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attendant{}, ErrNotFound
		}
		return Attendant{}, err
	}
	return a, nil
}

func (r *PostgresRepo) UpdateToken(ctx context.Context, attendantID, tokenID string, expiresAt time.Time) (Attendant, error) {
	// Both token fields change in one statement; a concurrent authorize read
	// sees either the old pair or the new pair, never a mix.
	const q = `
UPDATE attendants
SET token_id = $2,
    token_expires_at = $3
WHERE attendant_id = $1 AND deleted_at IS NULL
RETURNING ` + attendantColumns + `
`
	a, err := scanAttendant(r.db.QueryRowContext(ctx, q, attendantID, tokenID, expiresAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attendant{}, ErrNotFound
		}
		return Attendant{}, err
	}
	return a, nil
}

func (r *PostgresRepo) SoftDelete(ctx context.Context, attendantID string, now time.Time) (Attendant, error) {
	const q = `
UPDATE attendants
SET deleted_at = $2
WHERE attendant_id = $1 AND deleted_at IS NULL
RETURNING ` + attendantColumns + `
`
	a, err := scanAttendant(r.db.QueryRowContext(ctx, q, attendantID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attendant{}, ErrNotFound
		}
		return Attendant{}, err
	}
	return a, nil
}
