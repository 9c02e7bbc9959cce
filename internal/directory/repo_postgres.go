package directory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callcenter-api/pkg/utils"
)

// PostgresRepo persists persons and phones.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const personColumns = `person_id, name, tax_id, created_at, deleted_at`
const phoneColumns = `phone_id, area, phone_number, person_id, created_at, deleted_at`

func scanPerson(row interface{ Scan(dest ...any) error }) (Person, error) {
	var p Person
	err := row.Scan(&p.PersonID, &p.Name, &p.TaxID, &p.CreatedAt, &p.DeletedAt)
	return p, err
}

func scanPhone(row interface{ Scan(dest ...any) error }) (Phone, error) {
	var ph Phone
	err := row.Scan(&ph.PhoneID, &ph.Area, &ph.PhoneNumber, &ph.PersonID, &ph.CreatedAt, &ph.DeletedAt)
	return ph, err
}

func (r *PostgresRepo) CreatePerson(ctx context.Context, p Person) error {
	// Person and initial phones land in one transaction.
	return utils.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
INSERT INTO persons (person_id, name, tax_id, created_at, deleted_at)
VALUES ($1,$2,$3,$4,$5)
`
		if _, err := tx.ExecContext(ctx, q, p.PersonID, p.Name, p.TaxID, p.CreatedAt, p.DeletedAt); err != nil {
			return err
		}
		for _, ph := range p.Phones {
			if err := insertPhoneTx(ctx, tx, ph); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertPhoneTx(ctx context.Context, tx *sql.Tx, ph Phone) error {
	// The unique (person_id, phone_number) index backstops the service-level
	// dedupe; a concurrent insert of the same number is silently dropped
	// instead of producing a duplicate row.
	const q = `
INSERT INTO phones (phone_id, area, phone_number, person_id, created_at, deleted_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (person_id, phone_number) DO NOTHING
`
	_, err := tx.ExecContext(ctx, q, ph.PhoneID, ph.Area, ph.PhoneNumber, ph.PersonID, ph.CreatedAt, ph.DeletedAt)
	return err
}

func (r *PostgresRepo) FindPerson(ctx context.Context, personID string) (Person, error) {
	const q = `
SELECT ` + personColumns + `
FROM persons
WHERE person_id = $1
`
	p, err := scanPerson(r.db.QueryRowContext(ctx, q, personID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Person{}, ErrNotFound
		}
		return Person{}, err
	}
	phones, err := r.ListPhonesByPerson(ctx, personID)
	if err != nil {
		return Person{}, err
	}
	p.Phones = phones
	return p, nil
}

func (r *PostgresRepo) ListPersons(ctx context.Context) ([]Person, error) {
	const q = `
SELECT ` + personColumns + `
FROM persons
WHERE deleted_at IS NULL
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		phones, err := r.ListPhonesByPerson(ctx, out[i].PersonID)
		if err != nil {
			return nil, err
		}
		out[i].Phones = phones
	}
	return out, nil
}

func (r *PostgresRepo) SoftDeletePerson(ctx context.Context, personID string, now time.Time) (Person, error) {
	const q = `
UPDATE persons
SET deleted_at = $2
WHERE person_id = $1 AND deleted_at IS NULL
RETURNING ` + personColumns + `
`
	p, err := scanPerson(r.db.QueryRowContext(ctx, q, personID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Person{}, ErrNotFound
		}
		return Person{}, err
	}
	return p, nil
}

func (r *PostgresRepo) InsertPhones(ctx context.Context, phones []Phone) error {
	return utils.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		for _, ph := range phones {
			if err := insertPhoneTx(ctx, tx, ph); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepo) ListPhonesByPerson(ctx context.Context, personID string) ([]Phone, error) {
	const q = `
SELECT ` + phoneColumns + `
FROM phones
WHERE person_id = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Phone, 0)
	for rows.Next() {
		ph, err := scanPhone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ph)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) FindPhone(ctx context.Context, phoneID string) (Phone, error) {
	const q = `
SELECT ` + phoneColumns + `
FROM phones
WHERE phone_id = $1
`
	ph, err := scanPhone(r.db.QueryRowContext(ctx, q, phoneID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Phone{}, ErrNotFound
		}
		return Phone{}, err
	}
	return ph, nil
}

func (r *PostgresRepo) FindPhonesByNumber(ctx context.Context, phoneNumber string) ([]PhoneWithOwner, error) {
	const q = `
SELECT ph.phone_id, ph.area, ph.phone_number, ph.person_id, ph.created_at, ph.deleted_at,
       pe.person_id, pe.name, pe.tax_id, pe.created_at, pe.deleted_at
FROM phones ph
JOIN persons pe ON pe.person_id = ph.person_id
WHERE ph.phone_number = $1
ORDER BY ph.created_at
`
	rows, err := r.db.QueryContext(ctx, q, phoneNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PhoneWithOwner, 0)
	for rows.Next() {
		var m PhoneWithOwner
		if err := rows.Scan(
			&m.PhoneID,
			&m.Area,
			&m.PhoneNumber,
			&m.PersonID,
			&m.CreatedAt,
			&m.DeletedAt,
			&m.Person.PersonID,
			&m.Person.Name,
			&m.Person.TaxID,
			&m.Person.CreatedAt,
			&m.Person.DeletedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) DeletePhone(ctx context.Context, phoneID string) error {
	const q = `
DELETE FROM phones
WHERE phone_id = $1
`
	res, err := r.db.ExecContext(ctx, q, phoneID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
