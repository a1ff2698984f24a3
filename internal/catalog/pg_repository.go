package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgCatalog stores services and stylists in Postgres.
type PgCatalog struct {
	pool *pgxpool.Pool
}

func NewPgCatalog(pool *pgxpool.Pool) *PgCatalog {
	return &PgCatalog{pool: pool}
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS services (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	duration_minutes INTEGER NOT NULL,
	price            BIGINT NOT NULL,
	category         TEXT NOT NULL DEFAULT '',
	icon             TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stylists (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	specialties TEXT[] NOT NULL DEFAULT '{}',
	rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
	experience  TEXT NOT NULL DEFAULT '',
	schedule    JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (r *PgCatalog) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, catalogSchema); err != nil {
		return fmt.Errorf("create catalog schema: %w", err)
	}
	return nil
}

// Helpers

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.Duration,
		&s.Price,
		&s.Category,
		&s.Icon,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanStylist(row pgx.Row) (*Stylist, error) {
	var s Stylist
	var schedule []byte

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Email,
		&s.Phone,
		&s.Specialties,
		&s.Rating,
		&s.Experience,
		&schedule,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStylistNotFound
		}
		return nil, err
	}

	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &s.Schedule); err != nil {
			return nil, fmt.Errorf("decode schedule for stylist %s: %w", s.ID, err)
		}
	}
	return &s, nil
}

// Interface methods

func (r *PgCatalog) Services(ctx context.Context) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, duration_minutes, price, category, icon
		FROM services
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgCatalog) Service(ctx context.Context, id string) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, duration_minutes, price, category, icon
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgCatalog) Stylists(ctx context.Context) ([]Stylist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, phone, specialties, rating, experience, schedule
		FROM stylists
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Stylist
	for rows.Next() {
		s, err := scanStylist(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgCatalog) Stylist(ctx context.Context, id string) (*Stylist, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, specialties, rating, experience, schedule
		FROM stylists
		WHERE id = $1
	`, id)
	return scanStylist(row)
}

func (r *PgCatalog) UpsertService(ctx context.Context, s Service) error {
	if err := s.validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, name, description, duration_minutes, price, category, icon)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    duration_minutes = EXCLUDED.duration_minutes,
		    price = EXCLUDED.price,
		    category = EXCLUDED.category,
		    icon = EXCLUDED.icon,
		    updated_at = now()
	`, s.ID, s.Name, s.Description, s.Duration, s.Price, s.Category, s.Icon)
	if err != nil {
		return fmt.Errorf("upsert service: %w", err)
	}
	return nil
}

func (r *PgCatalog) DeleteService(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PgCatalog) UpsertStylist(ctx context.Context, s Stylist) error {
	if err := s.validate(); err != nil {
		return err
	}
	schedule, err := json.Marshal(s.Schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	specialties := s.Specialties
	if specialties == nil {
		specialties = []string{}
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO stylists (id, name, email, phone, specialties, rating, experience, schedule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    phone = EXCLUDED.phone,
		    specialties = EXCLUDED.specialties,
		    rating = EXCLUDED.rating,
		    experience = EXCLUDED.experience,
		    schedule = EXCLUDED.schedule,
		    updated_at = now()
	`, s.ID, s.Name, s.Email, s.Phone, specialties, s.Rating, s.Experience, string(schedule))
	if err != nil {
		return fmt.Errorf("upsert stylist: %w", err)
	}
	return nil
}

func (r *PgCatalog) DeleteStylist(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stylists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stylist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStylistNotFound
	}
	return nil
}
