package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []struct {
	name string
	ddl  string
}{
	{"participants", `
		CREATE TABLE IF NOT EXISTS participants (
			id         BIGSERIAL PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_participants_name ON participants (name);
	`},
	{"calendar_dates", `
		CREATE TABLE IF NOT EXISTS calendar_dates (
			id         BIGSERIAL PRIMARY KEY,
			date       TEXT NOT NULL CHECK (date ~ '^[0-9]{4}-[0-9]{2}-[0-9]{2}$'),
			note       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_calendar_dates_date ON calendar_dates (date);
	`},
	{"availability", `
		CREATE TABLE IF NOT EXISTS availability (
			participant_id BIGINT NOT NULL REFERENCES participants (id),
			date_id        BIGINT NOT NULL REFERENCES calendar_dates (id),
			status         TEXT NOT NULL CHECK (status IN ('yes', 'no', 'maybe')),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),

			CONSTRAINT uq_availability_pair UNIQUE (participant_id, date_id)
		);

		CREATE INDEX IF NOT EXISTS idx_availability_date ON availability (date_id);
	`},
}

// RunMigrations creates the three relations if they do not exist yet.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.ddl); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}
	return nil
}
