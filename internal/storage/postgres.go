package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ryanbastic/rollcall/internal/schedule"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewPostgresStore creates a Store backed by pool.
// queryTimeout sets the per-query context deadline; zero means no timeout.
func NewPostgresStore(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, queryTimeout: queryTimeout}
}

// withTimeout derives a child context with the configured query timeout.
// If queryTimeout is zero, the parent context is returned unchanged.
func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) ListParticipants(ctx context.Context) ([]schedule.Participant, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, name FROM participants ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schedule.Participant, error) {
		var p schedule.Participant
		err := row.Scan(&p.ID, &p.Name)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("list participants scan: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) InsertParticipants(ctx context.Context, names []string) ([]schedule.Participant, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out := make([]schedule.Participant, 0, len(names))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, name := range names {
			batch.Queue(`INSERT INTO participants (name) VALUES ($1) RETURNING id, name`, name)
		}
		br := tx.SendBatch(ctx, batch)
		for range names {
			var p schedule.Participant
			if err := br.QueryRow().Scan(&p.ID, &p.Name); err != nil {
				br.Close()
				return err
			}
			out = append(out, p)
		}
		return br.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("insert participants: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) RenameParticipant(ctx context.Context, id int64, name string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `UPDATE participants SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("rename participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rename participant %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListDates(ctx context.Context) ([]schedule.CalendarDate, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, date, note FROM calendar_dates ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanDate)
	if err != nil {
		return nil, fmt.Errorf("list dates scan: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) InsertDates(ctx context.Context, dates []schedule.DateInput) ([]schedule.CalendarDate, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out := make([]schedule.CalendarDate, 0, len(dates))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, d := range dates {
			batch.Queue(`INSERT INTO calendar_dates (date, note) VALUES ($1, $2) RETURNING id, date, note`, d.Date, d.Note)
		}
		br := tx.SendBatch(ctx, batch)
		for range dates {
			var d schedule.CalendarDate
			if err := br.QueryRow().Scan(&d.ID, &d.Date, &d.Note); err != nil {
				br.Close()
				return err
			}
			out = append(out, d)
		}
		return br.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("insert dates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateDate(ctx context.Context, id int64, in schedule.DateInput) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `UPDATE calendar_dates SET date = $2, note = $3 WHERE id = $1`, id, in.Date, in.Note)
	if err != nil {
		return fmt.Errorf("update date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update date %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListAvailability(ctx context.Context) ([]schedule.AvailabilityRow, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT participant_id, date_id, status FROM availability`)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schedule.AvailabilityRow, error) {
		return scanAvailability(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list availability scan: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetAvailability(ctx context.Context, participantID, dateID int64) (schedule.AvailabilityRow, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.pool.QueryRow(ctx, `
		SELECT participant_id, date_id, status
		FROM availability
		WHERE participant_id = $1 AND date_id = $2
	`, participantID, dateID)

	r, err := scanAvailability(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.AvailabilityRow{}, ErrNotFound
		}
		return schedule.AvailabilityRow{}, fmt.Errorf("get availability: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) DeleteAvailability(ctx context.Context, participantID, dateID int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `DELETE FROM availability WHERE participant_id = $1 AND date_id = $2`, participantID, dateID)
	if err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertAvailability(ctx context.Context, row schedule.AvailabilityRow) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO availability (participant_id, date_id, status, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (participant_id, date_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = now()
	`, row.ParticipantID, row.DateID, string(row.Status))
	if err != nil {
		return fmt.Errorf("upsert availability: %w", err)
	}
	return nil
}

func scanDate(row pgx.CollectableRow) (schedule.CalendarDate, error) {
	var d schedule.CalendarDate
	err := row.Scan(&d.ID, &d.Date, &d.Note)
	return d, err
}

func scanAvailability(row pgx.Row) (schedule.AvailabilityRow, error) {
	var r schedule.AvailabilityRow
	var status string
	if err := row.Scan(&r.ParticipantID, &r.DateID, &status); err != nil {
		return r, err
	}
	r.Status = schedule.Status(status)
	return r, nil
}
