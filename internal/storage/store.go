package storage

import (
	"context"
	"errors"

	"github.com/ryanbastic/rollcall/internal/schedule"
)

// ErrNotFound is returned when a lookup or update-by-id matches no row.
var ErrNotFound = errors.New("not found")

// Store is the persistence client for the participants, calendar_dates and
// availability relations.
type Store interface {
	Ping(ctx context.Context) error

	// ListParticipants returns all participants ordered by name.
	ListParticipants(ctx context.Context) ([]schedule.Participant, error)

	// InsertParticipants creates one participant per name and returns the
	// stored rows in input order.
	InsertParticipants(ctx context.Context, names []string) ([]schedule.Participant, error)

	// RenameParticipant replaces the name of participant id.
	RenameParticipant(ctx context.Context, id int64, name string) error

	// ListDates returns all calendar dates ordered by date.
	ListDates(ctx context.Context) ([]schedule.CalendarDate, error)

	// InsertDates creates the given dates and returns the stored rows in input order.
	InsertDates(ctx context.Context, dates []schedule.DateInput) ([]schedule.CalendarDate, error)

	// UpdateDate replaces the date and note of calendar date id.
	UpdateDate(ctx context.Context, id int64, in schedule.DateInput) error

	ListAvailability(ctx context.Context) ([]schedule.AvailabilityRow, error)

	// GetAvailability returns ErrNotFound when no row exists for the pair.
	GetAvailability(ctx context.Context, participantID, dateID int64) (schedule.AvailabilityRow, error)

	// DeleteAvailability removes the row for the pair. Deleting an absent row is not an error.
	DeleteAvailability(ctx context.Context, participantID, dateID int64) error

	// UpsertAvailability creates or replaces the row keyed by (participant_id, date_id).
	UpsertAvailability(ctx context.Context, row schedule.AvailabilityRow) error
}
