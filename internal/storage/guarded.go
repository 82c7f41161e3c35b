package storage

import (
	"context"
	"errors"

	"github.com/ryanbastic/rollcall/internal/circuitbreaker"
	"github.com/ryanbastic/rollcall/internal/schedule"
)

// GuardedStore routes every call of an underlying Store through a circuit
// breaker. ErrNotFound is an answer, not an outage, and never trips it.
type GuardedStore struct {
	next    Store
	breaker *circuitbreaker.Breaker
}

// IsOutage reports whether err should count against the breaker.
func IsOutage(err error) bool {
	return err != nil && !errors.Is(err, ErrNotFound)
}

func NewGuardedStore(next Store, breaker *circuitbreaker.Breaker) *GuardedStore {
	return &GuardedStore{next: next, breaker: breaker}
}

// Ping bypasses the breaker so readiness reflects the backend itself.
func (g *GuardedStore) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

func (g *GuardedStore) ListParticipants(ctx context.Context) (out []schedule.Participant, err error) {
	err = g.breaker.Execute(func() error {
		out, err = g.next.ListParticipants(ctx)
		return err
	})
	return out, err
}

func (g *GuardedStore) InsertParticipants(ctx context.Context, names []string) (out []schedule.Participant, err error) {
	err = g.breaker.Execute(func() error {
		out, err = g.next.InsertParticipants(ctx, names)
		return err
	})
	return out, err
}

func (g *GuardedStore) RenameParticipant(ctx context.Context, id int64, name string) error {
	return g.breaker.Execute(func() error {
		return g.next.RenameParticipant(ctx, id, name)
	})
}

func (g *GuardedStore) ListDates(ctx context.Context) (out []schedule.CalendarDate, err error) {
	err = g.breaker.Execute(func() error {
		out, err = g.next.ListDates(ctx)
		return err
	})
	return out, err
}

func (g *GuardedStore) InsertDates(ctx context.Context, dates []schedule.DateInput) (out []schedule.CalendarDate, err error) {
	err = g.breaker.Execute(func() error {
		out, err = g.next.InsertDates(ctx, dates)
		return err
	})
	return out, err
}

func (g *GuardedStore) UpdateDate(ctx context.Context, id int64, in schedule.DateInput) error {
	return g.breaker.Execute(func() error {
		return g.next.UpdateDate(ctx, id, in)
	})
}

func (g *GuardedStore) ListAvailability(ctx context.Context) (out []schedule.AvailabilityRow, err error) {
	err = g.breaker.Execute(func() error {
		out, err = g.next.ListAvailability(ctx)
		return err
	})
	return out, err
}

func (g *GuardedStore) GetAvailability(ctx context.Context, participantID, dateID int64) (row schedule.AvailabilityRow, err error) {
	err = g.breaker.Execute(func() error {
		row, err = g.next.GetAvailability(ctx, participantID, dateID)
		return err
	})
	return row, err
}

func (g *GuardedStore) DeleteAvailability(ctx context.Context, participantID, dateID int64) error {
	return g.breaker.Execute(func() error {
		return g.next.DeleteAvailability(ctx, participantID, dateID)
	})
}

func (g *GuardedStore) UpsertAvailability(ctx context.Context, row schedule.AvailabilityRow) error {
	return g.breaker.Execute(func() error {
		return g.next.UpsertAvailability(ctx, row)
	})
}
