package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/ryanbastic/rollcall/internal/metrics"
	"github.com/ryanbastic/rollcall/internal/notify"
	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/storage"
)

// Outcome tags the result of a status mutation.
type Outcome string

const (
	OutcomePersisted     Outcome = "persisted"
	OutcomeResyncPending Outcome = "resync_pending"
)

// MutationResult reports what happened to a status change. Resync is set
// only when Outcome is OutcomeResyncPending.
type MutationResult struct {
	Outcome Outcome
	Status  schedule.Status
	Resync  *Resync
}

// Resync tracks the authoritative re-read scheduled after a failed write.
type Resync struct {
	done   chan struct{}
	status schedule.Status
	err    error
}

// Done is closed once the re-read has finished, successfully or not.
func (r *Resync) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the re-read finishes or ctx is done. It returns the
// status now held by the cell, or the re-read error, in which case the
// optimistic value was kept.
func (r *Resync) Wait(ctx context.Context) (schedule.Status, error) {
	select {
	case <-r.done:
		return r.status, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SetStatus writes the cell optimistically, then persists it: unknown
// deletes the row, anything else upserts it. When the store call fails the
// cell is re-read from the store in the background and the returned result
// carries the handle for that re-read.
func (c *Cache) SetStatus(ctx context.Context, participantID, dateID int64, status schedule.Status) (MutationResult, error) {
	status, err := schedule.ParseStatus(string(status))
	if err != nil {
		return MutationResult{}, err
	}

	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return MutationResult{}, ErrNotLoaded
	}
	if c.participantIndex(participantID) < 0 {
		c.mu.Unlock()
		return MutationResult{}, fmt.Errorf("set status: participant %d: %w", participantID, ErrUnknownParticipant)
	}
	if c.dateIndex(dateID) < 0 {
		c.mu.Unlock()
		return MutationResult{}, fmt.Errorf("set status: date %d: %w", dateID, ErrUnknownDate)
	}
	c.matrix.Set(participantID, dateID, status)
	c.mu.Unlock()

	if status.Persisted() {
		err = c.store.UpsertAvailability(ctx, schedule.AvailabilityRow{ParticipantID: participantID, DateID: dateID, Status: status})
	} else {
		err = c.store.DeleteAvailability(ctx, participantID, dateID)
	}

	if err != nil {
		c.logger.Error("persist status failed", "participant_id", participantID, "date_id", dateID, "status", status, "error", err)
		metrics.RecordStatusMutation(string(OutcomeResyncPending))
		r := c.resync(context.WithoutCancel(ctx), participantID, dateID, status)
		return MutationResult{Outcome: OutcomeResyncPending, Status: status, Resync: r}, fmt.Errorf("set status: %w", err)
	}

	metrics.RecordStatusMutation(string(OutcomePersisted))
	c.publish(notify.Event{Name: notify.EventAvailabilityChanged, Params: notify.AvailabilityChanged{
		ParticipantID: participantID,
		DateID:        dateID,
		Status:        status,
		Outcome:       string(OutcomePersisted),
	}})
	return MutationResult{Outcome: OutcomePersisted, Status: status}, nil
}

func (c *Cache) resync(ctx context.Context, participantID, dateID int64, optimistic schedule.Status) *Resync {
	r := &Resync{done: make(chan struct{})}
	go func() {
		defer close(r.done)

		status := schedule.StatusUnknown
		row, err := c.store.GetAvailability(ctx, participantID, dateID)
		switch {
		case err == nil:
			status = row.Status
		case !errors.Is(err, storage.ErrNotFound):
			c.logger.Warn("resync read failed, keeping optimistic status", "participant_id", participantID, "date_id", dateID, "status", optimistic, "error", err)
			metrics.RecordResync("failed")
			r.status, r.err = optimistic, fmt.Errorf("resync status: %w", err)
			return
		}

		c.mu.Lock()
		if c.participantIndex(participantID) >= 0 && c.dateIndex(dateID) >= 0 {
			c.matrix.Set(participantID, dateID, status)
		}
		c.mu.Unlock()

		metrics.RecordResync("applied")
		c.logger.Info("resynced status", "participant_id", participantID, "date_id", dateID, "status", status)
		r.status = status
	}()
	return r
}
