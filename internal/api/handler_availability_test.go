package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/session"
)

func availabilityPath(pid, did int64) string {
	return fmt.Sprintf("/v1/availability/%d/%d", pid, did)
}

func TestSetStatus_Persisted(t *testing.T) {
	env := newTestEnv(t, []string{"Anna"}, []schedule.DateInput{{Date: "2025-04-10"}})
	snap, _ := env.cache.Snapshot()
	pid, did := snap.Participants[0].ID, snap.Dates[0].ID

	w := env.do(t, http.MethodPut, availabilityPath(pid, did), map[string]string{"status": "maybe"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d\nbody: %s", w.Code, w.Body.String())
	}
	resp := decode[SetStatusResponse](t, w)
	if resp.Outcome != session.OutcomePersisted || resp.Status != schedule.StatusMaybe {
		t.Errorf("got %+v", resp)
	}

	row, err := env.store.GetAvailability(context.Background(), pid, did)
	if err != nil || row.Status != schedule.StatusMaybe {
		t.Errorf("stored row: got %+v, %v", row, err)
	}
}

func TestSetStatus_UnknownDeletesRow(t *testing.T) {
	env := newTestEnv(t, []string{"Anna"}, []schedule.DateInput{{Date: "2025-04-10"}})
	snap, _ := env.cache.Snapshot()
	pid, did := snap.Participants[0].ID, snap.Dates[0].ID

	env.do(t, http.MethodPut, availabilityPath(pid, did), map[string]string{"status": "yes"})
	w := env.do(t, http.MethodPut, availabilityPath(pid, did), map[string]string{"status": "unknown"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d\nbody: %s", w.Code, w.Body.String())
	}

	rows, _ := env.store.ListAvailability(context.Background())
	if len(rows) != 0 {
		t.Errorf("rows: got %d, want 0", len(rows))
	}
}

func TestSetStatus_InvalidStatus(t *testing.T) {
	env := newTestEnv(t, []string{"Anna"}, []schedule.DateInput{{Date: "2025-04-10"}})
	snap, _ := env.cache.Snapshot()

	w := env.do(t, http.MethodPut, availabilityPath(snap.Participants[0].ID, snap.Dates[0].ID), map[string]string{"status": "perhaps"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestSetStatus_UnknownParticipant(t *testing.T) {
	env := newTestEnv(t, []string{"Anna"}, []schedule.DateInput{{Date: "2025-04-10"}})
	snap, _ := env.cache.Snapshot()

	w := env.do(t, http.MethodPut, availabilityPath(999, snap.Dates[0].ID), map[string]string{"status": "yes"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := decodeError(t, w).Detail; got != "participant not found" {
		t.Errorf("detail: got %q", got)
	}
}

func TestSetStatus_NotLoaded(t *testing.T) {
	env := newFailedEnv(t)

	w := env.do(t, http.MethodPut, availabilityPath(1, 1), map[string]string{"status": "yes"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestSetStatus_FailureSchedulesResync(t *testing.T) {
	env := newTestEnv(t, []string{"Anna"}, []schedule.DateInput{{Date: "2025-04-10"}})
	snap, _ := env.cache.Snapshot()
	pid, did := snap.Participants[0].ID, snap.Dates[0].ID
	env.store.down.Store(true)

	w := env.do(t, http.MethodPut, availabilityPath(pid, did), map[string]string{"status": "yes"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d\nbody: %s", w.Code, http.StatusBadGateway, w.Body.String())
	}
	em := decodeError(t, w)
	if em.Detail != saveFailedMessage {
		t.Errorf("detail: got %q", em.Detail)
	}
	if len(em.Errors) != 1 || em.Errors[0].Location != "body.outcome" || em.Errors[0].Value != "resync_pending" {
		t.Errorf("errors: got %+v", em.Errors)
	}

	// The store holds no row, so the re-read settles the cell on unknown.
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, _ := env.cache.Snapshot()
		if snap.Matrix.Get(pid, did) == schedule.StatusUnknown {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("cell was not resynced, still %q", snap.Matrix.Get(pid, did))
		}
		time.Sleep(5 * time.Millisecond)
	}
}
