package session

import (
	"context"
	"errors"
	"sync"

	"github.com/ryanbastic/rollcall/internal/notify"
	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/storage"
)

var errStore = errors.New("store unavailable")

// flakyStore wraps a MemoryStore and fails the named operations on demand.
// It also counts calls so tests can assert that nothing reached the store.
type flakyStore struct {
	*storage.MemoryStore

	mu    sync.Mutex
	fail  map[string]error
	calls map[string]int
	// gate, when set, blocks GetAvailability until closed.
	gate chan struct{}
}

func newFlakyStore() *flakyStore {
	return &flakyStore{
		MemoryStore: storage.NewMemoryStore(),
		fail:        make(map[string]error),
		calls:       make(map[string]int),
	}
}

func (f *flakyStore) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

func (f *flakyStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *flakyStore) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[op]
}

func (f *flakyStore) ListParticipants(ctx context.Context) ([]schedule.Participant, error) {
	if err := f.enter("ListParticipants"); err != nil {
		return nil, err
	}
	return f.MemoryStore.ListParticipants(ctx)
}

func (f *flakyStore) InsertParticipants(ctx context.Context, names []string) ([]schedule.Participant, error) {
	if err := f.enter("InsertParticipants"); err != nil {
		return nil, err
	}
	return f.MemoryStore.InsertParticipants(ctx, names)
}

func (f *flakyStore) RenameParticipant(ctx context.Context, id int64, name string) error {
	if err := f.enter("RenameParticipant"); err != nil {
		return err
	}
	return f.MemoryStore.RenameParticipant(ctx, id, name)
}

func (f *flakyStore) ListDates(ctx context.Context) ([]schedule.CalendarDate, error) {
	if err := f.enter("ListDates"); err != nil {
		return nil, err
	}
	return f.MemoryStore.ListDates(ctx)
}

func (f *flakyStore) InsertDates(ctx context.Context, dates []schedule.DateInput) ([]schedule.CalendarDate, error) {
	if err := f.enter("InsertDates"); err != nil {
		return nil, err
	}
	return f.MemoryStore.InsertDates(ctx, dates)
}

func (f *flakyStore) UpdateDate(ctx context.Context, id int64, in schedule.DateInput) error {
	if err := f.enter("UpdateDate"); err != nil {
		return err
	}
	return f.MemoryStore.UpdateDate(ctx, id, in)
}

func (f *flakyStore) ListAvailability(ctx context.Context) ([]schedule.AvailabilityRow, error) {
	if err := f.enter("ListAvailability"); err != nil {
		return nil, err
	}
	return f.MemoryStore.ListAvailability(ctx)
}

func (f *flakyStore) GetAvailability(ctx context.Context, participantID, dateID int64) (schedule.AvailabilityRow, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err := f.enter("GetAvailability"); err != nil {
		return schedule.AvailabilityRow{}, err
	}
	return f.MemoryStore.GetAvailability(ctx, participantID, dateID)
}

func (f *flakyStore) DeleteAvailability(ctx context.Context, participantID, dateID int64) error {
	if err := f.enter("DeleteAvailability"); err != nil {
		return err
	}
	return f.MemoryStore.DeleteAvailability(ctx, participantID, dateID)
}

func (f *flakyStore) UpsertAvailability(ctx context.Context, row schedule.AvailabilityRow) error {
	if err := f.enter("UpsertAvailability"); err != nil {
		return err
	}
	return f.MemoryStore.UpsertAvailability(ctx, row)
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.Name)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
