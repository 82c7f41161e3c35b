package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ryanbastic/rollcall/internal/schedule"
)

type pairKey struct {
	participantID int64
	dateID        int64
}

// MemoryStore is an in-process Store. It backs STORAGE_DRIVER=memory and tests.
type MemoryStore struct {
	mu           sync.Mutex
	nextID       int64
	participants map[int64]schedule.Participant
	dates        map[int64]schedule.CalendarDate
	availability map[pairKey]schedule.Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		participants: make(map[int64]schedule.Participant),
		dates:        make(map[int64]schedule.CalendarDate),
		availability: make(map[pairKey]schedule.Status),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) ListParticipants(ctx context.Context) ([]schedule.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schedule.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b schedule.Participant) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) InsertParticipants(ctx context.Context, names []string) ([]schedule.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schedule.Participant, 0, len(names))
	for _, name := range names {
		s.nextID++
		p := schedule.Participant{ID: s.nextID, Name: name}
		s.participants[p.ID] = p
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) RenameParticipant(ctx context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return fmt.Errorf("rename participant %d: %w", id, ErrNotFound)
	}
	p.Name = name
	s.participants[id] = p
	return nil
}

func (s *MemoryStore) ListDates(ctx context.Context) ([]schedule.CalendarDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schedule.CalendarDate, 0, len(s.dates))
	for _, d := range s.dates {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b schedule.CalendarDate) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) InsertDates(ctx context.Context, dates []schedule.DateInput) ([]schedule.CalendarDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schedule.CalendarDate, 0, len(dates))
	for _, in := range dates {
		s.nextID++
		d := schedule.CalendarDate{ID: s.nextID, Date: in.Date, Note: in.Note}
		s.dates[d.ID] = d
		out = append(out, d)
	}
	return out, nil
}

func (s *MemoryStore) UpdateDate(ctx context.Context, id int64, in schedule.DateInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dates[id]; !ok {
		return fmt.Errorf("update date %d: %w", id, ErrNotFound)
	}
	s.dates[id] = schedule.CalendarDate{ID: id, Date: in.Date, Note: in.Note}
	return nil
}

func (s *MemoryStore) ListAvailability(ctx context.Context) ([]schedule.AvailabilityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schedule.AvailabilityRow, 0, len(s.availability))
	for k, st := range s.availability {
		out = append(out, schedule.AvailabilityRow{ParticipantID: k.participantID, DateID: k.dateID, Status: st})
	}
	return out, nil
}

func (s *MemoryStore) GetAvailability(ctx context.Context, participantID, dateID int64) (schedule.AvailabilityRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.availability[pairKey{participantID, dateID}]
	if !ok {
		return schedule.AvailabilityRow{}, ErrNotFound
	}
	return schedule.AvailabilityRow{ParticipantID: participantID, DateID: dateID, Status: st}, nil
}

func (s *MemoryStore) DeleteAvailability(ctx context.Context, participantID, dateID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.availability, pairKey{participantID, dateID})
	return nil
}

func (s *MemoryStore) UpsertAvailability(ctx context.Context, row schedule.AvailabilityRow) error {
	if !row.Status.Persisted() {
		return fmt.Errorf("upsert availability: status %q cannot be stored", row.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[row.ParticipantID]; !ok {
		return fmt.Errorf("upsert availability: participant %d: %w", row.ParticipantID, ErrNotFound)
	}
	if _, ok := s.dates[row.DateID]; !ok {
		return fmt.Errorf("upsert availability: date %d: %w", row.DateID, ErrNotFound)
	}
	s.availability[pairKey{row.ParticipantID, row.DateID}] = row.Status
	return nil
}
