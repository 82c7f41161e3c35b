// Package session holds the in-memory mirror of the calendar relations that
// the HTTP layer reads from and mutates through.
package session

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ryanbastic/rollcall/internal/notify"
	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/storage"
)

var (
	ErrNotLoaded          = errors.New("calendar data is not loaded")
	ErrSeedFailed         = errors.New("seed bootstrap failed")
	ErrNoNewEntities      = errors.New("no new entities")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrUnknownDate        = errors.New("unknown date")
	ErrEmptyName          = errors.New("name must not be empty")
)

// State is the lifecycle state of a Cache.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Seed is the bootstrap data written into an empty store.
type Seed struct {
	Participants []string
	Dates        []schedule.DateInput
}

// Publisher receives domain change events.
type Publisher interface {
	Publish(notify.Event)
}

type Options struct {
	Seed        Seed
	SeedEnabled bool
	Publisher   Publisher
}

// Snapshot is a deep copy of the cache contents.
type Snapshot struct {
	Participants []schedule.Participant  `json:"participants"`
	Dates        []schedule.CalendarDate `json:"dates"`
	Matrix       schedule.Matrix         `json:"matrix"`
}

// DateSummary pairs a calendar date with its tally.
type DateSummary struct {
	Date    schedule.CalendarDate `json:"date"`
	Summary schedule.Summary      `json:"summary"`
}

// Cache mirrors participants, dates and the availability matrix. Mutations
// update it before the store call returns; the lock is never held across a
// store call.
type Cache struct {
	store  storage.Store
	logger *slog.Logger
	opts   Options

	mu           sync.RWMutex
	state        State
	participants []schedule.Participant
	dates        []schedule.CalendarDate
	matrix       schedule.Matrix
}

func New(store storage.Store, logger *slog.Logger, opts Options) *Cache {
	return &Cache{
		store:  store,
		logger: logger,
		opts:   opts,
		state:  StateLoading,
		matrix: make(schedule.Matrix),
	}
}

// Load fetches all three relations and rebuilds the matrix. Any fetch error
// leaves the cache in StateFailed; there is no retry. When the store holds no
// participants and no dates and seeding is enabled, the seed is inserted and
// everything is fetched again.
//
// A failed seed leaves the cache ready and empty and returns ErrSeedFailed.
func (c *Cache) Load(ctx context.Context) error {
	c.setState(StateLoading)

	participants, dates, rows, err := c.fetchAll(ctx)
	if err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("load calendar: %w", err)
	}

	if len(participants) == 0 && len(dates) == 0 && c.opts.SeedEnabled && !c.seedEmpty() {
		if err := c.seed(ctx); err != nil {
			c.replace(participants, dates, rows)
			return fmt.Errorf("%w: %w", ErrSeedFailed, err)
		}
		participants, dates, rows, err = c.fetchAll(ctx)
		if err != nil {
			c.setState(StateFailed)
			return fmt.Errorf("reload calendar after seed: %w", err)
		}
		c.logger.Info("seeded empty calendar", "participants", len(participants), "dates", len(dates))
	}

	c.replace(participants, dates, rows)
	c.logger.Info("calendar loaded", "participants", len(participants), "dates", len(dates), "availability_rows", len(rows))
	return nil
}

func (c *Cache) fetchAll(ctx context.Context) ([]schedule.Participant, []schedule.CalendarDate, []schedule.AvailabilityRow, error) {
	participants, err := c.store.ListParticipants(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	dates, err := c.store.ListDates(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	rows, err := c.store.ListAvailability(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return participants, dates, rows, nil
}

func (c *Cache) seedEmpty() bool {
	return len(c.opts.Seed.Participants) == 0 && len(c.opts.Seed.Dates) == 0
}

func (c *Cache) seed(ctx context.Context) error {
	if len(c.opts.Seed.Participants) > 0 {
		if _, err := c.store.InsertParticipants(ctx, c.opts.Seed.Participants); err != nil {
			return fmt.Errorf("insert seed participants: %w", err)
		}
	}
	if len(c.opts.Seed.Dates) > 0 {
		if _, err := c.store.InsertDates(ctx, c.opts.Seed.Dates); err != nil {
			return fmt.Errorf("insert seed dates: %w", err)
		}
	}
	return nil
}

func (c *Cache) replace(participants []schedule.Participant, dates []schedule.CalendarDate, rows []schedule.AvailabilityRow) {
	m := schedule.BuildMatrix(participants, dates, rows)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.participants = participants
	c.dates = dates
	c.matrix = m
	c.state = StateReady
}

func (c *Cache) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State reports the lifecycle state.
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns a deep copy of participants, dates and matrix.
func (c *Cache) Snapshot() (Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateReady {
		return Snapshot{}, ErrNotLoaded
	}
	return Snapshot{
		Participants: slices.Clone(c.participants),
		Dates:        slices.Clone(c.dates),
		Matrix:       c.matrix.Clone(),
	}, nil
}

// Summary tallies one date over the current participants.
func (c *Cache) Summary(dateID int64) (DateSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateReady {
		return DateSummary{}, ErrNotLoaded
	}
	i := c.dateIndex(dateID)
	if i < 0 {
		return DateSummary{}, fmt.Errorf("summary for date %d: %w", dateID, ErrUnknownDate)
	}
	return DateSummary{Date: c.dates[i], Summary: schedule.Summarize(c.matrix, c.participants, dateID)}, nil
}

// Summaries tallies every date, ordered by calendar date.
func (c *Cache) Summaries() ([]DateSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateReady {
		return nil, ErrNotLoaded
	}

	dates := slices.Clone(c.dates)
	slices.SortStableFunc(dates, func(a, b schedule.CalendarDate) int {
		return cmp.Compare(a.Date, b.Date)
	})

	out := make([]DateSummary, len(dates))
	for i, d := range dates {
		out[i] = DateSummary{Date: d, Summary: schedule.Summarize(c.matrix, c.participants, d.ID)}
	}
	return out, nil
}

// participantIndex and dateIndex must be called with c.mu held.
func (c *Cache) participantIndex(id int64) int {
	return slices.IndexFunc(c.participants, func(p schedule.Participant) bool { return p.ID == id })
}

func (c *Cache) dateIndex(id int64) int {
	return slices.IndexFunc(c.dates, func(d schedule.CalendarDate) bool { return d.ID == id })
}

func (c *Cache) publish(e notify.Event) {
	if c.opts.Publisher != nil {
		c.opts.Publisher.Publish(e)
	}
}
