package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/ryanbastic/rollcall/internal/dategen"
	"github.com/ryanbastic/rollcall/internal/metrics"
	"github.com/ryanbastic/rollcall/internal/notify"
	"github.com/ryanbastic/rollcall/internal/schedule"
)

// AddParticipant inserts a single participant. Single adds are not checked
// for duplicate names.
func (c *Cache) AddParticipant(ctx context.Context, name string) (schedule.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return schedule.Participant{}, ErrEmptyName
	}
	if err := c.requireReady(); err != nil {
		return schedule.Participant{}, err
	}

	created, err := c.store.InsertParticipants(ctx, []string{name})
	if err != nil {
		c.logger.Error("add participant failed", "name", name, "error", err)
		return schedule.Participant{}, fmt.Errorf("add participant: %w", err)
	}
	c.appendParticipants(created)
	return created[0], nil
}

// AddParticipants inserts one participant per non-empty line of text.
func (c *Cache) AddParticipants(ctx context.Context, text string) ([]schedule.Participant, error) {
	return c.addNames(ctx, "add participants", schedule.SplitLines(text))
}

// ImportParticipantsCSV inserts the first field of every non-empty line.
func (c *Cache) ImportParticipantsCSV(ctx context.Context, text string) ([]schedule.Participant, error) {
	return c.addNames(ctx, "import participants", schedule.ParseCSVNames(text))
}

func (c *Cache) addNames(ctx context.Context, op string, candidates []string) ([]schedule.Participant, error) {
	c.mu.RLock()
	if c.state != StateReady {
		c.mu.RUnlock()
		return nil, ErrNotLoaded
	}
	names := schedule.NewNames(c.participants, candidates)
	c.mu.RUnlock()

	if len(names) == 0 {
		return nil, ErrNoNewEntities
	}

	created, err := c.store.InsertParticipants(ctx, names)
	if err != nil {
		c.logger.Error(op+" failed", "count", len(names), "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.appendParticipants(created)
	return created, nil
}

func (c *Cache) appendParticipants(created []schedule.Participant) {
	c.mu.Lock()
	for _, p := range created {
		c.participants = append(c.participants, p)
		c.matrix.AddParticipant(p.ID, c.dates)
	}
	c.mu.Unlock()

	metrics.RecordCreated("participant", len(created))
	c.publish(notify.Event{Name: notify.EventParticipantsAdded, Params: notify.ParticipantsAdded{Participants: created}})
}

// AddDate inserts a single calendar date. Single adds are not checked for
// duplicate days.
func (c *Cache) AddDate(ctx context.Context, day, note string) (schedule.CalendarDate, error) {
	t, err := dategen.ParseDay(strings.TrimSpace(day))
	if err != nil {
		return schedule.CalendarDate{}, err
	}
	if err := c.requireReady(); err != nil {
		return schedule.CalendarDate{}, err
	}

	created, err := c.store.InsertDates(ctx, []schedule.DateInput{{Date: dategen.FormatDay(t), Note: strings.TrimSpace(note)}})
	if err != nil {
		c.logger.Error("add date failed", "date", day, "error", err)
		return schedule.CalendarDate{}, fmt.Errorf("add date: %w", err)
	}
	c.appendDates(created)
	return created[0], nil
}

// AddDateRange inserts every day from start to end inclusive that is not
// already on the calendar.
func (c *Cache) AddDateRange(ctx context.Context, start, end, note string) ([]schedule.CalendarDate, error) {
	from, err := dategen.ParseDay(strings.TrimSpace(start))
	if err != nil {
		return nil, err
	}
	to, err := dategen.ParseDay(strings.TrimSpace(end))
	if err != nil {
		return nil, err
	}
	entries, err := dategen.Range(from, to, strings.TrimSpace(note))
	if err != nil {
		return nil, err
	}
	return c.addGenerated(ctx, "add date range", entries)
}

// AddWeeklyDates inserts count weekly occurrences starting at start, minus
// those already on the calendar.
func (c *Cache) AddWeeklyDates(ctx context.Context, start string, count int, note string) ([]schedule.CalendarDate, error) {
	from, err := dategen.ParseDay(strings.TrimSpace(start))
	if err != nil {
		return nil, err
	}
	entries, err := dategen.Weekly(from, count, strings.TrimSpace(note))
	if err != nil {
		return nil, err
	}
	return c.addGenerated(ctx, "add weekly dates", entries)
}

func (c *Cache) addGenerated(ctx context.Context, op string, entries []schedule.DateInput) ([]schedule.CalendarDate, error) {
	c.mu.RLock()
	if c.state != StateReady {
		c.mu.RUnlock()
		return nil, ErrNotLoaded
	}
	entries = dategen.Dedupe(c.dates, entries)
	c.mu.RUnlock()

	if len(entries) == 0 {
		return nil, ErrNoNewEntities
	}

	created, err := c.store.InsertDates(ctx, entries)
	if err != nil {
		c.logger.Error(op+" failed", "count", len(entries), "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.appendDates(created)
	return created, nil
}

func (c *Cache) appendDates(created []schedule.CalendarDate) {
	c.mu.Lock()
	for _, d := range created {
		c.dates = append(c.dates, d)
		c.matrix.AddDate(d.ID, c.participants)
	}
	c.mu.Unlock()

	metrics.RecordCreated("date", len(created))
	c.publish(notify.Event{Name: notify.EventDatesAdded, Params: notify.DatesAdded{Dates: created}})
}

// RenameParticipant replaces a participant's name. The id and the
// participant's availability are kept.
func (c *Cache) RenameParticipant(ctx context.Context, id int64, name string) (schedule.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return schedule.Participant{}, ErrEmptyName
	}

	c.mu.RLock()
	if c.state != StateReady {
		c.mu.RUnlock()
		return schedule.Participant{}, ErrNotLoaded
	}
	known := c.participantIndex(id) >= 0
	c.mu.RUnlock()
	if !known {
		return schedule.Participant{}, fmt.Errorf("rename participant %d: %w", id, ErrUnknownParticipant)
	}

	if err := c.store.RenameParticipant(ctx, id, name); err != nil {
		c.logger.Error("rename participant failed", "participant_id", id, "error", err)
		return schedule.Participant{}, fmt.Errorf("rename participant: %w", err)
	}

	p := schedule.Participant{ID: id, Name: name}
	c.mu.Lock()
	if i := c.participantIndex(id); i >= 0 {
		c.participants[i] = p
	}
	c.mu.Unlock()

	c.publish(notify.Event{Name: notify.EventParticipantRenamed, Params: notify.ParticipantRenamed{Participant: p}})
	return p, nil
}

// EditDate replaces a date's day and note. The id and the date's
// availability are kept.
func (c *Cache) EditDate(ctx context.Context, id int64, day, note string) (schedule.CalendarDate, error) {
	t, err := dategen.ParseDay(strings.TrimSpace(day))
	if err != nil {
		return schedule.CalendarDate{}, err
	}
	in := schedule.DateInput{Date: dategen.FormatDay(t), Note: strings.TrimSpace(note)}

	c.mu.RLock()
	if c.state != StateReady {
		c.mu.RUnlock()
		return schedule.CalendarDate{}, ErrNotLoaded
	}
	known := c.dateIndex(id) >= 0
	c.mu.RUnlock()
	if !known {
		return schedule.CalendarDate{}, fmt.Errorf("edit date %d: %w", id, ErrUnknownDate)
	}

	if err := c.store.UpdateDate(ctx, id, in); err != nil {
		c.logger.Error("edit date failed", "date_id", id, "error", err)
		return schedule.CalendarDate{}, fmt.Errorf("edit date: %w", err)
	}

	d := schedule.CalendarDate{ID: id, Date: in.Date, Note: in.Note}
	c.mu.Lock()
	if i := c.dateIndex(id); i >= 0 {
		c.dates[i] = d
	}
	c.mu.Unlock()

	c.publish(notify.Event{Name: notify.EventDateUpdated, Params: notify.DateUpdated{Date: d}})
	return d, nil
}

func (c *Cache) requireReady() error {
	if c.State() != StateReady {
		return ErrNotLoaded
	}
	return nil
}
