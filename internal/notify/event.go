package notify

import "github.com/ryanbastic/rollcall/internal/schedule"

// Event names, used as JSON-RPC method names.
const (
	EventAvailabilityChanged = "availability.changed"
	EventParticipantsAdded   = "participants.added"
	EventDatesAdded          = "dates.added"
	EventParticipantRenamed  = "participant.renamed"
	EventDateUpdated         = "date.updated"
)

// Events lists every event a subscriber may ask for.
var Events = []string{
	EventAvailabilityChanged,
	EventParticipantsAdded,
	EventDatesAdded,
	EventParticipantRenamed,
	EventDateUpdated,
}

// Event is one domain change.
type Event struct {
	Name   string
	Params any
}

type AvailabilityChanged struct {
	ParticipantID int64           `json:"participant_id"`
	DateID        int64           `json:"date_id"`
	Status        schedule.Status `json:"status"`
	Outcome       string          `json:"outcome"`
}

type ParticipantsAdded struct {
	Participants []schedule.Participant `json:"participants"`
}

type DatesAdded struct {
	Dates []schedule.CalendarDate `json:"dates"`
}

type ParticipantRenamed struct {
	Participant schedule.Participant `json:"participant"`
}

type DateUpdated struct {
	Date schedule.CalendarDate `json:"date"`
}
