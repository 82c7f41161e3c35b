package schedule

import (
	"errors"
	"fmt"
)

// Status is a participant's answer for a single calendar date.
type Status string

const (
	StatusYes     Status = "yes"
	StatusNo      Status = "no"
	StatusMaybe   Status = "maybe"
	StatusUnknown Status = "unknown" // never stored; absence of an availability row
)

// ErrInvalidStatus is returned by ParseStatus for anything outside the four known values.
var ErrInvalidStatus = errors.New("invalid status")

// ParseStatus converts a wire value into a Status. The empty string maps to StatusUnknown.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusYes, StatusNo, StatusMaybe, StatusUnknown:
		return Status(s), nil
	case "":
		return StatusUnknown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Persisted reports whether the status is backed by a stored row.
func (s Status) Persisted() bool {
	return s == StatusYes || s == StatusNo || s == StatusMaybe
}

// Participant is a named person whose availability is tracked.
type Participant struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CalendarDate is a single day with a stable identity and an optional note.
// Date is always an ISO-8601 calendar date (YYYY-MM-DD).
type CalendarDate struct {
	ID   int64  `json:"id"`
	Date string `json:"date"`
	Note string `json:"note"`
}

// DateInput is a calendar date that has not been assigned an id yet.
type DateInput struct {
	Date string `json:"date"`
	Note string `json:"note"`
}

// AvailabilityRow is one persisted (participant, date) answer.
type AvailabilityRow struct {
	ParticipantID int64  `json:"participant_id"`
	DateID        int64  `json:"date_id"`
	Status        Status `json:"status"`
}
