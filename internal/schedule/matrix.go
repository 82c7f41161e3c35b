package schedule

// Matrix maps participant id -> date id -> status. It is kept dense: every
// known participant has a cell for every known date.
type Matrix map[int64]map[int64]Status

// BuildMatrix reconciles the persisted rows against the current participants
// and dates. Pairs without a row are StatusUnknown. Rows referencing a
// participant or date outside the given sets are ignored.
func BuildMatrix(participants []Participant, dates []CalendarDate, rows []AvailabilityRow) Matrix {
	m := make(Matrix, len(participants))
	for _, p := range participants {
		m.AddParticipant(p.ID, dates)
	}

	for _, r := range rows {
		cells, ok := m[r.ParticipantID]
		if !ok {
			continue
		}
		if _, ok := cells[r.DateID]; !ok {
			continue
		}
		cells[r.DateID] = r.Status
	}
	return m
}

// Get returns the status for a cell, StatusUnknown when absent.
func (m Matrix) Get(participantID, dateID int64) Status {
	if s, ok := m[participantID][dateID]; ok {
		return s
	}
	return StatusUnknown
}

// Set overwrites a single cell, creating the participant row if needed.
func (m Matrix) Set(participantID, dateID int64, status Status) {
	cells, ok := m[participantID]
	if !ok {
		cells = make(map[int64]Status)
		m[participantID] = cells
	}
	cells[dateID] = status
}

// AddParticipant back-fills unknown cells for a new participant across dates.
// Cells that already exist are left alone.
func (m Matrix) AddParticipant(participantID int64, dates []CalendarDate) {
	cells, ok := m[participantID]
	if !ok {
		cells = make(map[int64]Status, len(dates))
		m[participantID] = cells
	}
	for _, d := range dates {
		if _, ok := cells[d.ID]; !ok {
			cells[d.ID] = StatusUnknown
		}
	}
}

// AddDate back-fills unknown cells for a new date across participants.
func (m Matrix) AddDate(dateID int64, participants []Participant) {
	for _, p := range participants {
		cells, ok := m[p.ID]
		if !ok {
			cells = make(map[int64]Status)
			m[p.ID] = cells
		}
		if _, ok := cells[dateID]; !ok {
			cells[dateID] = StatusUnknown
		}
	}
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for pid, cells := range m {
		cp := make(map[int64]Status, len(cells))
		for did, s := range cells {
			cp[did] = s
		}
		out[pid] = cp
	}
	return out
}

// Summary is the per-date tally shown in the summary view.
type Summary struct {
	Yes     int `json:"yes"`
	No      int `json:"no"`
	Maybe   int `json:"maybe"`
	Unknown int `json:"unknown"`

	// Available lists the names of participants who answered yes, in
	// participant list order.
	Available []string `json:"available"`
}

// Summarize tallies a date over the given participants only. Anything that
// is not yes, no or maybe counts as unknown.
func Summarize(m Matrix, participants []Participant, dateID int64) Summary {
	s := Summary{Available: []string{}}
	for _, p := range participants {
		switch m.Get(p.ID, dateID) {
		case StatusYes:
			s.Yes++
			s.Available = append(s.Available, p.Name)
		case StatusNo:
			s.No++
		case StatusMaybe:
			s.Maybe++
		default:
			s.Unknown++
		}
	}
	return s
}
