package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/ryanbastic/rollcall/internal/dategen"
	"github.com/ryanbastic/rollcall/internal/session"
)

// uidNamespace scopes the name-based UUIDs of exported events.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:rollcall:calendar-date"))

// ICSHandler exports the calendar as an iCalendar document.
type ICSHandler struct {
	cal    Calendar
	prodID string
	now    func() time.Time
	logger *slog.Logger
}

func NewICSHandler(cal Calendar, prodID string, now func() time.Time, logger *slog.Logger) *ICSHandler {
	if prodID == "" {
		prodID = "-//rollcall//calendar export//EN"
	}
	return &ICSHandler{cal: cal, prodID: prodID, now: now, logger: logger}
}

// Export writes one all-day VEVENT per calendar date. The event summary is
// the date's note, or the number of available participants when the note is
// empty; the description lists who answered yes.
func (h *ICSHandler) Export(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.cal.Summaries()
	if err != nil {
		if errors.Is(err, session.ErrNotLoaded) {
			writeError(w, http.StatusServiceUnavailable, loadFailedMessage)
			return
		}
		h.logger.Error("calendar export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(h.prodID)
	stamp := h.now().UTC()

	for _, s := range summaries {
		day, err := dategen.ParseDay(s.Date.Date)
		if err != nil {
			h.logger.Warn("skipping unparsable date in export", "date_id", s.Date.ID, "date", s.Date.Date)
			continue
		}

		ev := cal.AddEvent(eventUID(s.Date.ID))
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))

		summary := s.Date.Note
		if summary == "" {
			summary = fmt.Sprintf("Available: %d", s.Summary.Yes)
		}
		ev.SetSummary(summary)
		if len(s.Summary.Available) > 0 {
			ev.SetDescription("Available: " + strings.Join(s.Summary.Available, ", "))
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="rollcall.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(cal.Serialize())); err != nil {
		h.logger.Error("failed to write calendar export", "error", err)
	}
}

// eventUID is stable for a date id so re-imports update existing events.
func eventUID(dateID int64) string {
	return uuid.NewSHA1(uidNamespace, fmt.Appendf(nil, "%d", dateID)).String() + "@rollcall"
}
