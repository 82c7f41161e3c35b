package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/rollcall/internal/dategen"
	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/session"
)

// displayLayout is how a day is written in notices, e.g. "Apr 10, 2025".
const displayLayout = "Jan 2, 2006"

// --- Huma Input/Output types ---

type AddDateInput struct {
	Body struct {
		Date string `json:"date" doc:"Calendar day" format:"date" example:"2025-04-10"`
		Note string `json:"note,omitempty" doc:"Optional note" maxLength:"500"`
	}
}

type DateResponse struct {
	Date   schedule.CalendarDate `json:"date"`
	Notice Notice                `json:"notice"`
}

type DateOutput struct {
	Body DateResponse
}

type AddDateRangeInput struct {
	Body struct {
		Start string `json:"start" doc:"First day, inclusive" format:"date" example:"2025-04-10"`
		End   string `json:"end" doc:"Last day, inclusive" format:"date" example:"2025-04-12"`
		Note  string `json:"note,omitempty" doc:"Note shared by every created date" maxLength:"500"`
	}
}

type AddWeeklyDatesInput struct {
	Body struct {
		Start string `json:"start" doc:"First occurrence" format:"date" example:"2025-04-10"`
		Count int    `json:"count" doc:"Number of weekly occurrences" example:"4"`
		Note  string `json:"note,omitempty" doc:"Note shared by every created date" maxLength:"500"`
	}
}

type BulkDatesResponse struct {
	Created []schedule.CalendarDate `json:"created"`
	Notice  Notice                  `json:"notice"`
}

// BulkDatesOutput is 201 when something was created and 200 otherwise.
type BulkDatesOutput struct {
	Status int
	Body   BulkDatesResponse
}

type EditDateInput struct {
	DateID int64 `path:"date_id" doc:"Calendar date ID"`
	Body   struct {
		Date string `json:"date" doc:"New calendar day" format:"date" example:"2025-04-15"`
		Note string `json:"note,omitempty" doc:"New note" maxLength:"500"`
	}
}

// --- Handler ---

type DateHandler struct {
	cal    Calendar
	logger *slog.Logger
}

func NewDateHandler(cal Calendar, logger *slog.Logger) *DateHandler {
	return &DateHandler{cal: cal, logger: logger}
}

func registerDateRoutes(api huma.API, h *DateHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-date",
		Method:        http.MethodPost,
		Path:          "/v1/dates",
		Summary:       "Add a calendar date",
		Tags:          []string{"dates"},
		DefaultStatus: http.StatusCreated,
	}, h.AddDate)

	huma.Register(api, huma.Operation{
		OperationID: "add-date-range",
		Method:      http.MethodPost,
		Path:        "/v1/dates/range",
		Summary:     "Add every day of an inclusive range",
		Tags:        []string{"dates"},
	}, h.AddDateRange)

	huma.Register(api, huma.Operation{
		OperationID: "add-weekly-dates",
		Method:      http.MethodPost,
		Path:        "/v1/dates/weekly",
		Summary:     "Add weekly recurring dates",
		Tags:        []string{"dates"},
	}, h.AddWeeklyDates)

	huma.Register(api, huma.Operation{
		OperationID: "edit-date",
		Method:      http.MethodPatch,
		Path:        "/v1/dates/{date_id}",
		Summary:     "Change a date's day and note",
		Tags:        []string{"dates"},
	}, h.EditDate)
}

func (h *DateHandler) AddDate(ctx context.Context, input *AddDateInput) (*DateOutput, error) {
	d, err := h.cal.AddDate(ctx, input.Body.Date, input.Body.Note)
	if err != nil {
		return nil, mapError(err, "Failed to add date. Please try again.")
	}

	h.logger.Info("date added", "id", d.ID, "date", d.Date)

	return &DateOutput{Body: DateResponse{
		Date: d,
		Notice: Notice{
			Kind:        NoticeSuccess,
			Title:       "Date added",
			Description: fmt.Sprintf("%s has been added to the calendar.", displayDay(d.Date)),
		},
	}}, nil
}

func (h *DateHandler) AddDateRange(ctx context.Context, input *AddDateRangeInput) (*BulkDatesOutput, error) {
	created, err := h.cal.AddDateRange(ctx, input.Body.Start, input.Body.End, input.Body.Note)
	switch {
	case errors.Is(err, dategen.ErrInvalidRange):
		return bulkDatesInfo("Invalid date range", "End date must be after start date."), nil
	case errors.Is(err, session.ErrNoNewEntities):
		return bulkDatesInfo("No new dates", "All the dates in this range already exist."), nil
	case err != nil:
		return nil, mapError(err, "Failed to add date range. Please try again.")
	}

	h.logger.Info("date range added", "start", input.Body.Start, "end", input.Body.End, "count", len(created))

	return bulkDatesCreated(created, Notice{
		Kind:        NoticeSuccess,
		Title:       "Date range added",
		Description: fmt.Sprintf("%d dates have been added to the calendar.", len(created)),
	}), nil
}

func (h *DateHandler) AddWeeklyDates(ctx context.Context, input *AddWeeklyDatesInput) (*BulkDatesOutput, error) {
	created, err := h.cal.AddWeeklyDates(ctx, input.Body.Start, input.Body.Count, input.Body.Note)
	switch {
	case errors.Is(err, session.ErrNoNewEntities):
		return bulkDatesInfo("No new dates", "All the recurring dates already exist."), nil
	case err != nil:
		return nil, mapError(err, "Failed to add recurring dates. Please try again.")
	}

	h.logger.Info("weekly dates added", "start", input.Body.Start, "count", len(created))

	return bulkDatesCreated(created, Notice{
		Kind:        NoticeSuccess,
		Title:       "Recurring dates added",
		Description: fmt.Sprintf("%d weekly recurring dates have been added to the calendar.", len(created)),
	}), nil
}

func (h *DateHandler) EditDate(ctx context.Context, input *EditDateInput) (*DateOutput, error) {
	d, err := h.cal.EditDate(ctx, input.DateID, input.Body.Date, input.Body.Note)
	if err != nil {
		return nil, mapError(err, "Failed to update date. Please try again.")
	}

	h.logger.Info("date updated", "id", d.ID, "date", d.Date)

	return &DateOutput{Body: DateResponse{
		Date: d,
		Notice: Notice{
			Kind:        NoticeSuccess,
			Title:       "Date updated",
			Description: fmt.Sprintf("Date has been updated to %s.", displayDay(d.Date)),
		},
	}}, nil
}

func bulkDatesCreated(created []schedule.CalendarDate, n Notice) *BulkDatesOutput {
	return &BulkDatesOutput{
		Status: http.StatusCreated,
		Body:   BulkDatesResponse{Created: created, Notice: n},
	}
}

func bulkDatesInfo(title, description string) *BulkDatesOutput {
	return &BulkDatesOutput{
		Status: http.StatusOK,
		Body: BulkDatesResponse{
			Created: []schedule.CalendarDate{},
			Notice:  Notice{Kind: NoticeInfo, Title: title, Description: description},
		},
	}
}

func displayDay(day string) string {
	t, err := dategen.ParseDay(day)
	if err != nil {
		return day
	}
	return t.Format(displayLayout)
}
