package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/session"
)

// --- Huma Input/Output types ---

type CalendarResponse struct {
	Participants []schedule.Participant                `json:"participants" doc:"Participants in load order"`
	Dates        []schedule.CalendarDate               `json:"dates" doc:"Calendar dates in load order"`
	Matrix       map[string]map[string]schedule.Status `json:"matrix" doc:"participant id -> date id -> status"`
}

type GetCalendarInput struct{}

type GetCalendarOutput struct {
	Body CalendarResponse
}

type ListSummariesInput struct{}

type ListSummariesOutput struct {
	Body []session.DateSummary
}

type GetSummaryInput struct {
	DateID int64 `path:"date_id" doc:"Calendar date ID"`
}

type GetSummaryOutput struct {
	Body session.DateSummary
}

// --- Handler ---

type CalendarHandler struct {
	cal Calendar
}

func NewCalendarHandler(cal Calendar) *CalendarHandler {
	return &CalendarHandler{cal: cal}
}

func registerCalendarRoutes(api huma.API, h *CalendarHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-calendar",
		Method:      http.MethodGet,
		Path:        "/v1/calendar",
		Summary:     "Get participants, dates and the availability matrix",
		Tags:        []string{"calendar"},
	}, h.GetCalendar)

	huma.Register(api, huma.Operation{
		OperationID: "list-summaries",
		Method:      http.MethodGet,
		Path:        "/v1/summary",
		Summary:     "Get per-date tallies in date order",
		Tags:        []string{"calendar"},
	}, h.ListSummaries)

	huma.Register(api, huma.Operation{
		OperationID: "get-date-summary",
		Method:      http.MethodGet,
		Path:        "/v1/dates/{date_id}/summary",
		Summary:     "Get the tally for a single date",
		Tags:        []string{"calendar"},
	}, h.GetSummary)
}

func (h *CalendarHandler) GetCalendar(ctx context.Context, input *GetCalendarInput) (*GetCalendarOutput, error) {
	snap, err := h.cal.Snapshot()
	if err != nil {
		return nil, mapError(err, loadFailedMessage)
	}

	matrix := make(map[string]map[string]schedule.Status, len(snap.Matrix))
	for pid, row := range snap.Matrix {
		cells := make(map[string]schedule.Status, len(row))
		for did, status := range row {
			cells[strconv.FormatInt(did, 10)] = status
		}
		matrix[strconv.FormatInt(pid, 10)] = cells
	}

	return &GetCalendarOutput{Body: CalendarResponse{
		Participants: nonNil(snap.Participants),
		Dates:        nonNil(snap.Dates),
		Matrix:       matrix,
	}}, nil
}

func (h *CalendarHandler) ListSummaries(ctx context.Context, input *ListSummariesInput) (*ListSummariesOutput, error) {
	summaries, err := h.cal.Summaries()
	if err != nil {
		return nil, mapError(err, loadFailedMessage)
	}
	return &ListSummariesOutput{Body: nonNil(summaries)}, nil
}

func (h *CalendarHandler) GetSummary(ctx context.Context, input *GetSummaryInput) (*GetSummaryOutput, error) {
	s, err := h.cal.Summary(input.DateID)
	if err != nil {
		return nil, mapError(err, loadFailedMessage)
	}
	return &GetSummaryOutput{Body: s}, nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
