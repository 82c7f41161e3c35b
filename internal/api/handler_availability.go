package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/session"
)

const saveFailedMessage = "Failed to save your changes. Please try again."

// --- Huma Input/Output types ---

type SetStatusBody struct {
	Status string `json:"status" doc:"Availability status" enum:"yes,no,maybe,unknown"`
}

type SetStatusInput struct {
	ParticipantID int64 `path:"participant_id" doc:"Participant ID"`
	DateID        int64 `path:"date_id" doc:"Calendar date ID"`
	Body          SetStatusBody
}

type SetStatusResponse struct {
	Outcome session.Outcome `json:"outcome" doc:"persisted or resync_pending" enum:"persisted,resync_pending"`
	Status  schedule.Status `json:"status" doc:"Status now held by the cell"`
}

type SetStatusOutput struct {
	Body SetStatusResponse
}

// --- Handler ---

type AvailabilityHandler struct {
	cal    Calendar
	logger *slog.Logger
}

func NewAvailabilityHandler(cal Calendar, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{cal: cal, logger: logger}
}

func registerAvailabilityRoutes(api huma.API, h *AvailabilityHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "set-availability",
		Method:      http.MethodPut,
		Path:        "/v1/availability/{participant_id}/{date_id}",
		Summary:     "Set a participant's status for a date",
		Tags:        []string{"availability"},
	}, h.SetStatus)
}

// SetStatus answers 502 when the write failed. The cell is re-read from the
// store in the background after the response has been sent.
func (h *AvailabilityHandler) SetStatus(ctx context.Context, input *SetStatusInput) (*SetStatusOutput, error) {
	res, err := h.cal.SetStatus(ctx, input.ParticipantID, input.DateID, schedule.Status(input.Body.Status))
	if err != nil {
		if res.Outcome == session.OutcomeResyncPending {
			return nil, huma.Error502BadGateway(saveFailedMessage, &huma.ErrorDetail{
				Message:  "status is being re-read from the store",
				Location: "body.outcome",
				Value:    string(session.OutcomeResyncPending),
			})
		}
		return nil, mapError(err, saveFailedMessage)
	}

	h.logger.Debug("status saved", "participant_id", input.ParticipantID, "date_id", input.DateID, "status", res.Status)
	return &SetStatusOutput{Body: SetStatusResponse{Outcome: res.Outcome, Status: res.Status}}, nil
}
