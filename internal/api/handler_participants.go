package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/session"
)

// --- Huma Input/Output types ---

type AddParticipantInput struct {
	Body struct {
		Name string `json:"name" doc:"Participant name" maxLength:"200"`
	}
}

type ParticipantResponse struct {
	Participant schedule.Participant `json:"participant"`
	Notice      Notice               `json:"notice"`
}

type ParticipantOutput struct {
	Body ParticipantResponse
}

type AddParticipantsInput struct {
	Body struct {
		Text string `json:"text" doc:"One participant name per line"`
	}
}

type ImportParticipantsInput struct {
	Body struct {
		CSV string `json:"csv" doc:"CSV text; the first field of every line is the name"`
	}
}

type BulkParticipantsResponse struct {
	Created []schedule.Participant `json:"created"`
	Notice  Notice                 `json:"notice"`
}

// BulkParticipantsOutput is 201 when something was created and 200 otherwise.
type BulkParticipantsOutput struct {
	Status int
	Body   BulkParticipantsResponse
}

type RenameParticipantInput struct {
	ParticipantID int64 `path:"participant_id" doc:"Participant ID"`
	Body          struct {
		Name string `json:"name" doc:"New participant name" maxLength:"200"`
	}
}

// --- Handler ---

type ParticipantHandler struct {
	cal    Calendar
	logger *slog.Logger
}

func NewParticipantHandler(cal Calendar, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{cal: cal, logger: logger}
}

func registerParticipantRoutes(api huma.API, h *ParticipantHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-participant",
		Method:        http.MethodPost,
		Path:          "/v1/participants",
		Summary:       "Add a participant",
		Tags:          []string{"participants"},
		DefaultStatus: http.StatusCreated,
	}, h.AddParticipant)

	huma.Register(api, huma.Operation{
		OperationID: "add-participants",
		Method:      http.MethodPost,
		Path:        "/v1/participants/batch",
		Summary:     "Add participants from newline separated text",
		Tags:        []string{"participants"},
	}, h.AddParticipants)

	huma.Register(api, huma.Operation{
		OperationID: "import-participants",
		Method:      http.MethodPost,
		Path:        "/v1/participants/import",
		Summary:     "Import participants from CSV",
		Tags:        []string{"participants"},
	}, h.ImportParticipants)

	huma.Register(api, huma.Operation{
		OperationID: "rename-participant",
		Method:      http.MethodPatch,
		Path:        "/v1/participants/{participant_id}",
		Summary:     "Rename a participant",
		Tags:        []string{"participants"},
	}, h.RenameParticipant)
}

func (h *ParticipantHandler) AddParticipant(ctx context.Context, input *AddParticipantInput) (*ParticipantOutput, error) {
	p, err := h.cal.AddParticipant(ctx, input.Body.Name)
	if err != nil {
		return nil, mapError(err, "Failed to add participant. Please try again.")
	}

	h.logger.Info("participant added", "id", p.ID, "name", p.Name)

	return &ParticipantOutput{Body: ParticipantResponse{
		Participant: p,
		Notice: Notice{
			Kind:        NoticeSuccess,
			Title:       "Participant added",
			Description: fmt.Sprintf("%s has been added to the calendar.", p.Name),
		},
	}}, nil
}

func (h *ParticipantHandler) AddParticipants(ctx context.Context, input *AddParticipantsInput) (*BulkParticipantsOutput, error) {
	created, err := h.cal.AddParticipants(ctx, input.Body.Text)
	switch {
	case errors.Is(err, session.ErrNoNewEntities):
		return bulkParticipantsInfo("All the participants you entered already exist."), nil
	case err != nil:
		return nil, mapError(err, "Failed to add participants. Please try again.")
	}

	h.logger.Info("participants added", "count", len(created))

	return bulkParticipantsCreated(created, Notice{
		Kind:        NoticeSuccess,
		Title:       "Participants added",
		Description: fmt.Sprintf("%d participants have been added to the calendar.", len(created)),
	}), nil
}

func (h *ParticipantHandler) ImportParticipants(ctx context.Context, input *ImportParticipantsInput) (*BulkParticipantsOutput, error) {
	created, err := h.cal.ImportParticipantsCSV(ctx, input.Body.CSV)
	switch {
	case errors.Is(err, session.ErrNoNewEntities):
		return bulkParticipantsInfo("All the participants you imported already exist."), nil
	case err != nil:
		return nil, mapError(err, "There was an error importing participants. Please check the format and try again.")
	}

	h.logger.Info("participants imported", "count", len(created))

	return bulkParticipantsCreated(created, Notice{
		Kind:        NoticeSuccess,
		Title:       "Participants imported",
		Description: fmt.Sprintf("%d participants have been imported to the calendar.", len(created)),
	}), nil
}

func (h *ParticipantHandler) RenameParticipant(ctx context.Context, input *RenameParticipantInput) (*ParticipantOutput, error) {
	p, err := h.cal.RenameParticipant(ctx, input.ParticipantID, input.Body.Name)
	if err != nil {
		return nil, mapError(err, "Failed to rename participant. Please try again.")
	}

	h.logger.Info("participant renamed", "id", p.ID, "name", p.Name)

	return &ParticipantOutput{Body: ParticipantResponse{
		Participant: p,
		Notice: Notice{
			Kind:        NoticeSuccess,
			Title:       "Participant renamed",
			Description: fmt.Sprintf("Participant has been renamed to %s.", p.Name),
		},
	}}, nil
}

func bulkParticipantsCreated(created []schedule.Participant, n Notice) *BulkParticipantsOutput {
	return &BulkParticipantsOutput{
		Status: http.StatusCreated,
		Body:   BulkParticipantsResponse{Created: created, Notice: n},
	}
}

func bulkParticipantsInfo(description string) *BulkParticipantsOutput {
	return &BulkParticipantsOutput{
		Status: http.StatusOK,
		Body: BulkParticipantsResponse{
			Created: []schedule.Participant{},
			Notice:  Notice{Kind: NoticeInfo, Title: "No new participants", Description: description},
		},
	}
}
