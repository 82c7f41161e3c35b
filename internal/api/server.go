package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryanbastic/rollcall/internal/metrics"
	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/session"
)

// Calendar is the cache the handlers read from and mutate through.
// *session.Cache satisfies it.
type Calendar interface {
	State() session.State
	Snapshot() (session.Snapshot, error)
	Summary(dateID int64) (session.DateSummary, error)
	Summaries() ([]session.DateSummary, error)
	SetStatus(ctx context.Context, participantID, dateID int64, status schedule.Status) (session.MutationResult, error)
	AddParticipant(ctx context.Context, name string) (schedule.Participant, error)
	AddParticipants(ctx context.Context, text string) ([]schedule.Participant, error)
	ImportParticipantsCSV(ctx context.Context, text string) ([]schedule.Participant, error)
	RenameParticipant(ctx context.Context, id int64, name string) (schedule.Participant, error)
	AddDate(ctx context.Context, day, note string) (schedule.CalendarDate, error)
	AddDateRange(ctx context.Context, start, end, note string) ([]schedule.CalendarDate, error)
	AddWeeklyDates(ctx context.Context, start string, count int, note string) ([]schedule.CalendarDate, error)
	EditDate(ctx context.Context, id int64, day, note string) (schedule.CalendarDate, error)
}

type Options struct {
	CORSAllowedOrigins []string
	ICSProdID          string
	// Now stamps generated documents; defaults to time.Now.
	Now func() time.Time
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(logger *slog.Logger, cal Calendar, store Pinger, opts Options) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(Logging(logger))
	mux.Use(Recovery(logger))
	mux.Use(metrics.Metrics)
	if len(opts.CORSAllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	health := NewHealthHandler(store, cal, logger)
	mux.Get("/v1/livez", health.Livez)
	mux.Get("/v1/readyz", health.Readyz)
	mux.Handle("/metrics", promhttp.Handler())

	ics := NewICSHandler(cal, opts.ICSProdID, opts.Now, logger)
	mux.Get("/v1/calendar.ics", ics.Export)

	api := humachi.New(mux, huma.DefaultConfig("rollcall", "1.0.0"))
	registerCalendarRoutes(api, NewCalendarHandler(cal))
	registerAvailabilityRoutes(api, NewAvailabilityHandler(cal, logger))
	registerParticipantRoutes(api, NewParticipantHandler(cal, logger))
	registerDateRoutes(api, NewDateHandler(cal, logger))

	return mux
}
