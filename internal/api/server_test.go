package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/session"
	"github.com/ryanbastic/rollcall/internal/storage"
)

var errBackend = errors.New("backend down")

// switchStore fails every write and single-row read while down is set.
// Listing is controlled separately so a cache can load and then lose its
// backend.
type switchStore struct {
	*storage.MemoryStore
	down     atomic.Bool
	listDown atomic.Bool
}

func newSwitchStore() *switchStore {
	return &switchStore{MemoryStore: storage.NewMemoryStore()}
}

func (s *switchStore) ListParticipants(ctx context.Context) ([]schedule.Participant, error) {
	if s.listDown.Load() {
		return nil, errBackend
	}
	return s.MemoryStore.ListParticipants(ctx)
}

func (s *switchStore) InsertParticipants(ctx context.Context, names []string) ([]schedule.Participant, error) {
	if s.down.Load() {
		return nil, errBackend
	}
	return s.MemoryStore.InsertParticipants(ctx, names)
}

func (s *switchStore) RenameParticipant(ctx context.Context, id int64, name string) error {
	if s.down.Load() {
		return errBackend
	}
	return s.MemoryStore.RenameParticipant(ctx, id, name)
}

func (s *switchStore) InsertDates(ctx context.Context, dates []schedule.DateInput) ([]schedule.CalendarDate, error) {
	if s.down.Load() {
		return nil, errBackend
	}
	return s.MemoryStore.InsertDates(ctx, dates)
}

func (s *switchStore) UpdateDate(ctx context.Context, id int64, in schedule.DateInput) error {
	if s.down.Load() {
		return errBackend
	}
	return s.MemoryStore.UpdateDate(ctx, id, in)
}

func (s *switchStore) UpsertAvailability(ctx context.Context, row schedule.AvailabilityRow) error {
	if s.down.Load() {
		return errBackend
	}
	return s.MemoryStore.UpsertAvailability(ctx, row)
}

func (s *switchStore) DeleteAvailability(ctx context.Context, participantID, dateID int64) error {
	if s.down.Load() {
		return errBackend
	}
	return s.MemoryStore.DeleteAvailability(ctx, participantID, dateID)
}

func (s *switchStore) Ping(ctx context.Context) error {
	if s.down.Load() {
		return errBackend
	}
	return s.MemoryStore.Ping(ctx)
}

type testEnv struct {
	store  *switchStore
	cache  *session.Cache
	server http.Handler
}

var fixedNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

// newTestEnv seeds the store with participants and dates, loads a cache over
// it and builds the server.
func newTestEnv(t *testing.T, participants []string, dates []schedule.DateInput) *testEnv {
	t.Helper()
	store := newSwitchStore()
	ctx := context.Background()
	if len(participants) > 0 {
		if _, err := store.InsertParticipants(ctx, participants); err != nil {
			t.Fatalf("InsertParticipants: %v", err)
		}
	}
	if len(dates) > 0 {
		if _, err := store.InsertDates(ctx, dates); err != nil {
			t.Fatalf("InsertDates: %v", err)
		}
	}

	cache := session.New(store, testLogger(), session.Options{})
	if err := cache.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return &testEnv{
		store:  store,
		cache:  cache,
		server: NewServer(testLogger(), cache, store, Options{Now: func() time.Time { return fixedNow }}),
	}
}

// newFailedEnv returns an environment whose initial load failed.
func newFailedEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newSwitchStore()
	store.listDown.Store(true)
	cache := session.New(store, testLogger(), session.Options{})
	if err := cache.Load(context.Background()); err == nil {
		t.Fatal("expected load to fail")
	}
	return &testEnv{
		store:  store,
		cache:  cache,
		server: NewServer(testLogger(), cache, store, Options{}),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v\nbody: %s", err, w.Body.String())
	}
	return v
}

func TestNewServer_Metrics(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.do(t, http.MethodGet, "/v1/livez", nil)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "rollcall_http_requests_total") {
		t.Error("expected rollcall_http_requests_total in /metrics output")
	}
}

func TestNewServer_OpenAPI(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/openapi.json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	doc := decode[map[string]any](t, w)
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range []string{
		"/v1/calendar",
		"/v1/summary",
		"/v1/availability/{participant_id}/{date_id}",
		"/v1/participants/batch",
		"/v1/dates/weekly",
	} {
		if _, ok := paths[p]; !ok {
			t.Errorf("openapi document missing %s", p)
		}
	}
}

func TestNewServer_CORS(t *testing.T) {
	store := newSwitchStore()
	cache := session.New(store, testLogger(), session.Options{})
	server := NewServer(testLogger(), cache, store, Options{CORSAllowedOrigins: []string{"https://team.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/calendar", nil)
	req.Header.Set("Origin", "https://team.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://team.example" {
		t.Errorf("Access-Control-Allow-Origin: got %q", got)
	}
}

func TestNewServer_NoCORSByDefault(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/livez", nil)
	req.Header.Set("Origin", "https://team.example")
	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin: got %q, want none", got)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) huma.ErrorModel {
	t.Helper()
	return decode[huma.ErrorModel](t, w)
}
