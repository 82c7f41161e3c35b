package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ryanbastic/rollcall/internal/schedule"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16",
		postgres.WithDatabase("rollcall"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic(fmt.Sprintf("start postgres container: %v", err))
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(fmt.Sprintf("get connection string: %v", err))
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("create pool: %v", err))
	}
	if err := RunMigrations(ctx, testPool); err != nil {
		panic(fmt.Sprintf("run migrations: %v", err))
	}

	code := m.Run()

	testPool.Close()
	_ = testcontainers.TerminateContainer(ctr)

	os.Exit(code)
}

// freshStore empties all relations and returns a store over them.
func freshStore(t *testing.T) *PostgresStore {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE availability, calendar_dates, participants RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewPostgresStore(testPool, 5*time.Second)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	if err := RunMigrations(context.Background(), testPool); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestPostgres_Ping(t *testing.T) {
	if err := freshStore(t).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestPostgres_InsertParticipantsKeepsOrder(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	got, err := store.InsertParticipants(ctx, []string{"David", "Anna", "Clara"})
	if err != nil {
		t.Fatalf("InsertParticipants: %v", err)
	}
	want := []string{"David", "Anna", "Clara"}
	for i, p := range got {
		if p.Name != want[i] || p.ID == 0 {
			t.Errorf("participant %d: got %+v, want name %q with id", i, p, want[i])
		}
	}

	list, err := store.ListParticipants(ctx)
	if err != nil {
		t.Fatalf("ListParticipants: %v", err)
	}
	if len(list) != 3 || list[0].Name != "Anna" || list[2].Name != "David" {
		t.Errorf("list: got %+v", list)
	}
}

func TestPostgres_RenameParticipant(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	ps, _ := store.InsertParticipants(ctx, []string{"Boris"})
	if err := store.RenameParticipant(ctx, ps[0].ID, "Bořek"); err != nil {
		t.Fatalf("RenameParticipant: %v", err)
	}
	list, _ := store.ListParticipants(ctx)
	if list[0].Name != "Bořek" {
		t.Errorf("name: got %q, want %q", list[0].Name, "Bořek")
	}

	if err := store.RenameParticipant(ctx, 424242, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_InsertAndUpdateDates(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	ds, err := store.InsertDates(ctx, []schedule.DateInput{
		{Date: "2025-04-12", Note: "Veverská Bítýška festival"},
		{Date: "2025-04-10", Note: "Kroměříž"},
	})
	if err != nil {
		t.Fatalf("InsertDates: %v", err)
	}
	if ds[0].Date != "2025-04-12" || ds[1].Note != "Kroměříž" {
		t.Errorf("insert order: got %+v", ds)
	}

	if err := store.UpdateDate(ctx, ds[0].ID, schedule.DateInput{Date: "2025-04-13", Note: ""}); err != nil {
		t.Fatalf("UpdateDate: %v", err)
	}
	list, err := store.ListDates(ctx)
	if err != nil {
		t.Fatalf("ListDates: %v", err)
	}
	if len(list) != 2 || list[0].Date != "2025-04-10" || list[1].Date != "2025-04-13" || list[1].Note != "" {
		t.Errorf("list: got %+v", list)
	}

	if err := store.UpdateDate(ctx, 424242, schedule.DateInput{Date: "2025-04-13"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_InsertDatesRejectsMalformedDate(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	_, err := store.InsertDates(ctx, []schedule.DateInput{
		{Date: "2025-04-10"},
		{Date: "10.4.2025"},
	})
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
	list, _ := store.ListDates(ctx)
	if len(list) != 0 {
		t.Errorf("failed batch must not leave rows, got %+v", list)
	}
}

func TestPostgres_AvailabilityLifecycle(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	ps, _ := store.InsertParticipants(ctx, []string{"Anna"})
	ds, _ := store.InsertDates(ctx, []schedule.DateInput{{Date: "2025-04-10"}})
	pid, did := ps[0].ID, ds[0].ID

	if _, err := store.GetAvailability(ctx, pid, did); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for _, st := range []schedule.Status{schedule.StatusYes, schedule.StatusNo} {
		row := schedule.AvailabilityRow{ParticipantID: pid, DateID: did, Status: st}
		if err := store.UpsertAvailability(ctx, row); err != nil {
			t.Fatalf("UpsertAvailability(%s): %v", st, err)
		}
	}

	got, err := store.GetAvailability(ctx, pid, did)
	if err != nil {
		t.Fatalf("GetAvailability: %v", err)
	}
	if got.Status != schedule.StatusNo {
		t.Errorf("status: got %q, want %q", got.Status, schedule.StatusNo)
	}

	rows, err := store.ListAvailability(ctx)
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows: got %d, want 1 (upsert must replace)", len(rows))
	}

	if err := store.DeleteAvailability(ctx, pid, did); err != nil {
		t.Fatalf("DeleteAvailability: %v", err)
	}
	if err := store.DeleteAvailability(ctx, pid, did); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if _, err := store.GetAvailability(ctx, pid, did); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgres_UpsertRejectsUnknownStatusAndDanglingRow(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	ps, _ := store.InsertParticipants(ctx, []string{"Anna"})
	ds, _ := store.InsertDates(ctx, []schedule.DateInput{{Date: "2025-04-10"}})

	err := store.UpsertAvailability(ctx, schedule.AvailabilityRow{ParticipantID: ps[0].ID, DateID: ds[0].ID, Status: schedule.StatusUnknown})
	if err == nil {
		t.Error("expected check violation for unknown status")
	}

	err = store.UpsertAvailability(ctx, schedule.AvailabilityRow{ParticipantID: ps[0].ID, DateID: 424242, Status: schedule.StatusYes})
	if err == nil {
		t.Error("expected foreign key violation for missing date")
	}
}

func TestPostgres_QueryTimeout(t *testing.T) {
	freshStore(t)
	store := NewPostgresStore(testPool, time.Nanosecond)

	if _, err := store.ListParticipants(context.Background()); err == nil {
		t.Error("expected deadline error")
	}
}
