package db

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
)

// requireDSN skips unless a real database is available.
func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	return dsn
}

func TestSnapshotAndEvents(t *testing.T) {
	dsn := requireDSN(t)
	ctx := context.Background()

	pool, err := ConnectPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("ConnectPostgres failed: %v", err)
	}
	defer pool.Close()

	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	snap := NewSnapshotStore(pool, "test_"+uuid.NewString())
	data, err := snap.Load(ctx)
	if err != nil || data != nil {
		t.Fatalf("expected empty slot, got %q %v", data, err)
	}
	if err := snap.Save(ctx, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := snap.Save(ctx, []byte(`[{"id":"b"}]`)); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	data, err = snap.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	var got []map[string]string
	if err := json.Unmarshal(data, &got); err != nil || len(got) != 1 || got[0]["id"] != "b" {
		t.Fatalf("unexpected snapshot %s %v", data, err)
	}

	events := NewEventStore(pool)
	apptID := uuid.NewString()
	if err := events.InsertEvent(ctx, EventLog{EventType: "APPOINTMENT_CREATED", AppointmentID: apptID}); err != nil {
		t.Fatalf("InsertEvent failed: %v", err)
	}
	trail, err := events.EventsFor(ctx, apptID)
	if err != nil || len(trail) != 1 || trail[0].EventType != "APPOINTMENT_CREATED" {
		t.Fatalf("unexpected trail %+v %v", trail, err)
	}
}
