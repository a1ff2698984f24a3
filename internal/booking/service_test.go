package booking

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/salonelite/salon-booking/internal/appointment"
	"github.com/salonelite/salon-booking/internal/catalog"
	"github.com/salonelite/salon-booking/internal/db"
	redisclient "github.com/salonelite/salon-booking/internal/redis"
	"github.com/salonelite/salon-booking/internal/session"
)

type recorder struct {
	mu     sync.Mutex
	events []db.EventLog
}

func (r *recorder) InsertEvent(ctx context.Context, ev db.EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.EventType)
	}
	return out
}

var (
	client  = session.Actor{ID: "client1", Name: "Demo Client", Phone: "+56912345678", Role: session.RoleClient}
	maria   = session.Actor{ID: "1", Name: "María", Role: session.RoleStylist}
	carlos  = session.Actor{ID: "2", Name: "Carlos", Role: session.RoleStylist}
	admin   = session.Actor{ID: "admin1", Role: session.RoleAdmin}
	quietLg = log.New(io.Discard, "", 0)
)

func newService(t *testing.T, policy Policy) (*Service, *recorder) {
	t.Helper()
	store := appointment.Open(context.Background(), appointment.NewMemorySnapshotter(nil), appointment.WithLogger(quietLg))
	rec := &recorder{}
	svc := NewService(store, catalog.NewDefaultCatalog(), nil, rec, policy, quietLg)
	svc.now = func() time.Time { return time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC) }
	return svc, rec
}

func request(stylist, date, clock string, services ...string) BookingRequest {
	return BookingRequest{StylistID: stylist, ServiceIDs: services, Date: date, Time: clock}
}

func TestBookQuotesFromCatalogAndDefaultsClient(t *testing.T) {
	svc, rec := newService(t, Policy{})

	a, err := svc.Book(context.Background(), client, request("1", "2024-01-15", "10:00", "1", "2"))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if a.ClientID != "client1" || a.ClientName != "Demo Client" || a.ClientPhone != "+56912345678" {
		t.Fatalf("client details not defaulted from actor: %+v", a)
	}
	if a.TotalPrice != 70000 || a.Duration != 165 {
		t.Fatalf("unexpected quote price=%d duration=%d", a.TotalPrice, a.Duration)
	}
	if a.Status != appointment.StatusPending {
		t.Fatalf("expected pending, got %s", a.Status)
	}
	if got := rec.types(); len(got) != 1 || got[0] != EventAppointmentCreated {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestBookValidation(t *testing.T) {
	svc, _ := newService(t, Policy{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  BookingRequest
	}{
		{"missing services", request("1", "2024-01-15", "10:00")},
		{"missing stylist", request("", "2024-01-15", "10:00", "1")},
		{"unknown stylist", request("99", "2024-01-15", "10:00", "1")},
		{"unknown service", request("1", "2024-01-15", "10:00", "1", "404")},
		{"missing time", request("1", "2024-01-15", "", "1")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Book(ctx, client, tc.req); !errors.Is(err, appointment.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	guest := session.Actor{ID: "guest_x", Role: session.RoleClient, IsGuest: true}
	if _, err := svc.Book(ctx, guest, request("1", "2024-01-15", "10:00", "1")); !errors.Is(err, appointment.ErrValidation) {
		t.Fatalf("guest without name or phone must fail validation, got %v", err)
	}

	req := request("1", "2024-01-15", "10:00", "1")
	req.ClientName = gofakeit.Name()
	req.ClientPhone = gofakeit.Phone()
	a, err := svc.Book(ctx, guest, req)
	if err != nil || a.ClientName != req.ClientName {
		t.Fatalf("guest booking with details failed: %+v %v", a, err)
	}
}

func TestStaffCanBookForClient(t *testing.T) {
	svc, _ := newService(t, Policy{})
	req := request("1", "2024-01-15", "12:00", "3")
	req.ClientID = "walkin-7"
	req.ClientName = "Walk In"
	req.ClientPhone = "+56900000007"

	a, err := svc.Book(context.Background(), admin, req)
	if err != nil || a.ClientID != "walkin-7" {
		t.Fatalf("admin booking on behalf failed: %+v %v", a, err)
	}

	req.ClientID = "someone-else"
	a, err = svc.Book(context.Background(), client, req)
	if err != nil || a.ClientID != client.ID {
		t.Fatalf("client must always book for themselves: %+v %v", a, err)
	}
}

func TestDoubleBookingAllowedByDefault(t *testing.T) {
	svc, _ := newService(t, Policy{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Book(ctx, client, request("1", "2024-01-15", "10:00", "1")); err != nil {
			t.Fatalf("booking %d failed: %v", i, err)
		}
	}
}

func TestRejectConflictsSerialisesSlot(t *testing.T) {
	svc, _ := newService(t, Policy{RejectConflicts: true})
	ctx := context.Background()

	var ok, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(ctx, client, request("1", "2024-01-15", "10:00", "1"))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, ErrSlotUnavailable):
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != 19 {
		t.Fatalf("expected exactly one winner, got ok=%d conflicts=%d", ok, conflicts)
	}
}

func TestRejectConflictsRespectsSchedule(t *testing.T) {
	svc, _ := newService(t, Policy{RejectConflicts: true, RespectSchedule: true, DurationAware: true})
	ctx := context.Background()

	// 2024-01-21 is a Sunday, nobody works
	if _, err := svc.Book(ctx, client, request("1", "2024-01-21", "10:00", "1")); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable on a day off, got %v", err)
	}

	if _, err := svc.Book(ctx, client, request("1", "2024-01-15", "10:00", "2")); err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	// colouring runs two hours, so 11:00 overlaps
	if _, err := svc.Book(ctx, client, request("1", "2024-01-15", "11:00", "1")); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected overlap rejection, got %v", err)
	}
	if _, err := svc.Book(ctx, client, request("1", "2024-01-15", "12:00", "1")); err != nil {
		t.Fatalf("12:00 should be free: %v", err)
	}
}

func TestLockContentionMapsToRetry(t *testing.T) {
	svc, _ := newService(t, Policy{})
	svc.locker = busyLocker{}

	if _, err := svc.Book(context.Background(), client, request("1", "2024-01-15", "10:00", "1")); !errors.Is(err, ErrSlotBeingBooked) {
		t.Fatalf("expected ErrSlotBeingBooked, got %v", err)
	}
}

type busyLocker struct{}

func (busyLocker) WithSlotLock(ctx context.Context, key string, fn func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func TestLifecycleAndEvents(t *testing.T) {
	svc, rec := newService(t, Policy{})
	ctx := context.Background()

	a, _ := svc.Book(ctx, client, request("1", "2024-01-15", "10:00", "1"))

	if _, err := svc.Confirm(ctx, carlos, a.ID); !errors.Is(err, appointment.ErrForbidden) {
		t.Fatalf("another stylist must not confirm, got %v", err)
	}
	if _, err := svc.Confirm(ctx, client, a.ID); !errors.Is(err, appointment.ErrInvalidTransition) {
		t.Fatalf("client must not confirm, got %v", err)
	}
	if _, err := svc.Confirm(ctx, maria, a.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if _, err := svc.Cancel(ctx, client, a.ID); !errors.Is(err, appointment.ErrInvalidTransition) {
		t.Fatalf("client must not cancel once confirmed, got %v", err)
	}
	done, err := svc.Complete(ctx, maria, a.ID)
	if err != nil || done.Status != appointment.StatusCompleted {
		t.Fatalf("Complete failed: %+v %v", done, err)
	}

	notes := "used the new dye"
	if _, err := svc.Update(ctx, maria, a.ID, appointment.Patch{Notes: &notes}); err != nil {
		t.Fatalf("notes update failed: %v", err)
	}

	want := []string{EventAppointmentCreated, EventAppointmentStatusChanged, EventAppointmentStatusChanged}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("unexpected events %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected events %v", got)
		}
	}
}

func TestAvailabilityReflectsStore(t *testing.T) {
	svc, _ := newService(t, Policy{})
	ctx := context.Background()

	a, _ := svc.Book(ctx, client, request("1", "2024-01-15", "10:00", "1"))
	slots, err := svc.Availability(ctx, "2024-01-15", "1")
	if err != nil || len(slots) != 18 {
		t.Fatalf("unexpected slots %d %v", len(slots), err)
	}
	if slots[2].Time != "10:00" || slots[2].Available {
		t.Fatalf("10:00 should be booked: %+v", slots[2])
	}

	if _, err := svc.Cancel(ctx, client, a.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	slots, _ = svc.Availability(ctx, "2024-01-15", "1")
	if !slots[2].Available {
		t.Fatal("cancelled booking should free 10:00")
	}

	empty, err := svc.Availability(ctx, "", "1")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("missing date should give an empty list, got %v %v", empty, err)
	}
}

func TestAvailabilityRespectSchedule(t *testing.T) {
	svc, _ := newService(t, Policy{RespectSchedule: true})
	ctx := context.Background()

	sunday, err := svc.Availability(ctx, "2024-01-21", "1")
	if err != nil || len(sunday) != 0 {
		t.Fatalf("expected closed sunday, got %v %v", sunday, err)
	}
	if _, err := svc.Availability(ctx, "2024-01-15", "99"); !errors.Is(err, catalog.ErrStylistNotFound) {
		t.Fatalf("expected ErrStylistNotFound, got %v", err)
	}
	if _, err := svc.Availability(ctx, "not-a-date", "1"); !errors.Is(err, appointment.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad date, got %v", err)
	}
}

func TestRespectScheduleOffersBookableTimes(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewDefaultCatalog()
	odd := catalog.Stylist{
		ID:       "9",
		Name:     gofakeit.Name(),
		Schedule: catalog.WorkingHours{"monday": {Start: "09:15", End: "11:00", IsWorking: true}},
	}
	if err := cat.UpsertStylist(ctx, odd); err != nil {
		t.Fatalf("UpsertStylist failed: %v", err)
	}
	store := appointment.Open(ctx, appointment.NewMemorySnapshotter(nil), appointment.WithLogger(quietLg))
	svc := NewService(store, cat, nil, &recorder{}, Policy{RespectSchedule: true, RejectConflicts: true}, quietLg)

	slots, err := svc.Availability(ctx, "2024-01-15", "9")
	if err != nil {
		t.Fatalf("Availability failed: %v", err)
	}
	if len(slots) != 3 || slots[0].Time != "09:30" {
		t.Fatalf("unexpected slots %+v", slots)
	}
	for _, slot := range slots {
		if _, err := svc.Book(ctx, client, request("9", "2024-01-15", slot.Time, "1")); err != nil {
			t.Fatalf("offered slot %s rejected: %v", slot.Time, err)
		}
	}
}

func TestConcurrentStatusChangesRecordOneEvent(t *testing.T) {
	svc, rec := newService(t, Policy{})
	ctx := context.Background()

	a, _ := svc.Book(ctx, client, request("1", "2024-01-15", "10:00", "1"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Cancel(ctx, admin, a.ID); err != nil {
				t.Errorf("Cancel failed: %v", err)
			}
		}()
	}
	wg.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var changes []db.EventLog
	for _, ev := range rec.events {
		if ev.EventType == EventAppointmentStatusChanged {
			changes = append(changes, ev)
		}
	}
	if len(changes) != 1 {
		t.Fatalf("expected one status change event, got %d", len(changes))
	}
	var payload map[string]any
	if err := json.Unmarshal(changes[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["from"] != "pending" || payload["to"] != "cancelled" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestAgendaAndAppointments(t *testing.T) {
	svc, _ := newService(t, Policy{})
	ctx := context.Background()

	late, _ := svc.Book(ctx, client, request("1", "2024-01-15", "16:00", "1"))
	svc.Book(ctx, client, request("1", "2024-01-15", "09:30", "1"))
	svc.Book(ctx, client, request("2", "2024-01-15", "11:00", "1"))
	svc.Book(ctx, client, request("1", "2024-01-16", "09:00", "1"))
	svc.Confirm(ctx, maria, late.ID)

	day, err := svc.Agenda(ctx, maria, "", "")
	if err != nil {
		t.Fatalf("Agenda failed: %v", err)
	}
	if len(day) != 2 || day[0].Time != "09:30" || day[1].Time != "16:00" {
		t.Fatalf("unexpected agenda %+v", day)
	}

	confirmed, _ := svc.Agenda(ctx, maria, "2024-01-15", appointment.StatusConfirmed)
	if len(confirmed) != 1 || confirmed[0].ID != late.ID {
		t.Fatalf("unexpected confirmed agenda %+v", confirmed)
	}

	if _, err := svc.Agenda(ctx, client, "", ""); !errors.Is(err, appointment.ErrForbidden) {
		t.Fatalf("clients have no agenda, got %v", err)
	}

	mine := svc.Appointments(ctx, client, appointment.Filter{Scope: appointment.ScopeUpcoming})
	if len(mine) != 4 || mine[0].Date != "2024-01-15" || mine[3].Date != "2024-01-16" {
		t.Fatalf("unexpected client view %+v", mine)
	}
	if other := svc.Appointments(ctx, session.Actor{ID: "client2", Role: session.RoleClient}, appointment.Filter{}); len(other) != 0 {
		t.Fatalf("foreign client sees %d appointments", len(other))
	}
}

func TestLocalLockerSerialises(t *testing.T) {
	l := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.WithSlotLock(context.Background(), "k", func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				if n > atomic.LoadInt32(&maxInside) {
					atomic.StoreInt32(&maxInside, n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxInside)
	}
	if len(l.slots) != 0 {
		t.Fatalf("lock entries leaked: %d", len(l.slots))
	}
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker()
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	held := make(chan struct{})
	go l.WithSlotLock(context.Background(), "k", func(context.Context) error {
		close(held)
		<-release
		return nil
	})
	<-held

	cancel()
	if err := l.WithSlotLock(ctx, "k", func(context.Context) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(release)
}
