package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonelite/salon-booking/internal/appointment"
	"github.com/salonelite/salon-booking/internal/catalog"
	"github.com/salonelite/salon-booking/internal/config"
	"github.com/salonelite/salon-booking/internal/db"
	redisclient "github.com/salonelite/salon-booking/internal/redis"
	"github.com/salonelite/salon-booking/internal/session"
)

const (
	extraStylists      = 10
	sampleAppointments = 200
	bookingHorizonDays = 14
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	cat := catalog.NewPgCatalog(pool)
	if err := cat.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure catalog schema: %v", err)
	}

	if err := seedCatalog(ctx, cat, extraStylists); err != nil {
		log.Fatalf("seed catalog: %v", err)
	}

	snap, closeSnap := snapshotter(ctx, cfg, pool)
	defer closeSnap()

	if err := seedAppointments(ctx, cat, snap, sampleAppointments); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedCatalog(ctx context.Context, cat *catalog.PgCatalog, extra int) error {
	for _, s := range catalog.DefaultServices() {
		if err := cat.UpsertService(ctx, s); err != nil {
			return err
		}
	}
	stylists := catalog.DefaultStylists()
	log.Printf("seeding %d services and %d stylists", len(catalog.DefaultServices()), len(stylists)+extra)

	specialties := []string{"Cuts", "Colour", "Styling", "Treatments"}
	for i := 0; i < extra; i++ {
		start := 8 + gofakeit.Number(0, 3)
		hours := catalog.WorkingHours{}
		for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"} {
			hours[day] = catalog.DaySchedule{
				Start:     catalog.FormatClock(start * 60),
				End:       catalog.FormatClock((start + 8) * 60),
				IsWorking: gofakeit.Number(0, 9) > 1,
			}
		}
		hours["sunday"] = catalog.DaySchedule{Start: "10:00", End: "14:00", IsWorking: false}

		stylists = append(stylists, catalog.Stylist{
			ID:          gofakeit.UUID(),
			Name:        gofakeit.Name(),
			Email:       gofakeit.Email(),
			Phone:       gofakeit.Phone(),
			Specialties: []string{specialties[gofakeit.Number(0, len(specialties)-1)]},
			Rating:      gofakeit.Float64Range(3.5, 5),
			Experience:  fmt.Sprintf("%d years of experience", gofakeit.Number(1, 20)),
			Schedule:    hours,
		})
	}

	for _, s := range stylists {
		if err := cat.UpsertStylist(ctx, s); err != nil {
			return err
		}
	}
	log.Println("catalog seeded")
	return nil
}

// snapshotter picks the slot the api-server will read. The memory driver has
// nothing to seed, so it falls back to the file slot.
func snapshotter(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (appointment.Snapshotter, func()) {
	switch cfg.StoreDriver {
	case "postgres":
		return db.NewSnapshotStore(pool, cfg.SnapshotKey), func() {}
	case "redis":
		rdb, err := redisclient.Connect(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connection error: %v", err)
		}
		return redisclient.NewSnapshotStore(rdb, cfg.SnapshotKey), func() { _ = rdb.Close() }
	default:
		return appointment.NewFileSnapshotter(cfg.SnapshotPath), func() {}
	}
}

func seedAppointments(ctx context.Context, cat catalog.Catalog, snap appointment.Snapshotter, count int) error {
	log.Printf("seeding %d appointments", count)

	store := appointment.Open(ctx, snap)
	stylists, err := cat.Stylists(ctx)
	if err != nil {
		return err
	}
	services, err := cat.Services(ctx)
	if err != nil {
		return err
	}

	admin := session.Actor{ID: "admin1", Role: session.RoleAdmin}
	today := time.Now().UTC()

	for i := 0; i < count; i++ {
		stylist := stylists[gofakeit.Number(0, len(stylists)-1)]
		ids := []string{services[gofakeit.Number(0, len(services)-1)].ID}
		if gofakeit.Bool() {
			ids = append(ids, services[gofakeit.Number(0, len(services)-1)].ID)
		}
		quote, err := catalog.PriceServices(ctx, cat, ids)
		if err != nil {
			return err
		}

		day := today.AddDate(0, 0, gofakeit.Number(-bookingHorizonDays, bookingHorizonDays))
		slot := 9*60 + gofakeit.Number(0, 17)*appointment.GridMinutes

		appt, err := store.Create(ctx, appointment.Draft{
			ClientID:    "client1",
			StylistID:   stylist.ID,
			ServiceIDs:  quote.ServiceIDs,
			Date:        day.Format("2006-01-02"),
			Time:        catalog.FormatClock(slot),
			Notes:       sampleNotes[gofakeit.Number(0, len(sampleNotes)-1)],
			TotalPrice:  quote.TotalPrice,
			Duration:    quote.Duration,
			ClientName:  gofakeit.Name(),
			ClientPhone: gofakeit.Phone(),
		})
		if err != nil {
			return err
		}

		// walk part of the way through the lifecycle
		for _, next := range lifecycle(day.Before(today)) {
			st := next
			if _, err := store.Update(ctx, admin, appt.ID, appointment.Patch{Status: &st}); err != nil {
				return err
			}
		}
	}

	if err := store.Flush(ctx); err != nil {
		return err
	}
	log.Printf("appointments seeded: %d", store.Len())
	return nil
}

var sampleNotes = []string{"", "", "first visit", "sensitive scalp", "bring reference photo", "prefers the window chair"}

func lifecycle(past bool) []appointment.Status {
	roll := gofakeit.Number(0, 9)
	switch {
	case roll < 2:
		return []appointment.Status{appointment.StatusCancelled}
	case past:
		return []appointment.Status{appointment.StatusConfirmed, appointment.StatusCompleted}
	case roll < 6:
		return []appointment.Status{appointment.StatusConfirmed}
	}
	return nil
}
