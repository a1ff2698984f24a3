package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/salonelite/salon-booking/internal/api"
	"github.com/salonelite/salon-booking/internal/appointment"
	"github.com/salonelite/salon-booking/internal/booking"
	"github.com/salonelite/salon-booking/internal/catalog"
	"github.com/salonelite/salon-booking/internal/config"
	"github.com/salonelite/salon-booking/internal/db"
	redisclient "github.com/salonelite/salon-booking/internal/redis"
	"github.com/salonelite/salon-booking/internal/session"
)

const version = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s store=%s catalog=%s lock=%s",
		cfg.Env, cfg.HTTPPort, cfg.StoreDriver, cfg.CatalogDriver, cfg.LockDriver)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pgPool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		if err == nil {
			err = db.EnsureSchema(pgCtx, pgPool)
		}
		cancelPg()
		if err != nil {
			log.Fatalf("postgres setup error: %v", err)
		}
		defer pgPool.Close()
		log.Println("connected to Postgres")
	}

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb, err = redisclient.Connect(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connection error: %v", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		log.Println("connected to Redis")
	}

	var snap appointment.Snapshotter
	switch cfg.StoreDriver {
	case "memory":
		snap = appointment.NewMemorySnapshotter(nil)
	case "file":
		snap = appointment.NewFileSnapshotter(cfg.SnapshotPath)
	case "redis":
		snap = redisclient.NewSnapshotStore(rdb, cfg.SnapshotKey)
	case "postgres":
		snap = db.NewSnapshotStore(pgPool, cfg.SnapshotKey)
	}

	storeLogger := log.New(os.Stdout, "[appointments] ", log.LstdFlags|log.Lshortfile)
	opts := []appointment.Option{appointment.WithLogger(storeLogger)}
	if cfg.WriteBehind {
		opts = append(opts, appointment.WithWriteBehind())
	}
	store := appointment.Open(rootCtx, snap, opts...)

	persistCtx, stopPersist := context.WithCancel(context.Background())
	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)
		store.RunPersister(persistCtx)
	}()

	var cat api.CatalogStore
	switch cfg.CatalogDriver {
	case "postgres":
		pgCat := catalog.NewPgCatalog(pgPool)
		if err := pgCat.EnsureSchema(rootCtx); err != nil {
			log.Fatalf("catalog schema error: %v", err)
		}
		cat = pgCat
	default:
		cat = catalog.NewDefaultCatalog()
	}

	var locker booking.Locker
	if cfg.LockDriver == "redis" {
		locker = redisclient.NewSlotLocker(rdb, cfg.LockTTL)
	}

	var events booking.EventRecorder
	if pgPool != nil {
		events = db.NewEventStore(pgPool)
	}

	bookingLogger := log.New(os.Stdout, "[booking] ", log.LstdFlags|log.Lshortfile)
	svc := booking.NewService(store, cat, locker, events, booking.Policy{
		RespectSchedule: cfg.RespectSchedule,
		DurationAware:   cfg.DurationAware,
		RejectConflicts: cfg.RejectSlotConflicts,
	}, bookingLogger)

	router := api.NewRouter(api.RouterConfig{
		Booking: svc,
		Catalog: cat,
		Issuer:  session.NewIssuer(cfg.SessionSecret, cfg.SessionTTL),
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}

	stopPersist()
	<-persistDone
	if err := store.Flush(shutdownCtx); err != nil {
		log.Printf("final snapshot flush error: %v", err)
	}

	log.Println("api-server stopped")
}
