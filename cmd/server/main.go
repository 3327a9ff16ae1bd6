package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"
	_ "time/tzdata"

	"parky/internal/adapters/email"
	web "parky/internal/adapters/http"
	"parky/internal/adapters/http/perf"
	"parky/internal/adapters/storage"
	accountStore "parky/internal/adapters/storage/account"
	activityStore "parky/internal/adapters/storage/activity"
	assignmentStore "parky/internal/adapters/storage/assignment"
	attendantStore "parky/internal/adapters/storage/attendant"
	lotStore "parky/internal/adapters/storage/parkinglot"
	scheduleStore "parky/internal/adapters/storage/schedule"
	studentStore "parky/internal/adapters/storage/student"
	vehicleStore "parky/internal/adapters/storage/vehicle"
	"parky/internal/application/orchestrators"
	"parky/internal/config"
	"parky/internal/domain/account"

	"github.com/google/uuid"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_event", "event", "fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// WAL mode, foreign keys and busy timeout on every connection
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		return err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryThreshold())

	stores := &web.Stores{
		AccountStore:    accountStore.NewSQLiteStore(timedDB),
		LotStore:        lotStore.NewSQLiteStore(timedDB),
		ScheduleStore:   scheduleStore.NewSQLiteStore(timedDB),
		AssignmentStore: assignmentStore.NewSQLiteStore(timedDB),
		AttendantStore:  attendantStore.NewSQLiteStore(timedDB),
		StudentStore:    studentStore.NewSQLiteStore(timedDB),
		VehicleStore:    vehicleStore.NewSQLiteStore(timedDB),
		ActivityStore:   activityStore.NewSQLiteStore(timedDB),
		CascadeTables:   orchestrators.SoftDeleteTables(storage.CascadeTables(timedDB)),
	}

	var sender email.Sender
	if cfg.ResendKey != "" {
		sender = email.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		slog.Info("server_event", "event", "email_sender", "sender", "resend")
	} else {
		sender = email.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("server_event", "event", "email_sender", "sender", "noop", "warning", "PARKY_RESEND_KEY is not set, credentials are not delivered")
		}
	}
	notifier := email.NewCredentialNotifier(sender, cfg.ResendFrom, cfg.ReplyTo)

	if err := seed(ctx, cfg, stores); err != nil {
		return err
	}

	csrfKey, err := cfg.CSRFSecret()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	handler := web.NewMux(ctx, stores, collector, web.Options{
		StaticDir:      cfg.StaticDir,
		CSRFKey:        csrfKey,
		SecureCookies:  cfg.IsProduction(),
		TrustedOrigins: cfg.TrustedOrigins,
		RateLimit:      cfg.RateLimit,
		SlowRequest:    cfg.SlowRequestThreshold(),
		Location:       loc,
		AdminContact:   cfg.AdminContact,
		Notifier:       notifier,
		HealthCheck:    timedDB.PingContext,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_event", "event", "listening", "version", version, "addr", cfg.Addr,
			"env", cfg.Env, "schema", storage.LatestSchemaVersion())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_event", "event", "shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// seed creates the bootstrap admin and, outside production, the demo campus.
func seed(ctx context.Context, cfg config.Config, stores *web.Stores) error {
	newID := func() string { return uuid.New().String() }
	if cfg.AdminEmail != "" {
		if _, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		}, orchestrators.SeedAdminDeps{AccountStore: stores.AccountStore, GenerateID: newID, Now: time.Now}); err != nil {
			return err
		}
	}
	if !cfg.SeedDemo {
		return nil
	}

	// Demo credentials are never mailed.
	quiet := email.NewCredentialNotifier(email.NewNoopSender(), cfg.ResendFrom, cfg.ReplyTo)
	_, err := orchestrators.ExecuteSeedDemo(ctx, orchestrators.SeedDemoDeps{
		Attendants: orchestrators.RegisterAttendantDeps{
			AccountStore:     stores.AccountStore,
			AttendantStore:   stores.AttendantStore,
			Notifier:         quiet,
			GenerateID:       newID,
			GeneratePassword: account.GeneratePassword,
			Now:              time.Now,
		},
		Students: orchestrators.RegisterStudentDeps{
			AccountStore:     stores.AccountStore,
			StudentStore:     stores.StudentStore,
			VehicleStore:     stores.VehicleStore,
			Notifier:         quiet,
			AdminContact:     cfg.AdminContact,
			GenerateID:       newID,
			GeneratePassword: account.GeneratePassword,
			Now:              time.Now,
		},
		Week: orchestrators.SaveLotWeekDeps{
			LotStore:        stores.LotStore,
			ScheduleStore:   stores.ScheduleStore,
			AssignmentStore: stores.AssignmentStore,
			AttendantStore:  stores.AttendantStore,
			GenerateID:      newID,
			Now:             time.Now,
		},
		ActivityStore: stores.ActivityStore,
		GenerateID:    newID,
		Now:           time.Now,
	})
	return err
}
