// Package web serves the parking administration JSON API.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"parky/internal/adapters/http/middleware"
	"parky/internal/adapters/http/perf"
	accountStore "parky/internal/adapters/storage/account"
	activityStore "parky/internal/adapters/storage/activity"
	assignmentStore "parky/internal/adapters/storage/assignment"
	attendantStore "parky/internal/adapters/storage/attendant"
	lotStore "parky/internal/adapters/storage/parkinglot"
	scheduleStore "parky/internal/adapters/storage/schedule"
	studentStore "parky/internal/adapters/storage/student"
	vehicleStore "parky/internal/adapters/storage/vehicle"
	"parky/internal/application/orchestrators"
	"parky/internal/domain/account"
	"parky/internal/domain/cascade"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore    accountStore.Store
	LotStore        lotStore.Store
	ScheduleStore   scheduleStore.Store
	AssignmentStore assignmentStore.Store
	AttendantStore  attendantStore.Store
	StudentStore    studentStore.Store
	VehicleStore    vehicleStore.Store
	ActivityStore   activityStore.Store
	CascadeTables   map[cascade.Kind]orchestrators.SoftDeleteTable
}

// Options carries process settings the handlers and middleware need.
type Options struct {
	StaticDir      string // optional admin UI bundle served at /
	CSRFKey        []byte // 32 bytes
	SecureCookies  bool
	TrustedOrigins []string
	RateLimit      int // requests per second per client IP
	SlowRequest    time.Duration
	Location       *time.Location
	AdminContact   string
	Notifier       orchestrators.CredentialNotifier
	HealthCheck    func(ctx context.Context) error
}

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// generatePassword is a variable for testability.
var generatePassword = account.GeneratePassword

// Global stores instance (set by NewMux)
var stores *Stores

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global settings (set by NewMux)
var (
	notifier     orchestrators.CredentialNotifier
	location     = time.UTC
	adminContact string
	healthCheck  func(ctx context.Context) error
	cascadeGraph = cascade.DefaultGraph()
)

// NewMux wires HTTP handlers for the app.
// The rate limiter's sweeper stops when ctx is done.
func NewMux(ctx context.Context, s *Stores, collector *perf.Collector, opts Options) http.Handler {
	stores = s
	perfCollector = collector
	notifier = opts.Notifier
	adminContact = opts.AdminContact
	healthCheck = opts.HealthCheck
	if opts.Location != nil {
		location = opts.Location
	}

	mux := http.NewServeMux()
	if opts.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(opts.StaticDir)))
	}
	registerRoutes(mux)

	rate := opts.RateLimit
	if rate <= 0 {
		rate = 10
	}
	limiter := middleware.NewRateLimiter(ctx, rate)

	// Apply middleware: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, opts.SlowRequest),
	)
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /api/admin/perf", handleAdminPerf)

	mux.HandleFunc("GET /api/lots", handleListLots)
	mux.HandleFunc("POST /api/lots", handleCreateLot)
	mux.HandleFunc("GET /api/lots/{id}/week", handleGetLotWeek)
	mux.HandleFunc("PUT /api/lots/{id}/week", handleUpdateLotWeek)
	mux.HandleFunc("DELETE /api/lots/{id}", handleDelete(cascade.KindLot))
	mux.HandleFunc("GET /api/availability", handleAvailability)

	mux.HandleFunc("GET /api/attendants", handleListAttendants)
	mux.HandleFunc("POST /api/attendants", handleRegisterAttendant)
	mux.HandleFunc("PUT /api/attendants/{id}", handleUpdateAttendant)
	mux.HandleFunc("DELETE /api/attendants/{id}", handleDelete(cascade.KindAttendant))

	mux.HandleFunc("GET /api/students", handleListStudents)
	mux.HandleFunc("POST /api/students", handleRegisterStudent)
	mux.HandleFunc("PUT /api/students/{id}", handleUpdateStudent)
	mux.HandleFunc("DELETE /api/students/{id}", handleDelete(cascade.KindStudent))

	mux.HandleFunc("GET /api/activity/weekly", handleWeeklyActivity)
	mux.HandleFunc("GET /api/dashboard", handleDashboard)
}
