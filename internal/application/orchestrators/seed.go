package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"

	"parky/internal/domain/account"
	"parky/internal/domain/activity"
	"parky/internal/domain/schedule"
)

// SeedAdminInput carries the bootstrap administrator credentials.
type SeedAdminInput struct {
	Email    string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	AccountStore AccountStore
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteSeedAdmin creates the administrator account unless the email is already bound.
// PRE: Database is migrated
// POST: an account with the email exists; an existing one is left untouched
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := ensureEmailFree(ctx, deps.AccountStore, email); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}
	acct := account.Account{ID: deps.GenerateID(), Email: email, Role: account.RoleAdmin, CreatedAt: deps.Now()}
	if err := acct.Validate(); err != nil {
		return false, invalid(err)
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return false, invalid(err)
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return false, err
	}
	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return true, nil
}

// ActivityWriter persists observed parking activity.
type ActivityWriter interface {
	SaveActivity(ctx context.Context, a activity.Activity) error
	SaveHistory(ctx context.Context, h activity.History) error
}

// SeedDemoDeps holds every store the demo seed writes through.
type SeedDemoDeps struct {
	Attendants    RegisterAttendantDeps
	Students      RegisterStudentDeps
	Week          SaveLotWeekDeps
	ActivityStore ActivityWriter
	GenerateID    func() string
	Now           func() time.Time
}

// SeedDemoResult counts what the demo seed created.
type SeedDemoResult struct {
	Attendants int
	Lots       int
	Students   int
	Activities int
}

var (
	demoAttendants = []RegisterAttendantInput{
		{Name: "Budi Santoso", Email: "budi@parky.local"},
		{Name: "Siti Rahma", Email: "siti@parky.local"},
	}
	demoStudents = []RegisterStudentInput{
		{Name: "Ani Wijaya", NIM: "2101001", Email: "ani@parky.local", Plate: "b1234xy"},
		{Name: "Bayu Pratama", NIM: "2101002", Email: "bayu@parky.local", Plate: "D 77 AB"},
		{Name: "Citra Lestari", NIM: "2101003", Email: "citra@parky.local", Plate: "f 9 zz"},
	}
	demoLots = []LotFields{
		{Name: "Gedung A", MaxCapacity: 120, Latitude: -6.3621, Longitude: 106.8249, IsActive: true},
		{Name: "Gedung B", MaxCapacity: 80, Latitude: -6.3645, Longitude: 106.8271, IsActive: true},
	}
)

// ExecuteSeedDemo fills an empty database with a small campus: attendants, lots staffed on
// weekdays, students and a week of parking activity.
// PRE: Database is migrated
// POST: seeding is skipped when the first demo attendant already exists
func ExecuteSeedDemo(ctx context.Context, deps SeedDemoDeps) (SeedDemoResult, error) {
	var res SeedDemoResult
	attendantIDs := make([]string, 0, len(demoAttendants))
	for _, in := range demoAttendants {
		a, err := ExecuteRegisterAttendant(ctx, in, deps.Attendants)
		if errors.Is(err, ErrEmailTaken) && res.Attendants == 0 {
			slog.Info("seed_event", "event", "demo_skipped", "reason", "already seeded")
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("seed attendant %s: %w", in.Email, err)
		}
		attendantIDs = append(attendantIDs, a.ID)
		res.Attendants++
	}

	lotIDs := make([]string, 0, len(demoLots))
	for i, fields := range demoLots {
		saved, err := ExecuteSaveLotWeek(ctx, SaveLotWeekInput{Lot: fields, Days: demoWeek(attendantIDs[i%len(attendantIDs)])}, deps.Week)
		if err != nil {
			return res, fmt.Errorf("seed lot %s: %w", fields.Name, err)
		}
		lotIDs = append(lotIDs, saved.Lot.ID)
		res.Lots++
	}

	studentIDs := make([]string, 0, len(demoStudents))
	for _, in := range demoStudents {
		r, err := ExecuteRegisterStudent(ctx, in, deps.Students)
		if err != nil {
			return res, fmt.Errorf("seed student %s: %w", in.Email, err)
		}
		studentIDs = append(studentIDs, r.Student.ID)
		res.Students++
	}

	now := deps.Now()
	for day := 6; day >= 0; day-- {
		for i, sid := range studentIDs {
			if (day+i)%3 == 0 {
				continue
			}
			if err := seedActivity(ctx, deps, sid, lotIDs[(day+i)%len(lotIDs)], now.AddDate(0, 0, -day).Add(-time.Duration(i)*time.Hour), day > 0); err != nil {
				return res, err
			}
			res.Activities++
		}
	}
	slog.Info("seed_event", "event", "demo_seeded",
		"attendants", res.Attendants, "lots", res.Lots, "students", res.Students, "activities", res.Activities)
	return res, nil
}

func seedActivity(ctx context.Context, deps SeedDemoDeps, studentID, lotID string, at time.Time, exited bool) error {
	h := activity.History{ID: deps.GenerateID(), Status: activity.StatusIn, ParkedAt: null.TimeFrom(at), CreatedAt: at}
	if exited {
		h.Exit(at.Add(4 * time.Hour))
	}
	a := activity.Activity{ID: deps.GenerateID(), StudentID: studentID, LotID: lotID, HistoryID: h.ID, VehicleInCount: 1, CreatedAt: at, UpdatedAt: at}
	if err := deps.ActivityStore.SaveHistory(ctx, h); err != nil {
		return fmt.Errorf("seed history: %w", err)
	}
	if err := deps.ActivityStore.SaveActivity(ctx, a); err != nil {
		return fmt.Errorf("seed activity: %w", err)
	}
	return nil
}

// demoWeek opens Monday to Friday and closes the weekend, one attendant throughout.
func demoWeek(attendantID string) []DayChoice {
	days := make([]DayChoice, 0, len(schedule.ValidDays))
	for _, d := range schedule.ValidDays {
		c := DayChoice{Day: d, OpenTime: "07:00", ClosedTime: "17:00", AttendantID: attendantID}
		if d == schedule.Saturday || d == schedule.Sunday {
			c = DayChoice{Day: d, IsClosed: true, AttendantID: attendantID}
		}
		days = append(days, c)
	}
	return days
}
