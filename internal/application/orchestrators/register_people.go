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
	"parky/internal/domain/attendant"
	"parky/internal/domain/student"
	"parky/internal/domain/vehicle"
)

// Credentials is what the notification collaborator delivers to a new user.
type Credentials struct {
	Name        string
	Email       string
	Password    string // generated password, or a pointer to the administrator
	Role        string
	Reactivated bool
}

// CredentialNotifier delivers login credentials.
type CredentialNotifier interface {
	NotifyCredentials(ctx context.Context, c Credentials) error
}

// AccountStore persists login credentials.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// StudentStore persists students.
type StudentStore interface {
	GetByID(ctx context.Context, id string) (student.Student, error)
	GetByEmail(ctx context.Context, email string) (student.Student, error)
	Save(ctx context.Context, s student.Student) error
}

// VehicleStore persists vehicles.
type VehicleStore interface {
	ListByStudent(ctx context.Context, studentID string) ([]vehicle.Vehicle, error)
	Save(ctx context.Context, v vehicle.Vehicle) error
}

// AttendantStore persists attendants.
type AttendantStore interface {
	GetByID(ctx context.Context, id string) (attendant.Attendant, error)
	GetByEmail(ctx context.Context, email string) (attendant.Attendant, error)
	Save(ctx context.Context, a attendant.Attendant) error
}

// RegisterStudentInput carries input for the orchestrator.
type RegisterStudentInput struct {
	Name  string
	NIM   string
	Email string
	Plate string
}

// RegisterStudentResult carries the persisted records.
type RegisterStudentResult struct {
	Student     student.Student
	Vehicle     vehicle.Vehicle
	Reactivated bool
}

// RegisterStudentDeps holds dependencies for RegisterStudent.
type RegisterStudentDeps struct {
	AccountStore     AccountStore
	StudentStore     StudentStore
	VehicleStore     VehicleStore
	Notifier         CredentialNotifier
	AdminContact     string
	GenerateID       func() string
	GeneratePassword func() (string, error)
	Now              func() time.Time
}

// ExecuteRegisterStudent registers a student with one vehicle, or reactivates the student
// already holding the email.
// PRE: name, NIM and plate are non-empty; email is valid
// POST: the student is active with exactly one active vehicle carrying the plate
// INVARIANT: the notification is sent before any write; if it fails nothing is written
func ExecuteRegisterStudent(ctx context.Context, input RegisterStudentInput, deps RegisterStudentDeps) (RegisterStudentResult, error) {
	now := deps.Now()
	s := student.Student{
		Name:  strings.TrimSpace(input.Name),
		NIM:   strings.TrimSpace(input.NIM),
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
	}
	if err := s.Validate(); err != nil {
		return RegisterStudentResult{}, invalid(err)
	}
	plate := vehicle.NormalizePlate(input.Plate)
	if plate == "" {
		return RegisterStudentResult{}, invalid(vehicle.ErrEmptyPlate)
	}

	existing, err := deps.StudentStore.GetByEmail(ctx, s.Email)
	if err == nil {
		return reactivateStudent(ctx, existing, s, plate, deps, now)
	}
	if !errors.Is(err, ErrNotFound) {
		return RegisterStudentResult{}, err
	}
	if err := ensureEmailFree(ctx, deps.AccountStore, s.Email); err != nil {
		return RegisterStudentResult{}, err
	}

	password, err := deps.GeneratePassword()
	if err != nil {
		return RegisterStudentResult{}, fmt.Errorf("generate password: %w", err)
	}
	acct := account.Account{ID: deps.GenerateID(), Email: s.Email, Role: account.RoleStudent, CreatedAt: now}
	if err := acct.SetPassword(password); err != nil {
		return RegisterStudentResult{}, err
	}
	if err := notify(ctx, deps.Notifier, Credentials{Name: s.Name, Email: s.Email, Password: password, Role: account.RoleStudent}); err != nil {
		return RegisterStudentResult{}, err
	}

	s.ID = acct.ID
	s.QRCodeID = deps.GenerateID()
	s.CreatedAt, s.UpdatedAt = now, now
	v := vehicle.Vehicle{ID: deps.GenerateID(), StudentID: s.ID, PlateNumber: plate, CreatedAt: now, UpdatedAt: now}

	steps := []namedWrite{
		{"account", func() error { return deps.AccountStore.Save(ctx, acct) }},
		{"student", func() error { return deps.StudentStore.Save(ctx, s) }},
		{"vehicle", func() error { return deps.VehicleStore.Save(ctx, v) }},
	}
	if err := runWrites(ctx, "register student "+s.Email, steps); err != nil {
		return RegisterStudentResult{}, err
	}
	slog.Info("student_event", "event", "registered", "student_id", s.ID)
	return RegisterStudentResult{Student: s, Vehicle: v}, nil
}

// reactivateStudent reuses the record already bound to the email, deleted or not.
// The account keeps its password, so the mail points at the administrator instead.
func reactivateStudent(ctx context.Context, existing, submitted student.Student, plate string, deps RegisterStudentDeps, now time.Time) (RegisterStudentResult, error) {
	if existing.IsDeleted() {
		if err := existing.Reactivate(submitted.Name, submitted.NIM, now); err != nil {
			return RegisterStudentResult{}, invalid(err)
		}
	} else {
		existing.Name, existing.NIM, existing.UpdatedAt = submitted.Name, submitted.NIM, now
	}
	v, err := primaryVehicle(ctx, deps.VehicleStore, existing.ID)
	if err != nil {
		return RegisterStudentResult{}, err
	}
	if v.ID == "" {
		v = vehicle.Vehicle{ID: deps.GenerateID(), StudentID: existing.ID, CreatedAt: now}
	}
	v.PlateNumber = plate
	v.DeletedAt = null.Time{}
	v.UpdatedAt = now

	password := "Hubungi admin"
	if deps.AdminContact != "" {
		password = "Hubungi admin di " + deps.AdminContact
	}
	if err := notify(ctx, deps.Notifier, Credentials{
		Name: existing.Name, Email: existing.Email, Password: password,
		Role: account.RoleStudent, Reactivated: true,
	}); err != nil {
		return RegisterStudentResult{}, err
	}

	steps := []namedWrite{
		{"student", func() error { return deps.StudentStore.Save(ctx, existing) }},
		{"vehicle", func() error { return deps.VehicleStore.Save(ctx, v) }},
	}
	if err := runWrites(ctx, "reactivate student "+existing.ID, steps); err != nil {
		return RegisterStudentResult{}, err
	}
	slog.Info("student_event", "event", "reactivated", "student_id", existing.ID)
	return RegisterStudentResult{Student: existing, Vehicle: v, Reactivated: true}, nil
}

// UpdateStudentInput carries input for the orchestrator.
type UpdateStudentInput struct {
	ID    string
	Name  string
	NIM   string
	Plate string
}

// UpdateStudentDeps holds dependencies for UpdateStudent.
type UpdateStudentDeps struct {
	StudentStore StudentStore
	VehicleStore VehicleStore
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteUpdateStudent changes a student's name, NIM and plate.
// PRE: student exists and is active
// POST: email and QR token are unchanged; the single active vehicle carries the plate
func ExecuteUpdateStudent(ctx context.Context, input UpdateStudentInput, deps UpdateStudentDeps) (RegisterStudentResult, error) {
	now := deps.Now()
	s, err := deps.StudentStore.GetByID(ctx, input.ID)
	if err != nil {
		return RegisterStudentResult{}, err
	}
	if s.IsDeleted() {
		return RegisterStudentResult{}, fmt.Errorf("student %s is deleted: %w", input.ID, ErrNotFound)
	}
	s.Name = strings.TrimSpace(input.Name)
	s.NIM = strings.TrimSpace(input.NIM)
	s.UpdatedAt = now
	if err := s.Validate(); err != nil {
		return RegisterStudentResult{}, invalid(err)
	}
	plate := vehicle.NormalizePlate(input.Plate)
	if plate == "" {
		return RegisterStudentResult{}, invalid(vehicle.ErrEmptyPlate)
	}

	v, err := primaryVehicle(ctx, deps.VehicleStore, s.ID)
	if err != nil {
		return RegisterStudentResult{}, err
	}
	if v.ID == "" || v.IsDeleted() {
		v = vehicle.Vehicle{ID: deps.GenerateID(), StudentID: s.ID, CreatedAt: now}
	}
	v.PlateNumber = plate
	v.UpdatedAt = now

	steps := []namedWrite{
		{"student", func() error { return deps.StudentStore.Save(ctx, s) }},
		{"vehicle", func() error { return deps.VehicleStore.Save(ctx, v) }},
	}
	if err := runWrites(ctx, "update student "+s.ID, steps); err != nil {
		return RegisterStudentResult{}, err
	}
	slog.Info("student_event", "event", "updated", "student_id", s.ID)
	return RegisterStudentResult{Student: s, Vehicle: v}, nil
}

// RegisterAttendantInput carries input for the orchestrator.
type RegisterAttendantInput struct {
	Name  string
	Email string
}

// RegisterAttendantDeps holds dependencies for RegisterAttendant.
type RegisterAttendantDeps struct {
	AccountStore     AccountStore
	AttendantStore   AttendantStore
	Notifier         CredentialNotifier
	GenerateID       func() string
	GeneratePassword func() (string, error)
	Now              func() time.Time
}

// ExecuteRegisterAttendant creates an attendant with a login account.
// PRE: name non-empty, email valid and unused
// POST: attendant ID equals the account ID
// INVARIANT: the notification is sent before any write; if it fails nothing is written
func ExecuteRegisterAttendant(ctx context.Context, input RegisterAttendantInput, deps RegisterAttendantDeps) (attendant.Attendant, error) {
	now := deps.Now()
	a := attendant.Attendant{
		Name:  strings.TrimSpace(input.Name),
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
	}
	if err := a.Validate(); err != nil {
		return attendant.Attendant{}, invalid(err)
	}
	if _, err := deps.AttendantStore.GetByEmail(ctx, a.Email); err == nil {
		return attendant.Attendant{}, fmt.Errorf("attendant %s: %w", a.Email, ErrEmailTaken)
	} else if !errors.Is(err, ErrNotFound) {
		return attendant.Attendant{}, err
	}
	if err := ensureEmailFree(ctx, deps.AccountStore, a.Email); err != nil {
		return attendant.Attendant{}, err
	}

	password, err := deps.GeneratePassword()
	if err != nil {
		return attendant.Attendant{}, fmt.Errorf("generate password: %w", err)
	}
	acct := account.Account{ID: deps.GenerateID(), Email: a.Email, Role: account.RoleAttendant, CreatedAt: now}
	if err := acct.SetPassword(password); err != nil {
		return attendant.Attendant{}, err
	}
	if err := notify(ctx, deps.Notifier, Credentials{Name: a.Name, Email: a.Email, Password: password, Role: account.RoleAttendant}); err != nil {
		return attendant.Attendant{}, err
	}

	a.ID = acct.ID
	a.CreatedAt, a.UpdatedAt = now, now
	steps := []namedWrite{
		{"account", func() error { return deps.AccountStore.Save(ctx, acct) }},
		{"attendant", func() error { return deps.AttendantStore.Save(ctx, a) }},
	}
	if err := runWrites(ctx, "register attendant "+a.Email, steps); err != nil {
		return attendant.Attendant{}, err
	}
	slog.Info("attendant_event", "event", "registered", "attendant_id", a.ID)
	return a, nil
}

// UpdateAttendantInput carries input for the orchestrator.
type UpdateAttendantInput struct {
	ID   string
	Name string
}

// UpdateAttendantDeps holds dependencies for UpdateAttendant.
type UpdateAttendantDeps struct {
	AttendantStore AttendantStore
	Now            func() time.Time
}

// ExecuteUpdateAttendant renames an attendant. The email never changes.
// PRE: attendant exists and is active
func ExecuteUpdateAttendant(ctx context.Context, input UpdateAttendantInput, deps UpdateAttendantDeps) (attendant.Attendant, error) {
	a, err := deps.AttendantStore.GetByID(ctx, input.ID)
	if err != nil {
		return attendant.Attendant{}, err
	}
	if a.IsDeleted() {
		return attendant.Attendant{}, fmt.Errorf("attendant %s is deleted: %w", input.ID, ErrNotFound)
	}
	if err := a.Rename(input.Name, deps.Now()); err != nil {
		return attendant.Attendant{}, invalid(err)
	}
	if err := deps.AttendantStore.Save(ctx, a); err != nil {
		return attendant.Attendant{}, err
	}
	return a, nil
}

// namedWrite is one step of a sequential multi-record write.
type namedWrite struct {
	name string
	run  func() error
}

// runWrites executes steps in order and reports a partial write on the first failure.
func runWrites(ctx context.Context, op string, steps []namedWrite) error {
	var applied []string
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return &PartialWriteError{Op: op, Applied: applied, Failed: []string{s.name}, Err: err}
		}
		if err := s.run(); err != nil {
			if len(applied) == 0 {
				return fmt.Errorf("%s: %w", op, err)
			}
			return &PartialWriteError{Op: op, Applied: applied, Failed: []string{s.name}, Err: err}
		}
		applied = append(applied, s.name)
	}
	return nil
}

// primaryVehicle returns the student's representative vehicle, or a zero Vehicle.
// More than one active vehicle is rejected.
func primaryVehicle(ctx context.Context, store VehicleStore, studentID string) (vehicle.Vehicle, error) {
	vehicles, err := store.ListByStudent(ctx, studentID)
	if err != nil {
		return vehicle.Vehicle{}, fmt.Errorf("load vehicles: %w", err)
	}
	v, conflict, _ := vehicle.Primary(vehicles)
	if conflict {
		return vehicle.Vehicle{}, fmt.Errorf("student %s: %w", studentID, vehicle.ErrMultipleActiveVehicles)
	}
	return v, nil
}

func ensureEmailFree(ctx context.Context, store AccountStore, email string) error {
	_, err := store.GetByEmail(ctx, email)
	if err == nil {
		return fmt.Errorf("account %s: %w", email, ErrEmailTaken)
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func notify(ctx context.Context, n CredentialNotifier, c Credentials) error {
	if err := n.NotifyCredentials(ctx, c); err != nil {
		slog.Error("notification_event", "event", "failed", "role", c.Role, "error", err)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}
