package web

import (
	"net/http"

	"parky/internal/application/listutil"
	"parky/internal/application/orchestrators"
	"parky/internal/application/projections"
	"parky/internal/domain/attendant"
)

type registerAttendantRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

type updateAttendantRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type registerStudentRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	NIM   string `json:"nim" validate:"required,max=30"`
	Email string `json:"email" validate:"required,email"`
	Plate string `json:"plate" validate:"required,max=20"`
}

type updateStudentRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	NIM   string `json:"nim" validate:"required,max=30"`
	Plate string `json:"plate" validate:"required,max=20"`
}

// studentResponse is the student returned by register and update.
type studentResponse struct {
	ID          string `json:"id"`
	QRCodeID    string `json:"qr_code_id"`
	Name        string `json:"name"`
	NIM         string `json:"nim"`
	Email       string `json:"email"`
	Plate       string `json:"plate"`
	Reactivated bool   `json:"reactivated,omitempty"`
}

func toStudentResponse(res orchestrators.RegisterStudentResult) studentResponse {
	return studentResponse{
		ID:          res.Student.ID,
		QRCodeID:    res.Student.QRCodeID,
		Name:        res.Student.Name,
		NIM:         res.Student.NIM,
		Email:       res.Student.Email,
		Plate:       res.Vehicle.PlateNumber,
		Reactivated: res.Reactivated,
	}
}

func toAttendantRow(a attendant.Attendant) projections.AttendantRow {
	return projections.AttendantRow{ID: a.ID, Name: a.Name, Email: a.Email}
}

// handleListAttendants handles GET /api/attendants
func handleListAttendants(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParseListParams(r.URL.Query(), nil)
	list, err := projections.QueryListAttendants(r.Context(), params, stores.AttendantStore)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleRegisterAttendant handles POST /api/attendants
func handleRegisterAttendant(w http.ResponseWriter, r *http.Request) {
	var req registerAttendantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := orchestrators.ExecuteRegisterAttendant(r.Context(), orchestrators.RegisterAttendantInput{
		Name:  req.Name,
		Email: req.Email,
	}, orchestrators.RegisterAttendantDeps{
		AccountStore:     stores.AccountStore,
		AttendantStore:   stores.AttendantStore,
		Notifier:         notifier,
		GenerateID:       generateID,
		GeneratePassword: generatePassword,
		Now:              timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendantRow(a))
}

// handleUpdateAttendant handles PUT /api/attendants/{id}
func handleUpdateAttendant(w http.ResponseWriter, r *http.Request) {
	var req updateAttendantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := orchestrators.ExecuteUpdateAttendant(r.Context(), orchestrators.UpdateAttendantInput{
		ID:   r.PathValue("id"),
		Name: req.Name,
	}, orchestrators.UpdateAttendantDeps{
		AttendantStore: stores.AttendantStore,
		Now:            timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendantRow(a))
}

// handleListStudents handles GET /api/students
func handleListStudents(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParseListParams(r.URL.Query(), nil)
	list, err := projections.QueryListStudents(r.Context(), params, stores.StudentStore)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleRegisterStudent handles POST /api/students
// A known email reactivates the existing student and answers 200 instead of 201.
func handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteRegisterStudent(r.Context(), orchestrators.RegisterStudentInput{
		Name:  req.Name,
		NIM:   req.NIM,
		Email: req.Email,
		Plate: req.Plate,
	}, orchestrators.RegisterStudentDeps{
		AccountStore:     stores.AccountStore,
		StudentStore:     stores.StudentStore,
		VehicleStore:     stores.VehicleStore,
		Notifier:         notifier,
		AdminContact:     adminContact,
		GenerateID:       generateID,
		GeneratePassword: generatePassword,
		Now:              timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Reactivated {
		status = http.StatusOK
	}
	writeJSON(w, status, toStudentResponse(res))
}

// handleUpdateStudent handles PUT /api/students/{id}
func handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req updateStudentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteUpdateStudent(r.Context(), orchestrators.UpdateStudentInput{
		ID:    r.PathValue("id"),
		Name:  req.Name,
		NIM:   req.NIM,
		Plate: req.Plate,
	}, orchestrators.UpdateStudentDeps{
		StudentStore: stores.StudentStore,
		VehicleStore: stores.VehicleStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(res))
}
