package web

import (
	"log/slog"
	"net/http"

	"parky/internal/application/listutil"
	"parky/internal/application/orchestrators"
	"parky/internal/application/projections"
	"parky/internal/domain/cascade"
)

// lotWeekRequest is the body of POST /api/lots and PUT /api/lots/{id}/week.
type lotWeekRequest struct {
	Name                string           `json:"name" validate:"required,max=100"`
	MaxCapacity         int              `json:"max_capacity" validate:"gt=0"`
	Latitude            float64          `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude           float64          `json:"longitude" validate:"gte=-180,lte=180"`
	IsActive            bool             `json:"is_active"`
	InactiveDescription string           `json:"inactive_description" validate:"required_if=IsActive false,max=500"`
	Days                []dayChoiceInput `json:"days" validate:"max=7,dive"`
}

type dayChoiceInput struct {
	Day         string `json:"day" validate:"required"`
	IsClosed    bool   `json:"is_closed"`
	OpenTime    string `json:"open_time" validate:"required_if=IsClosed false,omitempty,datetime=15:04"`
	ClosedTime  string `json:"closed_time" validate:"required_if=IsClosed false,omitempty,datetime=15:04"`
	AttendantID string `json:"attendant_id"`
}

func (req lotWeekRequest) input(lotID string) orchestrators.SaveLotWeekInput {
	in := orchestrators.SaveLotWeekInput{
		LotID: lotID,
		Lot: orchestrators.LotFields{
			Name:                req.Name,
			MaxCapacity:         req.MaxCapacity,
			Latitude:            req.Latitude,
			Longitude:           req.Longitude,
			IsActive:            req.IsActive,
			InactiveDescription: req.InactiveDescription,
		},
	}
	for _, d := range req.Days {
		in.Days = append(in.Days, orchestrators.DayChoice{
			Day:         d.Day,
			IsClosed:    d.IsClosed,
			OpenTime:    d.OpenTime,
			ClosedTime:  d.ClosedTime,
			AttendantID: d.AttendantID,
		})
	}
	return in
}

func saveLotWeekDeps() orchestrators.SaveLotWeekDeps {
	return orchestrators.SaveLotWeekDeps{
		LotStore:        stores.LotStore,
		ScheduleStore:   stores.ScheduleStore,
		AssignmentStore: stores.AssignmentStore,
		AttendantStore:  stores.AttendantStore,
		GenerateID:      generateID,
		Now:             timeNow,
	}
}

// handleListLots handles GET /api/lots
func handleListLots(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParseListParams(r.URL.Query(), projections.LotSortColumns)
	list, err := projections.QueryListLots(r.Context(), params, stores.LotStore)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateLot handles POST /api/lots
func handleCreateLot(w http.ResponseWriter, r *http.Request) {
	var req lotWeekRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteSaveLotWeek(r.Context(), req.input(""), saveLotWeekDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	week, err := projections.QueryGetLotWeek(r.Context(), projections.GetLotWeekQuery{LotID: res.Lot.ID}, lotWeekDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, week)
}

// handleUpdateLotWeek handles PUT /api/lots/{id}/week
func handleUpdateLotWeek(w http.ResponseWriter, r *http.Request) {
	var req lotWeekRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if _, err := orchestrators.ExecuteSaveLotWeek(r.Context(), req.input(id), saveLotWeekDeps()); err != nil {
		writeError(w, err)
		return
	}
	week, err := projections.QueryGetLotWeek(r.Context(), projections.GetLotWeekQuery{LotID: id}, lotWeekDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func lotWeekDeps() projections.GetLotWeekDeps {
	return projections.GetLotWeekDeps{
		LotStore:        stores.LotStore,
		ScheduleStore:   stores.ScheduleStore,
		AssignmentStore: stores.AssignmentStore,
	}
}

// handleGetLotWeek handles GET /api/lots/{id}/week
func handleGetLotWeek(w http.ResponseWriter, r *http.Request) {
	week, err := projections.QueryGetLotWeek(r.Context(), projections.GetLotWeekQuery{LotID: r.PathValue("id")}, lotWeekDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

// handleAvailability handles GET /api/availability?day=&lot_id=
func handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := projections.QueryGetAvailableAttendants(r.Context(), projections.GetAvailableAttendantsQuery{
		Day:          q.Get("day"),
		ExcludeLotID: q.Get("lot_id"),
	}, projections.GetAvailableAttendantsDeps{
		AttendantStore:  stores.AttendantStore,
		AssignmentStore: stores.AssignmentStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// deleteResponse reports the records a cascade touched.
type deleteResponse struct {
	Deleted []string `json:"deleted"`
	Kept    []string `json:"kept,omitempty"`
}

// handleDelete handles DELETE for the cascade roots.
func handleDelete(kind cascade.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := orchestrators.ExecuteSoftDelete(r.Context(), orchestrators.SoftDeleteInput{
			Kind: kind,
			ID:   r.PathValue("id"),
		}, orchestrators.SoftDeleteDeps{
			Graph:  cascadeGraph,
			Tables: stores.CascadeTables,
			Now:    timeNow,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		slog.Info("api_event", "event", "deleted", "kind", string(kind), "id", r.PathValue("id"))
		out := deleteResponse{Deleted: make([]string, 0, len(res.Deleted))}
		for _, t := range res.Deleted {
			out.Deleted = append(out.Deleted, t.String())
		}
		for _, t := range res.Kept {
			out.Kept = append(out.Kept, t.String())
		}
		writeJSON(w, http.StatusOK, out)
	}
}
