package web

import (
	"net/http"
	"strconv"
	"time"

	"parky/internal/application/projections"
)

// defaultDashboardDays is the window used when no range is given.
const defaultDashboardDays = 7

func snapshotDeps() projections.SnapshotDeps {
	return projections.SnapshotDeps{
		LotStore:        stores.LotStore,
		ScheduleStore:   stores.ScheduleStore,
		AssignmentStore: stores.AssignmentStore,
		AttendantStore:  stores.AttendantStore,
		StudentStore:    stores.StudentStore,
		VehicleStore:    stores.VehicleStore,
		ActivityStore:   stores.ActivityStore,
	}
}

// handleWeeklyActivity handles GET /api/activity/weekly?q=&weekday_only=
func handleWeeklyActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	weekdayOnly, _ := strconv.ParseBool(q.Get("weekday_only"))
	res, err := projections.QueryGetWeeklyActivity(r.Context(), projections.GetWeeklyActivityQuery{
		Search:              q.Get("q"),
		OnlyMatchingWeekday: weekdayOnly,
	}, projections.GetWeeklyActivityDeps{
		SnapshotDeps: snapshotDeps(),
		Location:     location,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDashboard handles GET /api/dashboard?start=YYYY-MM-DD&end=YYYY-MM-DD
// Without both dates it covers the last seven days up to today.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := projections.GetDashboardQuery{Start: q.Get("start"), End: q.Get("end")}
	if query.Start == "" && query.End == "" {
		today := timeNow().In(location)
		query.End = today.Format(projections.DateLayout)
		query.Start = today.AddDate(0, 0, -(defaultDashboardDays - 1)).Format(projections.DateLayout)
	}
	res, err := projections.QueryGetDashboard(r.Context(), query, projections.GetDashboardDeps{
		LotStore:       stores.LotStore,
		ActivityStore:  stores.ActivityStore,
		StudentStore:   stores.StudentStore,
		AttendantStore: stores.AttendantStore,
		Location:       location,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleHealthz handles GET /healthz
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if healthCheck != nil {
		if err := healthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAdminPerf handles GET /api/admin/perf?minutes=
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "perf collection disabled"})
		return
	}
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes <= 0 || minutes > 24*60 {
		minutes = 15
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, 10))
}
