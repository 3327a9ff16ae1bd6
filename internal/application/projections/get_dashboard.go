package projections

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	attendantstore "parky/internal/adapters/storage/attendant"
	studentstore "parky/internal/adapters/storage/student"
	"parky/internal/domain/activity"
	"parky/internal/domain/parkinglot"
)

// DateLayout is the date axis format.
const DateLayout = "2006-01-02"

// MaxDashboardDays is the most dates a range may hold, both ends included.
const MaxDashboardDays = 366

// UnknownLot labels activity whose lot cannot be resolved.
const UnknownLot = "Unknown"

// GetDashboardQuery carries input for the dashboard projection.
// Start and End are calendar dates, both inclusive.
type GetDashboardQuery struct {
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	LotStore       LotStore
	ActivityStore  ActivityStore
	StudentStore   StudentStore
	AttendantStore AttendantStore
	Location       *time.Location
}

// Series is one lot's daily counts aligned with the date axis.
type Series struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}

// DashboardResult carries the chart and the totals.
type DashboardResult struct {
	Dates           []string `json:"dates"`
	Series          []Series `json:"series"`
	TotalStudents   int      `json:"total_students"`
	TotalAttendants int      `json:"total_attendants"`
}

// QueryGetDashboard builds per-lot activity series for a date range plus the active totals.
// PRE: Start <= End, both valid dates, spanning at most MaxDashboardDays dates
// POST: every series has len(Dates) points
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (DashboardResult, error) {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	start, end, err := parseRange(query.Start, query.End, loc)
	if err != nil {
		return DashboardResult{}, err
	}

	var (
		lots       []parkinglot.Lot
		activities []activity.Activity
		result     DashboardResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		lots, err = deps.LotStore.ListAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		// The store compares instants; the whole last day is included.
		activities, err = deps.ActivityStore.ListActivitiesBetween(gctx, start, end.AddDate(0, 0, 1).Add(-time.Nanosecond))
		return err
	})
	g.Go(func() (err error) {
		result.TotalStudents, err = deps.StudentStore.Count(gctx, studentstore.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		result.TotalAttendants, err = deps.AttendantStore.Count(gctx, attendantstore.ListFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardResult{}, fmt.Errorf("load dashboard: %w", err)
	}

	result.Dates, result.Series = BuildSeries(activities, lots, start, end, loc)
	return result, nil
}

// BuildSeries buckets activities per lot name and calendar day.
// POST: dates covers start..end inclusive, one entry per day; each series is zero-filled
// to len(dates); series are ordered by name ignoring case
func BuildSeries(activities []activity.Activity, lots []parkinglot.Lot, start, end time.Time, loc *time.Location) ([]string, []Series) {
	dates := DateRange(start, end)
	if len(dates) == 0 {
		return []string{}, []Series{}
	}
	first, last := dates[0], dates[len(dates)-1]

	names := make(map[string]string, len(lots))
	for _, l := range lots {
		names[l.ID] = l.Name
	}

	counts := make(map[string]map[string]int)
	for _, a := range activities {
		date := a.CreatedAt.In(loc).Format(DateLayout)
		if date < first || date > last {
			continue
		}
		name, ok := names[a.LotID]
		if !ok || name == "" {
			name = UnknownLot
		}
		if counts[name] == nil {
			counts[name] = make(map[string]int)
		}
		counts[name][date]++
	}

	lotNames := make([]string, 0, len(counts))
	for name := range counts {
		lotNames = append(lotNames, name)
	}
	col := collate.New(language.Indonesian, collate.IgnoreCase)
	sort.SliceStable(lotNames, func(i, j int) bool {
		if c := col.CompareString(lotNames[i], lotNames[j]); c != 0 {
			return c < 0
		}
		return lotNames[i] < lotNames[j]
	})

	series := make([]Series, 0, len(lotNames))
	for _, name := range lotNames {
		data := make([]int, len(dates))
		for i, d := range dates {
			data[i] = counts[name][d]
		}
		series = append(series, Series{Name: name, Data: data})
	}
	return dates, series
}

// DateRange lists every calendar date from start to end inclusive.
// POST: at least one date when start <= end
func DateRange(start, end time.Time) []string {
	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out
}

func parseRange(startStr, endStr string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout, startStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q is not a YYYY-MM-DD date", ErrInvalidQuery, startStr)
	}
	end, err := time.ParseInLocation(DateLayout, endStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q is not a YYYY-MM-DD date", ErrInvalidQuery, endStr)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end is before start", ErrInvalidQuery)
	}
	// more than MaxDashboardDays dates, counted on the calendar
	if end.After(start.AddDate(0, 0, MaxDashboardDays-1)) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range exceeds %d days", ErrInvalidQuery, MaxDashboardDays)
	}
	return start, end, nil
}
