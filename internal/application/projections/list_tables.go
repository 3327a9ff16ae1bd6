package projections

import (
	"context"

	attendantstore "parky/internal/adapters/storage/attendant"
	lotstore "parky/internal/adapters/storage/parkinglot"
	studentstore "parky/internal/adapters/storage/student"
	"parky/internal/application/listutil"
	"parky/internal/domain/attendant"
	"parky/internal/domain/parkinglot"
	"parky/internal/domain/student"
)

// LotSortColumns are the sortable columns of the lot table.
var LotSortColumns = []string{"name", "max_capacity", "created_at"}

// LotList is one page of the lot table.
type LotList struct {
	Items []LotView         `json:"items"`
	Page  listutil.PageInfo `json:"page"`
}

// AttendantRow is one line of the attendant table.
type AttendantRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AttendantList is one page of the attendant table.
type AttendantList struct {
	Items []AttendantRow    `json:"items"`
	Page  listutil.PageInfo `json:"page"`
}

// StudentRow is one line of the student table.
type StudentRow struct {
	ID       string `json:"id"`
	QRCodeID string `json:"qr_code_id"`
	Name     string `json:"name"`
	NIM      string `json:"nim"`
	Email    string `json:"email"`
}

// StudentList is one page of the student table.
type StudentList struct {
	Items []StudentRow      `json:"items"`
	Page  listutil.PageInfo `json:"page"`
}

// QueryListLots returns one page of active lots.
// POST: Page.Page is clamped into the available range before reading rows
func QueryListLots(ctx context.Context, params listutil.ListParams, store LotStore) (LotList, error) {
	filter := lotstore.ListFilter{Search: params.Search, Sort: params.Sort, Dir: params.Dir}
	lots, page, err := listutil.Fetch(ctx, params.PageParams,
		func(ctx context.Context) (int, error) { return store.Count(ctx, filter) },
		func(ctx context.Context, limit, offset int) ([]parkinglot.Lot, error) {
			filter.Limit, filter.Offset = limit, offset
			return store.List(ctx, filter)
		})
	if err != nil {
		return LotList{}, err
	}
	out := LotList{Items: make([]LotView, 0, len(lots)), Page: page}
	for _, l := range lots {
		out.Items = append(out.Items, LotView{
			ID:                  l.ID,
			Name:                l.Name,
			MaxCapacity:         l.MaxCapacity,
			Latitude:            l.Latitude,
			Longitude:           l.Longitude,
			IsActive:            l.IsActive,
			InactiveDescription: l.InactiveDescription.String,
		})
	}
	return out, nil
}

// QueryListAttendants returns one page of active attendants ordered by name.
func QueryListAttendants(ctx context.Context, params listutil.ListParams, store AttendantStore) (AttendantList, error) {
	filter := attendantstore.ListFilter{Search: params.Search, Dir: params.Dir}
	attendants, page, err := listutil.Fetch(ctx, params.PageParams,
		func(ctx context.Context) (int, error) { return store.Count(ctx, filter) },
		func(ctx context.Context, limit, offset int) ([]attendant.Attendant, error) {
			filter.Limit, filter.Offset = limit, offset
			return store.List(ctx, filter)
		})
	if err != nil {
		return AttendantList{}, err
	}
	out := AttendantList{Items: make([]AttendantRow, 0, len(attendants)), Page: page}
	for _, a := range attendants {
		out.Items = append(out.Items, AttendantRow{ID: a.ID, Name: a.Name, Email: a.Email})
	}
	return out, nil
}

// QueryListStudents returns one page of active students ordered by name.
func QueryListStudents(ctx context.Context, params listutil.ListParams, store StudentStore) (StudentList, error) {
	filter := studentstore.ListFilter{Search: params.Search, Dir: params.Dir}
	students, page, err := listutil.Fetch(ctx, params.PageParams,
		func(ctx context.Context) (int, error) { return store.Count(ctx, filter) },
		func(ctx context.Context, limit, offset int) ([]student.Student, error) {
			filter.Limit, filter.Offset = limit, offset
			return store.List(ctx, filter)
		})
	if err != nil {
		return StudentList{}, err
	}
	out := StudentList{Items: make([]StudentRow, 0, len(students)), Page: page}
	for _, s := range students {
		out.Items = append(out.Items, StudentRow{ID: s.ID, QRCodeID: s.QRCodeID, Name: s.Name, NIM: s.NIM, Email: s.Email})
	}
	return out, nil
}
