package assignment

import (
	"sort"

	"parky/internal/domain/attendant"
)

// BusyAttendants returns the attendants holding an active booking on day.
// Bookings of excludeLotID do not count, so a lot's own staff stay selectable
// on its edit form. Pass "" to count every lot.
func BusyAttendants(day string, bookings []Booking, excludeLotID string) map[string]bool {
	busy := make(map[string]bool)
	for _, b := range bookings {
		if b.Day != day || b.IsDeleted() {
			continue
		}
		if excludeLotID != "" && b.LotID == excludeLotID {
			continue
		}
		busy[b.AttendantID] = true
	}
	return busy
}

// AvailableAttendants lists active attendants not busy on day.
// POST: result ordered by name, then ID; every active attendant is returned when day has no bookings
// INVARIANT: inputs are not mutated
func AvailableAttendants(day string, attendants []attendant.Attendant, bookings []Booking, excludeLotID string) []attendant.Attendant {
	busy := BusyAttendants(day, bookings, excludeLotID)
	out := make([]attendant.Attendant, 0, len(attendants))
	for _, a := range attendants {
		if a.IsDeleted() || busy[a.ID] {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
