package get_vehicle_availability

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// busyWindows обрезает резервы по окну поиска и склеивает пересекающиеся и смежные
func busyWindows(reservations []domain.Reservation, from, to time.Time) []Window {
	windows := make([]Window, 0, len(reservations))
	for _, r := range reservations {
		start, end := r.StartTime, r.EndTime
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		if end.After(start) {
			windows = append(windows, Window{Start: start, End: end})
		}
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Start.Before(windows[j].Start)
	})

	merged := make([]Window, 0, len(windows))
	for _, w := range windows {
		last := len(merged) - 1
		if last >= 0 && !w.Start.After(merged[last].End) {
			if w.End.After(merged[last].End) {
				merged[last].End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}

	return merged
}

// freeWindows дополнение занятых интервалов до окна поиска
// busy должен быть отсортирован и склеен (см. busyWindows)
func freeWindows(busy []Window, from, to time.Time) []Window {
	free := make([]Window, 0, len(busy)+1)
	cursor := from
	for _, w := range busy {
		if w.Start.After(cursor) {
			free = append(free, Window{Start: cursor, End: w.Start})
		}
		cursor = w.End
	}
	if to.After(cursor) {
		free = append(free, Window{Start: cursor, End: to})
	}
	return free
}
