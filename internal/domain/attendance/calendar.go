package attendance

import (
	"fmt"
	"time"
)

// DateRange returns every date from start to end inclusive as YYYY-MM-DD.
func DateRange(start, end string) ([]string, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s is before start date %s", end, start)
	}

	dates := make([]string, 0, DaysBetween(from, to)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates, nil
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween counts whole calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	// Unix seconds stay exact where time.Duration overflows (~292 years)
	return int((e.Unix() - s.Unix()) / secondsPerDay)
}

// BuildCalendar left-joins the scan's representative records onto dates,
// filling every gap with a placeholder. len(result) == len(dates).
func BuildCalendar(staffID string, dates []string, scan ScanResult) []Attendance {
	list := make([]Attendance, 0, len(dates))
	for _, date := range dates {
		if rec, ok := scan.FirstByDate[date]; ok {
			list = append(list, rec)
			continue
		}
		list = append(list, Placeholder(staffID, date))
	}
	return list
}
