package attendance

// SanitizeRests drops nil entries. Nil fields inside a kept entry stay nil
// and are omitted when encoded.
func SanitizeRests(rests []*Rest) []Rest {
	out := make([]Rest, 0, len(rests))
	for _, r := range rests {
		if r == nil {
			continue
		}
		out = append(out, Rest{StartTime: r.StartTime, EndTime: r.EndTime})
	}
	return out
}

func SanitizeHourlyPaidHolidayTimes(times []*HourlyPaidHolidayTime) []HourlyPaidHolidayTime {
	out := make([]HourlyPaidHolidayTime, 0, len(times))
	for _, t := range times {
		if t == nil {
			continue
		}
		out = append(out, HourlyPaidHolidayTime{StartTime: t.StartTime, EndTime: t.EndTime})
	}
	return out
}
