package attendance

// DuplicateWarningMessage is surfaced once per duplicate work date, both in
// list responses and in warning notifications.
const DuplicateWarningMessage = "Multiple attendance records exist for the same work date. Please ask an administrator to reconcile them."

// DuplicateGroup is two or more records of one staff member sharing a work date.
type DuplicateGroup struct {
	WorkDate string
	Records  []Attendance
}

type DuplicateDetail struct {
	WorkDate string   `json:"work_date"`
	IDs      []string `json:"ids"`
	StaffID  string   `json:"staff_id"`
}

type ScanResult struct {
	// FirstByDate holds the first record seen for every work date.
	FirstByDate map[string]Attendance
	Groups      []DuplicateGroup
}

// Details maps every group to its detail. Empty IDs are dropped.
func (r ScanResult) Details(staffID string) []DuplicateDetail {
	details := make([]DuplicateDetail, 0, len(r.Groups))
	for _, g := range r.Groups {
		details = append(details, g.Detail(staffID))
	}
	return details
}

// Warnings returns one warning message per group.
func (r ScanResult) Warnings() []string {
	warnings := make([]string, 0, len(r.Groups))
	for range r.Groups {
		warnings = append(warnings, DuplicateWarningMessage)
	}
	return warnings
}

func (g DuplicateGroup) Detail(staffID string) DuplicateDetail {
	ids := make([]string, 0, len(g.Records))
	for _, rec := range g.Records {
		if rec.ID != "" {
			ids = append(ids, rec.ID)
		}
	}
	return DuplicateDetail{
		WorkDate: g.WorkDate,
		IDs:      ids,
		StaffID:  staffID,
	}
}

// ScanDuplicates groups records by work date. Groups come out in order of
// the first appearance of their date, so the same input always yields the
// same output. The first record of each date is its representative; no
// other ordering is implied.
func ScanDuplicates(records []Attendance) ScanResult {
	byDate := make(map[string][]Attendance)
	order := make([]string, 0)

	for _, rec := range records {
		if _, seen := byDate[rec.WorkDate]; !seen {
			order = append(order, rec.WorkDate)
		}
		byDate[rec.WorkDate] = append(byDate[rec.WorkDate], rec)
	}

	result := ScanResult{
		FirstByDate: make(map[string]Attendance, len(byDate)),
		Groups:      make([]DuplicateGroup, 0),
	}
	for _, date := range order {
		group := byDate[date]
		result.FirstByDate[date] = group[0]
		if len(group) > 1 {
			result.Groups = append(result.Groups, DuplicateGroup{
				WorkDate: date,
				Records:  group,
			})
		}
	}

	return result
}
