package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

func strPtr(s string) *string { return &s }

func clockAt(day time.Time, hour, minute int) *time.Time {
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
	return &t
}

// ==========================================
// DEV STAFF
// ==========================================

func DevStaff() []staff.Staff {
	return []staff.Staff{
		{Name: "Admin", Email: "admin@example.com", Role: string(user.RoleAdmin), Enabled: true},
		{Name: "Ayu Lestari", Email: "ayu@example.com", Role: string(user.RoleStaff), Enabled: true},
		{Name: "Budi Santoso", Email: "budi@example.com", Role: string(user.RoleStaff), Enabled: true},
		{Name: "Citra Dewi", Email: "citra@example.com", Role: string(user.RoleStaff), Enabled: false},
	}
}

// ==========================================
// DEV ATTENDANCE
// ==========================================

// DevAttendances returns the week ending at today for one staff member.
// When withDuplicate is set the last workday gets a second record, so the
// duplicate warning and reconciliation flow have something to show.
func DevAttendances(staffID string, today time.Time, withDuplicate bool) []attendance.Attendance {
	var records []attendance.Attendance
	for offset := 6; offset >= 1; offset-- {
		day := today.AddDate(0, 0, -offset)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		records = append(records, attendance.Attendance{
			StaffID:   staffID,
			WorkDate:  day.Format(attendance.DateLayout),
			StartTime: clockAt(day, 9, 0),
			EndTime:   clockAt(day, 18, 0),
			Rests: []attendance.Rest{
				{StartTime: strPtr("12:00"), EndTime: strPtr("13:00")},
			},
		})
	}

	if withDuplicate && len(records) > 0 {
		last := records[len(records)-1]
		records = append(records, attendance.Attendance{
			StaffID:   staffID,
			WorkDate:  last.WorkDate,
			StartTime: clockAt(*last.StartTime, 9, 5),
			Remarks:   "entered twice from the mobile app",
		})
	}
	return records
}

// Seed upserts DevStaff and gives every enabled non-admin a week of
// attendance. The first staff member also gets a duplicate.
func Seed(ctx context.Context, q database.Querier, repo attendance.AttendanceRepository, today time.Time) (int, error) {
	created := 0
	first := true
	for _, s := range DevStaff() {
		var id string
		err := q.QueryRow(ctx, `
			INSERT INTO staff (name, email, role, enabled)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, enabled = EXCLUDED.enabled, updated_at = NOW()
			RETURNING id
		`, s.Name, s.Email, s.Role, s.Enabled).Scan(&id)
		if err != nil {
			return created, fmt.Errorf("failed to upsert staff %s: %w", s.Email, err)
		}

		if !s.Enabled || s.Role == string(user.RoleAdmin) {
			continue
		}

		for _, rec := range DevAttendances(id, today, first) {
			if _, err := repo.Create(ctx, rec); err != nil {
				return created, fmt.Errorf("failed to create attendance for %s: %w", s.Email, err)
			}
			created++
		}
		first = false
	}
	return created, nil
}
