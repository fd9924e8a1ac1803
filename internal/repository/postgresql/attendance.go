package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
)

const defaultPageSize = 100

const attendanceColumns = `
	id, staff_id, to_char(work_date, 'YYYY-MM-DD'), start_time, end_time,
	go_directly_flag, return_directly_flag, absent_flag, paid_holiday_flag,
	special_holiday_flag, is_deemed_holiday,
	rests, hourly_paid_holiday_times, COALESCE(remarks, ''),
	COALESCE(to_char(substitute_holiday_date, 'YYYY-MM-DD'), ''),
	revision, change_requests, histories, system_comments,
	created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.StaffID, &att.WorkDate, &att.StartTime, &att.EndTime,
		&att.GoDirectlyFlag, &att.ReturnDirectlyFlag, &att.AbsentFlag, &att.PaidHolidayFlag,
		&att.SpecialHolidayFlag, &att.IsDeemedHoliday,
		&att.Rests, &att.HourlyPaidHolidayTimes, &att.Remarks,
		&att.SubstituteHolidayDate,
		&att.Revision, &att.ChangeRequests, &att.Histories, &att.SystemComments,
		&att.CreatedAt, &att.UpdatedAt,
	)
	return att, err
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	if newAttendance.Revision == 0 {
		newAttendance.Revision = 1
	}

	query := `
		INSERT INTO attendances (
			staff_id, work_date, start_time, end_time,
			go_directly_flag, return_directly_flag, absent_flag, paid_holiday_flag,
			special_holiday_flag, is_deemed_holiday,
			rests, hourly_paid_holiday_times, remarks, substitute_holiday_date,
			revision, change_requests, histories, system_comments
		) VALUES (
			$1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			NULLIF($13, ''), NULLIF($14, '')::date, $15, $16, $17, $18
		) RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query,
		newAttendance.StaffID,
		newAttendance.WorkDate,
		newAttendance.StartTime,
		newAttendance.EndTime,
		newAttendance.GoDirectlyFlag,
		newAttendance.ReturnDirectlyFlag,
		newAttendance.AbsentFlag,
		newAttendance.PaidHolidayFlag,
		newAttendance.SpecialHolidayFlag,
		newAttendance.IsDeemedHoliday,
		nonNilSlice(newAttendance.Rests),
		nonNilSlice(newAttendance.HourlyPaidHolidayTimes),
		newAttendance.Remarks,
		newAttendance.SubstituteHolidayDate,
		newAttendance.Revision,
		nonNilSlice(newAttendance.ChangeRequests),
		nonNilSlice(newAttendance.Histories),
		nonNilSlice(newAttendance.SystemComments),
	))
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return created, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	// a non-UUID id fails the uuid cast (22P02) instead of matching nothing
	if !validator.IsValidUUID(id) {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE id = $1`

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}

	return att, nil
}

// ListByStaffPage implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByStaffPage(ctx context.Context, query attendance.StaffRangeQuery, nextToken *string) ([]attendance.Attendance, *string, error) {
	if !validator.IsValidUUID(query.StaffID) {
		return []attendance.Attendance{}, nil, nil
	}
	q := GetQuerier(ctx, a.db)

	whereClauses := []string{"staff_id = $1"}
	args := []interface{}{query.StaffID}
	argIdx := 2

	if query.WorkDate != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("work_date = $%d::date", argIdx))
		args = append(args, *query.WorkDate)
		argIdx++
	}
	if query.StartDate != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("work_date >= $%d::date", argIdx))
		args = append(args, *query.StartDate)
		argIdx++
	}
	if query.EndDate != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("work_date <= $%d::date", argIdx))
		args = append(args, *query.EndDate)
		argIdx++
	}
	if nextToken != nil && *nextToken != "" {
		cursor, err := decodeCursor(*nextToken)
		if err != nil {
			return nil, nil, err
		}
		whereClauses = append(whereClauses, fmt.Sprintf("(work_date, id) > ($%d::date, $%d::uuid)", argIdx, argIdx+1))
		args = append(args, cursor.WorkDate, cursor.ID)
		argIdx += 2
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	// one extra row tells whether another page exists
	args = append(args, limit+1)

	sql := fmt.Sprintf(`SELECT %s FROM attendances WHERE %s ORDER BY work_date ASC, id ASC LIMIT $%d`,
		attendanceColumns, strings.Join(whereClauses, " AND "), argIdx)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	records := make([]attendance.Attendance, 0, limit)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	if len(records) <= limit {
		return records, nil, nil
	}

	records = records[:limit]
	last := records[len(records)-1]
	token := encodeCursor(pageCursor{WorkDate: last.WorkDate, ID: last.ID})
	return records, &token, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance, expectedRevision int) (attendance.Attendance, error) {
	if !validator.IsValidUUID(att.ID) {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances SET
			start_time = $3,
			end_time = $4,
			go_directly_flag = $5,
			return_directly_flag = $6,
			absent_flag = $7,
			paid_holiday_flag = $8,
			special_holiday_flag = $9,
			is_deemed_holiday = $10,
			rests = $11,
			hourly_paid_holiday_times = $12,
			remarks = NULLIF($13, ''),
			substitute_holiday_date = NULLIF($14, '')::date,
			revision = $15,
			change_requests = $16,
			histories = $17,
			system_comments = $18,
			updated_at = NOW()
		WHERE id = $1 AND revision = $2
		RETURNING ` + attendanceColumns

	updated, err := scanAttendance(q.QueryRow(ctx, query,
		att.ID,
		expectedRevision,
		att.StartTime,
		att.EndTime,
		att.GoDirectlyFlag,
		att.ReturnDirectlyFlag,
		att.AbsentFlag,
		att.PaidHolidayFlag,
		att.SpecialHolidayFlag,
		att.IsDeemedHoliday,
		nonNilSlice(att.Rests),
		nonNilSlice(att.HourlyPaidHolidayTimes),
		att.Remarks,
		att.SubstituteHolidayDate,
		att.Revision,
		nonNilSlice(att.ChangeRequests),
		nonNilSlice(att.Histories),
		nonNilSlice(att.SystemComments),
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM attendances WHERE id = $1)`, att.ID).Scan(&exists); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to check attendance: %w", err)
	}
	if !exists {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return attendance.Attendance{}, attendance.ErrRevisionConflict
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return attendance.ErrAttendanceNotFound
	}
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// nonNilSlice keeps jsonb columns as [] instead of null.
func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
