package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
)

const approvedComment = "Change request approved"

type Config struct {
	PageSize      int // default: 100
	MaxWindowDays int // default: 366
}

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	staff.StaffRepository
	notifier attendance.WarningNotifier
	config   Config
	now      func() time.Time
}

// ListByStaff implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListByStaff(ctx context.Context, req attendance.ListByStaffRequest) (attendance.CalendarListResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CalendarListResponse{}, err
	}

	// checked on the parsed bounds so an oversized window never builds its date list
	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)
	if attendance.DaysBetween(start, end) >= a.config.MaxWindowDays {
		return attendance.CalendarListResponse{}, validator.ValidationErrors{{
			Field:   "end_date",
			Message: fmt.Sprintf("date range must not exceed %d days", a.config.MaxWindowDays),
		}}
	}

	dates, err := attendance.DateRange(req.StartDate, req.EndDate)
	if err != nil {
		return attendance.CalendarListResponse{}, err
	}

	if _, err := a.StaffRepository.GetByID(ctx, req.StaffID); err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return attendance.CalendarListResponse{}, staff.ErrStaffNotFound
		}
		return attendance.CalendarListResponse{}, fmt.Errorf("failed to get staff: %w", err)
	}

	records, err := a.FetchByStaff(ctx, attendance.StaffRangeQuery{
		StaffID:   req.StaffID,
		StartDate: &req.StartDate,
		EndDate:   &req.EndDate,
	})
	if err != nil {
		return attendance.CalendarListResponse{}, err
	}

	scan := attendance.ScanDuplicates(records)
	if len(scan.Groups) > 0 {
		a.notifier.NotifyDuplicates(ctx, req.StaffID, scan.Groups)
	}

	list := attendance.BuildCalendar(req.StaffID, dates, scan)
	responses := make([]attendance.AttendanceResponse, 0, len(list))
	for _, rec := range list {
		responses = append(responses, attendance.ToResponse(rec))
	}

	return attendance.CalendarListResponse{
		StaffID:     req.StaffID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Attendances: responses,
		Warnings:    scan.Warnings(),
		Duplicates:  scan.Details(req.StaffID),
	}, nil
}

// FetchByStaff implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) FetchByStaff(ctx context.Context, query attendance.StaffRangeQuery) ([]attendance.Attendance, error) {
	if query.Limit <= 0 {
		query.Limit = a.config.PageSize
	}

	var (
		records   []attendance.Attendance
		nextToken *string
		seen      = make(map[string]struct{})
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, token, err := a.AttendanceRepository.ListByStaffPage(ctx, query, nextToken)
		if err != nil {
			return nil, fmt.Errorf("failed to list attendances: %w", err)
		}
		records = append(records, page...)

		if token == nil || *token == "" {
			return records, nil
		}
		if _, dup := seen[*token]; dup {
			return nil, fmt.Errorf("pagination token repeated: %w", attendance.ErrInvalidCursor)
		}
		seen[*token] = struct{}{}
		nextToken = token
	}
}

// GetAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	att, err := a.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return attendance.ToResponse(att), nil
}

// CreateAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CreateAttendance(ctx context.Context, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	att := attendance.Placeholder(req.StaffID, req.WorkDate)
	att.StartTime = parseOptionalTime(req.StartTime)
	att.EndTime = parseOptionalTime(req.EndTime)
	att.GoDirectlyFlag = req.GoDirectlyFlag
	att.ReturnDirectlyFlag = req.ReturnDirectlyFlag
	att.AbsentFlag = req.AbsentFlag
	att.PaidHolidayFlag = req.PaidHolidayFlag
	att.SpecialHolidayFlag = req.SpecialHolidayFlag
	att.IsDeemedHoliday = req.IsDeemedHoliday
	att.Rests = attendance.SanitizeRests(req.Rests)
	att.HourlyPaidHolidayTimes = attendance.SanitizeHourlyPaidHolidayTimes(req.HourlyPaidHolidayTimes)
	att.Remarks = req.Remarks
	att.SubstituteHolidayDate = req.SubstituteHolidayDate
	att.Revision = 1

	var created attendance.Attendance
	err := a.tx.WithinTx(ctx, func(ctx context.Context) error {
		// the staff row lock serializes concurrent creates for the same staff
		if _, err := a.lockStaff(ctx, req.StaffID); err != nil {
			return err
		}

		existing, err := a.recordsOn(ctx, req.StaffID, req.WorkDate)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return attendance.ErrAttendanceExists
		}

		created, err = a.AttendanceRepository.Create(ctx, att)
		if err != nil {
			return fmt.Errorf("failed to create attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return attendance.ToResponse(created), nil
}

// UpdateAttendance implements attendance.AttendanceService.
// Rests and hourly paid holiday intervals are sanitized before saving.
func (a *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	updated, err := a.mutate(ctx, req.ID, req.Revision, true, func(att *attendance.Attendance, now time.Time) error {
		if req.StartTime != nil {
			att.StartTime = parseOptionalTime(req.StartTime)
		}
		if req.EndTime != nil {
			att.EndTime = parseOptionalTime(req.EndTime)
		}
		setBool(&att.GoDirectlyFlag, req.GoDirectlyFlag)
		setBool(&att.ReturnDirectlyFlag, req.ReturnDirectlyFlag)
		setBool(&att.AbsentFlag, req.AbsentFlag)
		setBool(&att.PaidHolidayFlag, req.PaidHolidayFlag)
		setBool(&att.SpecialHolidayFlag, req.SpecialHolidayFlag)
		setBool(&att.IsDeemedHoliday, req.IsDeemedHoliday)
		if req.Rests != nil {
			att.Rests = attendance.SanitizeRests(req.Rests)
		}
		if req.HourlyPaidHolidayTimes != nil {
			att.HourlyPaidHolidayTimes = attendance.SanitizeHourlyPaidHolidayTimes(req.HourlyPaidHolidayTimes)
		}
		if req.Remarks != nil {
			att.Remarks = *req.Remarks
		}
		if req.SubstituteHolidayDate != nil {
			att.SubstituteHolidayDate = *req.SubstituteHolidayDate
		}
		if req.SystemComment != nil && *req.SystemComment != "" {
			att.SystemComments = append(att.SystemComments, attendance.SystemComment{
				Comment:   *req.SystemComment,
				CreatedAt: now,
			})
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return attendance.ToResponse(updated), nil
}

// DeleteAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteAttendance(ctx context.Context, id string) error {
	if err := a.AttendanceRepository.Delete(ctx, id); err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.ErrAttendanceNotFound
		}
		return fmt.Errorf("failed to delete attendance: %w", err)
	}

	return nil
}

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	at, workDate := a.clockTime(req)

	var result attendance.Attendance
	err := a.tx.WithinTx(ctx, func(ctx context.Context) error {
		st, err := a.lockStaff(ctx, req.StaffID)
		if err != nil {
			return err
		}
		if !st.Enabled {
			return staff.ErrStaffDisabled
		}

		records, err := a.recordsOn(ctx, req.StaffID, workDate)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			att := attendance.Placeholder(req.StaffID, workDate)
			att.StartTime = &at
			att.Revision = 1
			result, err = a.AttendanceRepository.Create(ctx, att)
			if err != nil {
				return fmt.Errorf("failed to create attendance: %w", err)
			}
			return nil
		}

		current := records[0]
		if current.HasPendingChangeRequest() {
			return attendance.ErrPendingChangeRequest
		}
		if current.StartTime != nil {
			return attendance.ErrAlreadyClockedIn
		}

		// record pre-created without a start time, e.g. by an administrator
		expected := current.Revision
		result, err = a.mutate(ctx, current.ID, &expected, false, func(att *attendance.Attendance, _ time.Time) error {
			att.StartTime = &at
			return nil
		})
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return attendance.ToResponse(result), nil
}

// ClockOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	at, workDate := a.clockTime(req)

	if err := a.checkStaffEnabled(ctx, req.StaffID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	records, err := a.recordsOn(ctx, req.StaffID, workDate)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if len(records) == 0 {
		return attendance.AttendanceResponse{}, attendance.ErrNotClockedIn
	}

	current := records[0]
	if current.HasPendingChangeRequest() {
		return attendance.AttendanceResponse{}, attendance.ErrPendingChangeRequest
	}
	if current.StartTime == nil {
		return attendance.AttendanceResponse{}, attendance.ErrNotClockedIn
	}
	if current.EndTime != nil {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyClockedOut
	}

	expected := current.Revision
	updated, err := a.mutate(ctx, current.ID, &expected, false, func(att *attendance.Attendance, _ time.Time) error {
		att.EndTime = &at
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return attendance.ToResponse(updated), nil
}

// SubmitChangeRequest implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) SubmitChangeRequest(ctx context.Context, req attendance.SubmitChangeRequestRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	updated, err := a.mutate(ctx, req.AttendanceID, nil, false, func(att *attendance.Attendance, now time.Time) error {
		// other staff members' records are reported as missing
		if att.StaffID != req.StaffID {
			return attendance.ErrAttendanceNotFound
		}
		if att.HasPendingChangeRequest() {
			return attendance.ErrPendingChangeRequest
		}

		cr := attendance.ChangeRequest{
			ID:                 uuid.New().String(),
			StartTime:          parseOptionalTime(req.StartTime),
			EndTime:            parseOptionalTime(req.EndTime),
			GoDirectlyFlag:     req.GoDirectlyFlag,
			ReturnDirectlyFlag: req.ReturnDirectlyFlag,
			AbsentFlag:         req.AbsentFlag,
			PaidHolidayFlag:    req.PaidHolidayFlag,
			Remarks:            req.Remarks,
			StaffComment:       req.StaffComment,
			CreatedAt:          now,
		}
		if req.Rests != nil {
			cr.Rests = attendance.SanitizeRests(req.Rests)
		}
		att.ChangeRequests = append(att.ChangeRequests, cr)
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return attendance.ToResponse(updated), nil
}

// ApproveChangeRequest implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ApproveChangeRequest(ctx context.Context, req attendance.ApproveChangeRequestRequest) (attendance.AttendanceResponse, error) {
	updated, err := a.mutate(ctx, req.AttendanceID, nil, true, func(att *attendance.Attendance, now time.Time) error {
		idx := -1
		for i, cr := range att.ChangeRequests {
			if cr.ID == req.ChangeRequestID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return attendance.ErrChangeRequestNotFound
		}

		requests := make([]attendance.ChangeRequest, len(att.ChangeRequests))
		copy(requests, att.ChangeRequests)
		cr := requests[idx]
		if cr.Completed {
			return attendance.ErrChangeRequestDone
		}

		if cr.StartTime != nil {
			att.StartTime = cr.StartTime
		}
		if cr.EndTime != nil {
			att.EndTime = cr.EndTime
		}
		setBool(&att.GoDirectlyFlag, cr.GoDirectlyFlag)
		setBool(&att.ReturnDirectlyFlag, cr.ReturnDirectlyFlag)
		setBool(&att.AbsentFlag, cr.AbsentFlag)
		setBool(&att.PaidHolidayFlag, cr.PaidHolidayFlag)
		if cr.Rests != nil {
			att.Rests = cr.Rests
		}
		if cr.Remarks != nil {
			att.Remarks = *cr.Remarks
		}

		cr.Completed = true
		requests[idx] = cr
		att.ChangeRequests = requests

		comment := approvedComment
		if req.Comment != nil && *req.Comment != "" {
			comment = *req.Comment
		}
		att.SystemComments = append(att.SystemComments, attendance.SystemComment{
			Comment:   comment,
			Confirmed: true,
			CreatedAt: now,
		})
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return attendance.ToResponse(updated), nil
}

// mutate loads the record, applies fn and saves it with the revision bumped,
// all in one transaction. A nil expected revision accepts the stored one.
func (a *AttendanceServiceImpl) mutate(
	ctx context.Context,
	id string,
	expected *int,
	withHistory bool,
	fn func(att *attendance.Attendance, now time.Time) error,
) (attendance.Attendance, error) {
	var updated attendance.Attendance

	err := a.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := a.AttendanceRepository.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.ErrAttendanceNotFound
			}
			return fmt.Errorf("failed to get attendance: %w", err)
		}
		if expected != nil && *expected != current.Revision {
			return attendance.ErrRevisionConflict
		}

		now := a.now().UTC()
		next := current
		next.Histories = append([]attendance.History(nil), current.Histories...)
		next.SystemComments = append([]attendance.SystemComment(nil), current.SystemComments...)
		next.ChangeRequests = append([]attendance.ChangeRequest(nil), current.ChangeRequests...)

		if err := fn(&next, now); err != nil {
			return err
		}
		if withHistory {
			next.Histories = append(next.Histories, current.Snapshot(now))
		}
		next.Revision = current.Revision + 1

		updated, err = a.AttendanceRepository.Update(ctx, next, current.Revision)
		if err != nil {
			if errors.Is(err, attendance.ErrRevisionConflict) || errors.Is(err, attendance.ErrAttendanceNotFound) {
				return err
			}
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.Attendance{}, err
	}

	return updated, nil
}

// recordsOn returns every record of the staff member on one work date.
// More than one means the date needs reconciling; callers use the first.
func (a *AttendanceServiceImpl) recordsOn(ctx context.Context, staffID, workDate string) ([]attendance.Attendance, error) {
	records, err := a.FetchByStaff(ctx, attendance.StaffRangeQuery{StaffID: staffID, WorkDate: &workDate})
	if err != nil {
		return nil, err
	}

	scan := attendance.ScanDuplicates(records)
	if len(scan.Groups) > 0 {
		a.notifier.NotifyDuplicates(ctx, staffID, scan.Groups)
	}
	return records, nil
}

// lockStaff reads the staff row with FOR UPDATE; call it inside WithinTx.
func (a *AttendanceServiceImpl) lockStaff(ctx context.Context, staffID string) (staff.Staff, error) {
	st, err := a.StaffRepository.GetByIDForUpdate(ctx, staffID)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return staff.Staff{}, staff.ErrStaffNotFound
		}
		return staff.Staff{}, fmt.Errorf("failed to lock staff: %w", err)
	}
	return st, nil
}

func (a *AttendanceServiceImpl) checkStaffEnabled(ctx context.Context, staffID string) error {
	st, err := a.StaffRepository.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			return staff.ErrStaffNotFound
		}
		return fmt.Errorf("failed to get staff: %w", err)
	}
	if !st.Enabled {
		return staff.ErrStaffDisabled
	}
	return nil
}

func (a *AttendanceServiceImpl) clockTime(req attendance.ClockRequest) (time.Time, string) {
	at := req.At
	if at.IsZero() {
		at = a.now()
	}
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	return at.UTC(), at.In(loc).Format(attendance.DateLayout)
}

// parseOptionalTime assumes the value was validated; "" and nil clear.
func parseOptionalTime(value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	t, ok := validator.IsValidDateTime(*value)
	if !ok {
		return nil
	}
	t = t.UTC()
	return &t
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	staffRepo staff.StaffRepository,
	notifier attendance.WarningNotifier,
	cfg Config,
) attendance.AttendanceService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxWindowDays <= 0 {
		cfg.MaxWindowDays = 366
	}
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		StaffRepository:      staffRepo,
		notifier:             notifier,
		config:               cfg,
		now:                  time.Now,
	}
}
