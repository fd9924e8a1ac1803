package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// ========================================
// LIST DTOs
// ========================================

type ListByStaffRequest struct {
	StaffID   string `json:"staff_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

func (r *ListByStaffRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.StaffID) {
		errs = append(errs, validator.ValidationError{
			Field:   "staff_id",
			Message: "staff_id is required",
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CalendarListResponse struct {
	StaffID     string               `json:"staff_id"`
	StartDate   string               `json:"start_date"`
	EndDate     string               `json:"end_date"`
	Attendances []AttendanceResponse `json:"attendances"`
	Warnings    []string             `json:"warnings"`
	Duplicates  []DuplicateDetail    `json:"duplicates"`
}

// ========================================
// RECORD DTOs
// ========================================

type AttendanceResponse struct {
	ID                     string                  `json:"id"`
	StaffID                string                  `json:"staff_id"`
	WorkDate               string                  `json:"work_date"`
	StartTime              string                  `json:"start_time"`
	EndTime                string                  `json:"end_time"`
	GoDirectlyFlag         bool                    `json:"go_directly_flag"`
	ReturnDirectlyFlag     bool                    `json:"return_directly_flag"`
	AbsentFlag             bool                    `json:"absent_flag"`
	PaidHolidayFlag        bool                    `json:"paid_holiday_flag"`
	SpecialHolidayFlag     bool                    `json:"special_holiday_flag"`
	IsDeemedHoliday        bool                    `json:"is_deemed_holiday"`
	Rests                  []Rest                  `json:"rests"`
	HourlyPaidHolidayTimes []HourlyPaidHolidayTime `json:"hourly_paid_holiday_times"`
	Remarks                string                  `json:"remarks"`
	SubstituteHolidayDate  string                  `json:"substitute_holiday_date"`
	Revision               int                     `json:"revision"`
	ChangeRequests         []ChangeRequest         `json:"change_requests"`
	Histories              []History               `json:"histories"`
	SystemComments         []SystemComment         `json:"system_comments"`
	CreatedAt              string                  `json:"created_at"`
	UpdatedAt              string                  `json:"updated_at"`
}

// timePtrToString formats t as RFC3339, or "" when nil.
func timePtrToString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func timeToString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ToResponse converts an entity (or a placeholder) to its API shape.
func ToResponse(a Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:                     a.ID,
		StaffID:                a.StaffID,
		WorkDate:               a.WorkDate,
		StartTime:              timePtrToString(a.StartTime),
		EndTime:                timePtrToString(a.EndTime),
		GoDirectlyFlag:         a.GoDirectlyFlag,
		ReturnDirectlyFlag:     a.ReturnDirectlyFlag,
		AbsentFlag:             a.AbsentFlag,
		PaidHolidayFlag:        a.PaidHolidayFlag,
		SpecialHolidayFlag:     a.SpecialHolidayFlag,
		IsDeemedHoliday:        a.IsDeemedHoliday,
		Rests:                  nonNil(a.Rests),
		HourlyPaidHolidayTimes: nonNil(a.HourlyPaidHolidayTimes),
		Remarks:                a.Remarks,
		SubstituteHolidayDate:  a.SubstituteHolidayDate,
		Revision:               a.Revision,
		ChangeRequests:         nonNil(a.ChangeRequests),
		Histories:              nonNil(a.Histories),
		SystemComments:         nonNil(a.SystemComments),
		CreatedAt:              timeToString(a.CreatedAt),
		UpdatedAt:              timeToString(a.UpdatedAt),
	}
}

// ========================================
// WRITE DTOs
// ========================================

// CreateAttendanceRequest for admin to create a record on behalf of staff
type CreateAttendanceRequest struct {
	StaffID                string                   `json:"staff_id"`
	WorkDate               string                   `json:"work_date"`
	StartTime              *string                  `json:"start_time,omitempty"` // RFC3339
	EndTime                *string                  `json:"end_time,omitempty"`   // RFC3339
	GoDirectlyFlag         bool                     `json:"go_directly_flag"`
	ReturnDirectlyFlag     bool                     `json:"return_directly_flag"`
	AbsentFlag             bool                     `json:"absent_flag"`
	PaidHolidayFlag        bool                     `json:"paid_holiday_flag"`
	SpecialHolidayFlag     bool                     `json:"special_holiday_flag"`
	IsDeemedHoliday        bool                     `json:"is_deemed_holiday"`
	Rests                  []*Rest                  `json:"rests"`
	HourlyPaidHolidayTimes []*HourlyPaidHolidayTime `json:"hourly_paid_holiday_times"`
	Remarks                string                   `json:"remarks"`
	SubstituteHolidayDate  string                   `json:"substitute_holiday_date"`
}

func (r *CreateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.StaffID) {
		errs = append(errs, validator.ValidationError{
			Field:   "staff_id",
			Message: "staff_id is required",
		})
	}

	if _, valid := validator.IsValidDate(r.WorkDate); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "work_date",
			Message: "work_date must be in YYYY-MM-DD format",
		})
	}

	errs = append(errs, validateOptionalDateTime("start_time", r.StartTime)...)
	errs = append(errs, validateOptionalDateTime("end_time", r.EndTime)...)
	errs = append(errs, validateRests(r.Rests)...)
	errs = append(errs, validateHourlyPaidHolidayTimes(r.HourlyPaidHolidayTimes)...)

	if r.SubstituteHolidayDate != "" {
		if _, valid := validator.IsValidDate(r.SubstituteHolidayDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "substitute_holiday_date",
				Message: "substitute_holiday_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// UpdateAttendanceRequest for admin to fix attendance data.
// Nil fields are left unchanged; an empty start/end time clears it.
type UpdateAttendanceRequest struct {
	ID                     string                   `json:"-"`
	Revision               *int                     `json:"revision"`
	StartTime              *string                  `json:"start_time,omitempty"`
	EndTime                *string                  `json:"end_time,omitempty"`
	GoDirectlyFlag         *bool                    `json:"go_directly_flag,omitempty"`
	ReturnDirectlyFlag     *bool                    `json:"return_directly_flag,omitempty"`
	AbsentFlag             *bool                    `json:"absent_flag,omitempty"`
	PaidHolidayFlag        *bool                    `json:"paid_holiday_flag,omitempty"`
	SpecialHolidayFlag     *bool                    `json:"special_holiday_flag,omitempty"`
	IsDeemedHoliday        *bool                    `json:"is_deemed_holiday,omitempty"`
	Rests                  []*Rest                  `json:"rests,omitempty"`
	HourlyPaidHolidayTimes []*HourlyPaidHolidayTime `json:"hourly_paid_holiday_times,omitempty"`
	Remarks                *string                  `json:"remarks,omitempty"`
	SubstituteHolidayDate  *string                  `json:"substitute_holiday_date,omitempty"`
	SystemComment          *string                  `json:"-"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if r.Revision == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "revision",
			Message: "revision is required",
		})
	}

	errs = append(errs, validateOptionalDateTime("start_time", r.StartTime)...)
	errs = append(errs, validateOptionalDateTime("end_time", r.EndTime)...)
	errs = append(errs, validateRests(r.Rests)...)
	errs = append(errs, validateHourlyPaidHolidayTimes(r.HourlyPaidHolidayTimes)...)

	if r.SubstituteHolidayDate != nil && *r.SubstituteHolidayDate != "" {
		if _, valid := validator.IsValidDate(*r.SubstituteHolidayDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "substitute_holiday_date",
				Message: "substitute_holiday_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ClockRequest carries the authenticated staff member and the clock time.
type ClockRequest struct {
	StaffID string    `json:"-"`
	At      time.Time `json:"-"`
	// Location the work date is computed in; UTC when nil.
	Location *time.Location `json:"-"`
}

type SubmitChangeRequestRequest struct {
	AttendanceID       string  `json:"-"`
	StaffID            string  `json:"-"`
	StartTime          *string `json:"start_time,omitempty"`
	EndTime            *string `json:"end_time,omitempty"`
	GoDirectlyFlag     *bool   `json:"go_directly_flag,omitempty"`
	ReturnDirectlyFlag *bool   `json:"return_directly_flag,omitempty"`
	AbsentFlag         *bool   `json:"absent_flag,omitempty"`
	PaidHolidayFlag    *bool   `json:"paid_holiday_flag,omitempty"`
	Rests              []*Rest `json:"rests,omitempty"`
	Remarks            *string `json:"remarks,omitempty"`
	StaffComment       string  `json:"staff_comment"`
}

func (r *SubmitChangeRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateOptionalDateTime("start_time", r.StartTime)...)
	errs = append(errs, validateOptionalDateTime("end_time", r.EndTime)...)
	errs = append(errs, validateRests(r.Rests)...)

	if r.StartTime == nil && r.EndTime == nil && r.GoDirectlyFlag == nil &&
		r.ReturnDirectlyFlag == nil && r.AbsentFlag == nil && r.PaidHolidayFlag == nil &&
		r.Rests == nil && r.Remarks == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "change_request",
			Message: "at least one field must be changed",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ApproveChangeRequestRequest struct {
	AttendanceID    string  `json:"-"`
	ChangeRequestID string  `json:"-"`
	Comment         *string `json:"comment,omitempty"`
}

func validateOptionalDateTime(field string, value *string) validator.ValidationErrors {
	if value == nil || *value == "" {
		return nil
	}
	if _, valid := validator.IsValidDateTime(*value); !valid {
		return validator.ValidationErrors{{
			Field:   field,
			Message: field + " must be an ISO8601 timestamp",
		}}
	}
	return nil
}

// interval times are either a wall clock "HH:MM" or a full timestamp
func validIntervalTime(value *string) bool {
	if value == nil {
		return true
	}
	if validator.IsValidClock(*value) {
		return true
	}
	_, valid := validator.IsValidDateTime(*value)
	return valid
}

func validateRests(rests []*Rest) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for i, r := range rests {
		if r == nil {
			continue
		}
		if !validIntervalTime(r.StartTime) || !validIntervalTime(r.EndTime) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("rests[%d]", i),
				Message: "rest times must be HH:MM or ISO8601 timestamps",
			})
		}
	}
	return errs
}

func validateHourlyPaidHolidayTimes(times []*HourlyPaidHolidayTime) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for i, t := range times {
		if t == nil {
			continue
		}
		if !validIntervalTime(t.StartTime) || !validIntervalTime(t.EndTime) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("hourly_paid_holiday_times[%d]", i),
				Message: "hourly paid holiday times must be HH:MM or ISO8601 timestamps",
			})
		}
	}
	return errs
}
