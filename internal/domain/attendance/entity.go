package attendance

import (
	"time"
)

// DateLayout is the layout of a work date.
const DateLayout = "2006-01-02"

type Rest struct {
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}

type HourlyPaidHolidayTime struct {
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}

// ChangeRequest is a staff-proposed edit awaiting administrator approval.
// While Completed is false it blocks clock in/out on the record.
type ChangeRequest struct {
	ID                 string     `json:"id"`
	StartTime          *time.Time `json:"start_time,omitempty"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	GoDirectlyFlag     *bool      `json:"go_directly_flag,omitempty"`
	ReturnDirectlyFlag *bool      `json:"return_directly_flag,omitempty"`
	AbsentFlag         *bool      `json:"absent_flag,omitempty"`
	PaidHolidayFlag    *bool      `json:"paid_holiday_flag,omitempty"`
	Rests              []Rest     `json:"rests,omitempty"`
	Remarks            *string    `json:"remarks,omitempty"`
	StaffComment       string     `json:"staff_comment,omitempty"`
	Completed          bool       `json:"completed"`
	CreatedAt          time.Time  `json:"created_at"`
}

// History is an immutable snapshot of the mutable fields, appended on every update.
type History struct {
	StaffID               string                  `json:"staff_id"`
	WorkDate              string                  `json:"work_date"`
	StartTime             *time.Time              `json:"start_time,omitempty"`
	EndTime               *time.Time              `json:"end_time,omitempty"`
	GoDirectlyFlag        bool                    `json:"go_directly_flag"`
	ReturnDirectlyFlag    bool                    `json:"return_directly_flag"`
	AbsentFlag            bool                    `json:"absent_flag"`
	PaidHolidayFlag       bool                    `json:"paid_holiday_flag"`
	SpecialHolidayFlag    bool                    `json:"special_holiday_flag"`
	IsDeemedHoliday       bool                    `json:"is_deemed_holiday"`
	Rests                 []Rest                  `json:"rests"`
	HourlyPaidHolidayTime []HourlyPaidHolidayTime `json:"hourly_paid_holiday_times"`
	Remarks               string                  `json:"remarks"`
	SubstituteHolidayDate string                  `json:"substitute_holiday_date"`
	Revision              int                     `json:"revision"`
	CreatedAt             time.Time               `json:"created_at"`
}

type SystemComment struct {
	Comment   string    `json:"comment"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

type Attendance struct {
	ID                     string
	StaffID                string
	WorkDate               string // YYYY-MM-DD
	StartTime              *time.Time
	EndTime                *time.Time
	GoDirectlyFlag         bool
	ReturnDirectlyFlag     bool
	AbsentFlag             bool
	PaidHolidayFlag        bool
	SpecialHolidayFlag     bool
	IsDeemedHoliday        bool
	Rests                  []Rest
	HourlyPaidHolidayTimes []HourlyPaidHolidayTime
	Remarks                string
	SubstituteHolidayDate  string
	Revision               int
	ChangeRequests         []ChangeRequest
	Histories              []History
	SystemComments         []SystemComment
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Placeholder returns the empty record the list builder puts on dates without data.
func Placeholder(staffID, workDate string) Attendance {
	return Attendance{
		StaffID:                staffID,
		WorkDate:               workDate,
		Rests:                  []Rest{},
		HourlyPaidHolidayTimes: []HourlyPaidHolidayTime{},
		ChangeRequests:         []ChangeRequest{},
		Histories:              []History{},
		SystemComments:         []SystemComment{},
	}
}

// HasPendingChangeRequest reports whether any change request is still incomplete.
func (a Attendance) HasPendingChangeRequest() bool {
	for _, cr := range a.ChangeRequests {
		if !cr.Completed {
			return true
		}
	}
	return false
}

// Snapshot captures the mutable fields as a history entry.
func (a Attendance) Snapshot(at time.Time) History {
	return History{
		StaffID:               a.StaffID,
		WorkDate:              a.WorkDate,
		StartTime:             a.StartTime,
		EndTime:               a.EndTime,
		GoDirectlyFlag:        a.GoDirectlyFlag,
		ReturnDirectlyFlag:    a.ReturnDirectlyFlag,
		AbsentFlag:            a.AbsentFlag,
		PaidHolidayFlag:       a.PaidHolidayFlag,
		SpecialHolidayFlag:    a.SpecialHolidayFlag,
		IsDeemedHoliday:       a.IsDeemedHoliday,
		Rests:                 a.Rests,
		HourlyPaidHolidayTime: a.HourlyPaidHolidayTimes,
		Remarks:               a.Remarks,
		SubstituteHolidayDate: a.SubstituteHolidayDate,
		Revision:              a.Revision,
		CreatedAt:             at,
	}
}
