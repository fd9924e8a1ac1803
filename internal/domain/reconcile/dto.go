package reconcile

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type OpenRequest struct {
	StaffID  string   `json:"staff_id"`
	WorkDate string   `json:"work_date"`
	IDs      []string `json:"ids"`
}

func (r *OpenRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.StaffID) {
		errs = append(errs, validator.ValidationError{Field: "staff_id", Message: "must not be empty"})
	}
	if validator.IsEmpty(r.WorkDate) {
		errs = append(errs, validator.ValidationError{Field: "work_date", Message: "must not be empty"})
	} else if _, valid := validator.IsValidDate(r.WorkDate); !valid {
		errs = append(errs, validator.ValidationError{Field: "work_date", Message: "must be in YYYY-MM-DD format"})
	}
	if len(r.IDs) < 2 {
		errs = append(errs, validator.ValidationError{Field: "ids", Message: "must contain at least two record ids"})
	}
	for _, id := range r.IDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: "ids", Message: "must not contain empty ids"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SetModeRequest struct {
	Mode Mode `json:"mode"`
}

func (r *SetModeRequest) Validate() error {
	if !validator.IsInSlice(string(r.Mode), []string{string(ModeRecord), string(ModeField)}) {
		return validator.ValidationErrors{{Field: "mode", Message: "must be one of: record, field"}}
	}
	return nil
}

type SelectRecordRequest struct {
	RecordID string `json:"record_id"`
}

func (r *SelectRecordRequest) Validate() error {
	if validator.IsEmpty(r.RecordID) {
		return validator.ValidationErrors{{Field: "record_id", Message: "must not be empty"}}
	}
	return nil
}

func (r *FieldSelection) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.RecordID) {
		errs = append(errs, validator.ValidationError{Field: "record_id", Message: "must not be empty"})
	}
	if validator.IsEmpty(r.Field) {
		errs = append(errs, validator.ValidationError{Field: "field", Message: "must not be empty"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ResolveRequest struct {
	Confirm bool `json:"confirm"`
}

type ResolveResult struct {
	KeptID     string          `json:"kept_id"`
	DeletedIDs []string        `json:"deleted_ids"`
	Failures   []DeleteFailure `json:"failures"`
	Remaining  int             `json:"remaining"`
	Session    SessionResponse `json:"session"`
}

type SessionResponse struct {
	ID               string                          `json:"id"`
	StaffID          string                          `json:"staff_id"`
	WorkDate         string                          `json:"work_date"`
	State            State                           `json:"state"`
	Mode             Mode                            `json:"mode"`
	Fields           []string                        `json:"fields"`
	Candidates       []attendance.AttendanceResponse `json:"candidates"`
	FetchFailures    []FetchFailure                  `json:"fetch_failures"`
	SelectedRecordID string                          `json:"selected_record_id,omitempty"`
	FieldSelections  map[string]string               `json:"field_selections"`
	OpenedAt         time.Time                       `json:"opened_at"`
	UpdatedAt        time.Time                       `json:"updated_at"`
}

// ToResponse copies the session so the snapshot is safe to use after the
// session lock is released.
func ToResponse(s *Session) SessionResponse {
	candidates := make([]attendance.AttendanceResponse, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		candidates = append(candidates, attendance.ToResponse(c))
	}
	failures := make([]FetchFailure, len(s.FetchFailures))
	copy(failures, s.FetchFailures)
	selections := make(map[string]string, len(s.FieldSelections))
	for k, v := range s.FieldSelections {
		selections[k] = v
	}
	fields := make([]string, len(ComparisonFields))
	copy(fields, ComparisonFields)

	return SessionResponse{
		ID:               s.ID,
		StaffID:          s.StaffID,
		WorkDate:         s.WorkDate,
		State:            s.State,
		Mode:             s.Mode,
		Fields:           fields,
		Candidates:       candidates,
		FetchFailures:    failures,
		SelectedRecordID: s.SelectedRecordID,
		FieldSelections:  selections,
		OpenedAt:         s.OpenedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
