package roster

import (
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type LoadDailyRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

func (r *LoadDailyRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RosterListResponse struct {
	Staff        []StaffState `json:"staff"`
	LoadingCount int          `json:"loading_count"`
}

type DailyRosterResponse struct {
	Date           string       `json:"date"`
	Staff          []StaffState `json:"staff"`
	DuplicateCount int          `json:"duplicate_count"`
	ErrorCount     int          `json:"error_count"`
}
