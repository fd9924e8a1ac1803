package reconcile

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

type State string

const (
	StateClosed            State = "closed"
	StateLoadingCandidates State = "loading_candidates"
	StateReady             State = "ready"
	StateDeleting          State = "deleting"
)

type Mode string

const (
	ModeRecord Mode = "record" // pick the whole record to keep
	ModeField  Mode = "field"  // pick the authoritative value per field
)

// ComparisonFields are the rows of the side-by-side comparison, in display order.
var ComparisonFields = []string{
	"start_time",
	"end_time",
	"go_directly_flag",
	"return_directly_flag",
	"absent_flag",
	"paid_holiday_flag",
	"special_holiday_flag",
	"is_deemed_holiday",
	"rests",
	"hourly_paid_holiday_times",
	"remarks",
	"substitute_holiday_date",
	"revision",
	"created_at",
	"updated_at",
}

func fieldIndex(field string) int {
	for i, f := range ComparisonFields {
		if f == field {
			return i
		}
	}
	return -1
}

type FetchFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type DeleteFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type FieldSelection struct {
	RecordID string `json:"record_id"`
	Field    string `json:"field"`
	// Extend selects every row between the previous anchor and Field for
	// the same record column.
	Extend bool `json:"extend"`
}

// Session is one administrator's comparison of the duplicate records of a
// staff member. It lives only in memory and is discarded on Close.
type Session struct {
	ID               string
	StaffID          string
	WorkDate         string
	State            State
	Mode             Mode
	Candidates       []attendance.Attendance
	FetchFailures    []FetchFailure
	SelectedRecordID string
	// FieldSelections maps a comparison field to the record whose value is
	// authoritative for it.
	FieldSelections map[string]string
	OpenedAt        time.Time
	UpdatedAt       time.Time

	anchorRecordID string
	anchorRow      int
}

// NewSession starts a session in the loading state.
func NewSession(id, staffID, workDate string, now time.Time) *Session {
	return &Session{
		ID:              id,
		StaffID:         staffID,
		WorkDate:        workDate,
		State:           StateLoadingCandidates,
		Mode:            ModeRecord,
		FieldSelections: make(map[string]string),
		OpenedAt:        now,
		UpdatedAt:       now,
		anchorRow:       -1,
	}
}

// FinishLoading moves the session to ready with the fetched candidates.
func (s *Session) FinishLoading(candidates []attendance.Attendance, failures []FetchFailure, now time.Time) error {
	if s.State != StateLoadingCandidates {
		return ErrInvalidState
	}
	s.Candidates = candidates
	s.FetchFailures = failures
	s.State = StateReady
	s.UpdatedAt = now
	return nil
}

// SetMode switches selection mode, clearing the other mode's selection.
func (s *Session) SetMode(mode Mode, now time.Time) error {
	if s.State != StateReady {
		return ErrInvalidState
	}
	if mode != ModeRecord && mode != ModeField {
		return ErrWrongSelectionMode
	}
	if mode == s.Mode {
		return nil
	}
	s.Mode = mode
	s.SelectedRecordID = ""
	s.FieldSelections = make(map[string]string)
	s.anchorRecordID = ""
	s.anchorRow = -1
	s.UpdatedAt = now
	return nil
}

func (s *Session) hasCandidate(id string) bool {
	for _, c := range s.Candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

// SelectRecord marks the whole record as the one to keep.
func (s *Session) SelectRecord(recordID string, now time.Time) error {
	if s.State != StateReady {
		return ErrInvalidState
	}
	if s.Mode != ModeRecord {
		return ErrWrongSelectionMode
	}
	if !s.hasCandidate(recordID) {
		return ErrCandidateNotFound
	}
	s.SelectedRecordID = recordID
	s.UpdatedAt = now
	return nil
}

// SelectField marks one record's value as authoritative for a field.
func (s *Session) SelectField(sel FieldSelection, now time.Time) error {
	if s.State != StateReady {
		return ErrInvalidState
	}
	if s.Mode != ModeField {
		return ErrWrongSelectionMode
	}
	if !s.hasCandidate(sel.RecordID) {
		return ErrCandidateNotFound
	}
	row := fieldIndex(sel.Field)
	if row < 0 {
		return ErrUnknownField
	}

	from, to := row, row
	if sel.Extend && s.anchorRow >= 0 && s.anchorRecordID == sel.RecordID {
		from, to = s.anchorRow, row
		if from > to {
			from, to = to, from
		}
	}
	for i := from; i <= to; i++ {
		s.FieldSelections[ComparisonFields[i]] = sel.RecordID
	}

	s.anchorRecordID = sel.RecordID
	s.anchorRow = row
	s.UpdatedAt = now
	return nil
}

// BeginDeleting checks that a keep-selection was made and returns the IDs
// to delete, in candidate order.
func (s *Session) BeginDeleting(confirmed bool, now time.Time) ([]string, error) {
	if s.State != StateReady {
		return nil, ErrInvalidState
	}
	if s.Mode != ModeRecord {
		return nil, ErrWrongSelectionMode
	}
	if s.SelectedRecordID == "" {
		return nil, ErrNoSelection
	}
	if !confirmed {
		return nil, ErrNotConfirmed
	}

	toDelete := make([]string, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		if c.ID != s.SelectedRecordID {
			toDelete = append(toDelete, c.ID)
		}
	}
	s.State = StateDeleting
	s.UpdatedAt = now
	return toDelete, nil
}

// FinishDeleting drops the deleted candidates and returns to ready.
func (s *Session) FinishDeleting(deleted []string, now time.Time) {
	gone := make(map[string]struct{}, len(deleted))
	for _, id := range deleted {
		gone[id] = struct{}{}
	}
	remaining := make([]attendance.Attendance, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		if _, ok := gone[c.ID]; !ok {
			remaining = append(remaining, c)
		}
	}
	s.Candidates = remaining
	s.State = StateReady
	s.UpdatedAt = now
}

// Close discards all local state.
func (s *Session) Close(now time.Time) {
	s.State = StateClosed
	s.Candidates = nil
	s.FetchFailures = nil
	s.SelectedRecordID = ""
	s.FieldSelections = make(map[string]string)
	s.anchorRecordID = ""
	s.anchorRow = -1
	s.UpdatedAt = now
}
