package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	ListByStaff(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	SubmitChangeRequest(w http.ResponseWriter, r *http.Request)
	ApproveChangeRequest(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	location          *time.Location
}

// NewAttendanceHandler computes clock in/out work dates in location.
func NewAttendanceHandler(attendanceService attendance.AttendanceService, location *time.Location) AttendanceHandler {
	if location == nil {
		location = time.UTC
	}
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		location:          location,
	}
}

// ListByStaff implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListByStaff(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffID")
	if !validator.IsValidUUID(staffID) {
		response.HandleError(w, staff.ErrStaffNotFound)
		return
	}

	req := attendance.ListByStaffRequest{
		StaffID:   staffID,
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ListByStaff(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := attendanceIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.GetAttendance(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// other staff members' records are reported as missing
	p, _ := middleware.PrincipalFromContext(r.Context())
	if result.StaffID != p.StaffID && !user.HasPermission(p.Role, user.PermissionAttendanceViewAll) {
		response.HandleError(w, attendance.ErrAttendanceNotFound)
		return
	}

	response.Success(w, result)
}

// Create implements AttendanceHandler.
func (h *attendanceHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req attendance.CreateAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.CreateAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance created successfully", result)
}

// Update implements AttendanceHandler.
func (h *attendanceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := attendanceIDParam(w, r)
	if !ok {
		return
	}

	var req attendance.UpdateAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.UpdateAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance updated successfully", result)
}

// Delete implements AttendanceHandler.
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := attendanceIDParam(w, r)
	if !ok {
		return
	}

	if err := h.attendanceService.DeleteAttendance(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance deleted successfully", nil)
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	result, err := h.attendanceService.ClockIn(r.Context(), attendance.ClockRequest{
		StaffID:  p.StaffID,
		Location: h.location,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock in successful", result)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	result, err := h.attendanceService.ClockOut(r.Context(), attendance.ClockRequest{
		StaffID:  p.StaffID,
		Location: h.location,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clock out successful", result)
}

// SubmitChangeRequest implements AttendanceHandler.
func (h *attendanceHandlerImpl) SubmitChangeRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := attendanceIDParam(w, r)
	if !ok {
		return
	}

	var req attendance.SubmitChangeRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	p, _ := middleware.PrincipalFromContext(r.Context())
	req.AttendanceID = id
	req.StaffID = p.StaffID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.SubmitChangeRequest(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Change request submitted", result)
}

// ApproveChangeRequest implements AttendanceHandler.
func (h *attendanceHandlerImpl) ApproveChangeRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := attendanceIDParam(w, r)
	if !ok {
		return
	}

	var req attendance.ApproveChangeRequestRequest
	// body is optional
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}
	req.AttendanceID = id
	req.ChangeRequestID = chi.URLParam(r, "crID")

	result, err := h.attendanceService.ApproveChangeRequest(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Change request approved", result)
}

// attendanceIDParam reads {id}. Ids that are not UUIDs cannot exist and
// answer 404 without a query.
func attendanceIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Attendance ID is required", nil)
		return "", false
	}
	if !validator.IsValidUUID(id) {
		response.HandleError(w, attendance.ErrAttendanceNotFound)
		return "", false
	}
	return id, true
}
