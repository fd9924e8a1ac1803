package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/roster"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type RosterHandler interface {
	LoadDaily(w http.ResponseWriter, r *http.Request)
	GetStaff(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	ClearStaff(w http.ResponseWriter, r *http.Request)
	Clear(w http.ResponseWriter, r *http.Request)
}

type rosterHandlerImpl struct {
	rosterService roster.Service
}

func NewRosterHandler(rosterService roster.Service) RosterHandler {
	return &rosterHandlerImpl{
		rosterService: rosterService,
	}
}

// LoadDaily implements RosterHandler.
func (h *rosterHandlerImpl) LoadDaily(w http.ResponseWriter, r *http.Request) {
	req := roster.LoadDailyRequest{Date: r.URL.Query().Get("date")}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.rosterService.LoadDaily(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetStaff implements RosterHandler.
func (h *rosterHandlerImpl) GetStaff(w http.ResponseWriter, r *http.Request) {
	result, err := h.rosterService.GetStaff(r.Context(), chi.URLParam(r, "staffID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements RosterHandler.
func (h *rosterHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.rosterService.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ClearStaff implements RosterHandler.
func (h *rosterHandlerImpl) ClearStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.rosterService.ClearStaff(r.Context(), chi.URLParam(r, "staffID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Roster state cleared", nil)
}

// Clear implements RosterHandler.
func (h *rosterHandlerImpl) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.rosterService.Clear(r.Context()); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Roster cleared", nil)
}
