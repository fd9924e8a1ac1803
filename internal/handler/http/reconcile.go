package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/reconcile"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ReconcileHandler interface {
	Open(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	SetMode(w http.ResponseWriter, r *http.Request)
	SelectRecord(w http.ResponseWriter, r *http.Request)
	SelectField(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)
	Close(w http.ResponseWriter, r *http.Request)
}

type reconcileHandlerImpl struct {
	reconcileService reconcile.Service
}

func NewReconcileHandler(reconcileService reconcile.Service) ReconcileHandler {
	return &reconcileHandlerImpl{
		reconcileService: reconcileService,
	}
}

// Open implements ReconcileHandler.
func (h *reconcileHandlerImpl) Open(w http.ResponseWriter, r *http.Request) {
	var req reconcile.OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reconcileService.Open(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Reconciliation session opened", result)
}

// Get implements ReconcileHandler.
func (h *reconcileHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconcileService.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// SetMode implements ReconcileHandler.
func (h *reconcileHandlerImpl) SetMode(w http.ResponseWriter, r *http.Request) {
	var req reconcile.SetModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reconcileService.SetMode(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// SelectRecord implements ReconcileHandler.
func (h *reconcileHandlerImpl) SelectRecord(w http.ResponseWriter, r *http.Request) {
	var req reconcile.SelectRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reconcileService.SelectRecord(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// SelectField implements ReconcileHandler.
func (h *reconcileHandlerImpl) SelectField(w http.ResponseWriter, r *http.Request) {
	var req reconcile.FieldSelection
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reconcileService.SelectField(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Resolve implements ReconcileHandler. Partial failures are reported in the
// result with a 200; the client decides whether to retry.
func (h *reconcileHandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	var req reconcile.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.reconcileService.Resolve(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Duplicate records deleted"
	if len(result.Failures) > 0 {
		message = "Some records could not be deleted"
	}
	response.SuccessWithMessage(w, message, result)
}

// Close implements ReconcileHandler.
func (h *reconcileHandlerImpl) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.reconcileService.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Reconciliation session closed", nil)
}
