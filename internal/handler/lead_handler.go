package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/parisxmas/leadsite/internal/middleware"
	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/service"
)

const msgLeadReceived = "Lead received successfully"

type LeadHandler struct {
	svc          *service.LeadService
	exposeErrors bool
	log          *zap.Logger
}

// NewLeadHandler builds the intake handler. exposeErrors adds internal error
// text to 500 responses and must be off in production.
func NewLeadHandler(svc *service.LeadService, exposeErrors bool, log *zap.Logger) *LeadHandler {
	return &LeadHandler{svc: svc, exposeErrors: exposeErrors, log: log}
}

// Create handles /api/leads for every method; only POST is accepted.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var in models.LeadInput
	if err := readJSON(r, &in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, middleware.MsgBodyTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	lead, err := h.svc.Accept(r.Context(), in, service.Provenance{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
		Source:    service.DefaultSource,
	})
	var missing *service.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, missing.Error())
		return
	case err != nil:
		h.log.Error("lead intake failed", zap.Error(err))
		writeInternal(w, h.exposeErrors, err)
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: msgLeadReceived, LeadID: lead.ID})
}
