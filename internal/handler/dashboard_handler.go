package handler

import (
	"net/http"

	"github.com/parisxmas/leadsite/internal/funnel"
	"github.com/parisxmas/leadsite/internal/service"
)

type DashboardHandler struct {
	svc          *service.AdminService
	funnel       *funnel.Funnel
	exposeErrors bool
}

func NewDashboardHandler(svc *service.AdminService, f *funnel.Funnel, exposeErrors bool) *DashboardHandler {
	return &DashboardHandler{svc: svc, funnel: f, exposeErrors: exposeErrors}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.funnel.Counts(r.Context())
	if err != nil {
		writeInternal(w, h.exposeErrors, err)
		return
	}
	d, err := h.svc.Dashboard(r.Context(), counts)
	if err != nil {
		writeInternal(w, h.exposeErrors, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
