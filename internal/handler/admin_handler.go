package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/parisxmas/leadsite/internal/funnel"
	"github.com/parisxmas/leadsite/internal/service"
)

type AdminHandler struct {
	svc          *service.AdminService
	funnel       *funnel.Funnel
	exposeErrors bool
}

func NewAdminHandler(svc *service.AdminService, f *funnel.Funnel, exposeErrors bool) *AdminHandler {
	return &AdminHandler{svc: svc, funnel: f, exposeErrors: exposeErrors}
}

func (h *AdminHandler) DeadLetters(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.svc.DeadLetters(r.Context(), limit)
	if err != nil {
		writeInternal(w, h.exposeErrors, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deadLetters": rows,
		"count":       len(rows),
	})
}

type funnelStage struct {
	Stage string `json:"stage"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

func (h *AdminHandler) Funnel(w http.ResponseWriter, r *http.Request) {
	counts, err := h.funnel.Counts(r.Context())
	if err != nil {
		writeInternal(w, h.exposeErrors, err)
		return
	}
	chart, err := h.funnel.Chart(r.Context())
	if err != nil {
		writeInternal(w, h.exposeErrors, err)
		return
	}
	stages := make([]funnelStage, 0, len(funnel.Stages))
	for _, s := range funnel.Stages {
		stages = append(stages, funnelStage{Stage: s, Label: funnel.Label(s), Count: counts[s]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"stages": stages, "chart": chart})
}

func (h *AdminHandler) FunnelPNG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.funnel.RenderPNG(r.Context(), &buf); err != nil {
		writeInternal(w, h.exposeErrors, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}
