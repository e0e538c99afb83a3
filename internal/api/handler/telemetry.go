package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type ServerStats struct {
	svc *core.ServerStatsService
}

func NewServerStats(services *core.Services) *ServerStats {
	return &ServerStats{svc: services.ServerStats}
}

// Latest returns the newest sample, or 404 before the first one is taken.
func (h *ServerStats) Latest(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Latest(r.Context())
	writeResult(w, r, http.StatusOK, st, err)
}

func (h *ServerStats) History(w http.ResponseWriter, r *http.Request) {
	n, ok := limit(w, r)
	if !ok {
		return
	}
	hist, err := h.svc.History(r.Context(), n)
	writeList(w, r, hist, err)
}

func (h *ServerStats) Create(w http.ResponseWriter, r *http.Request) {
	var in core.ServerStatsInput
	if !decode(w, r, &in) {
		return
	}
	st, err := h.svc.Record(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, st, err)
}

type SecurityScan struct {
	svc *core.SecurityScanService
}

func NewSecurityScan(services *core.Services) *SecurityScan {
	return &SecurityScan{svc: services.SecurityScan}
}

func (h *SecurityScan) List(w http.ResponseWriter, r *http.Request) {
	n, ok := limit(w, r)
	if !ok {
		return
	}
	scans, err := h.svc.List(r.Context(), n)
	writeList(w, r, scans, err)
}

func (h *SecurityScan) Latest(w http.ResponseWriter, r *http.Request) {
	sc, err := h.svc.Latest(r.Context())
	writeResult(w, r, http.StatusOK, sc, err)
}

// Create records a scan and announces it with a broadcast notification.
func (h *SecurityScan) Create(w http.ResponseWriter, r *http.Request) {
	var in core.SecurityScanInput
	if !decode(w, r, &in) {
		return
	}
	sc, err := h.svc.Record(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, sc, err)
}
