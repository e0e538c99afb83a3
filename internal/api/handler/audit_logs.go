package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type AuditLog struct {
	svc *core.AuditLogService
}

func NewAuditLog(services *core.Services) *AuditLog {
	return &AuditLog{svc: services.AuditLog}
}

func (h *AuditLog) List(w http.ResponseWriter, r *http.Request) {
	n, ok := limit(w, r)
	if !ok {
		return
	}
	logs, err := h.svc.List(r.Context(), actor(r), n)
	writeList(w, r, logs, err)
}
