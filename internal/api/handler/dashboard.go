package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type Dashboard struct {
	svc *core.DashboardService
}

func NewDashboard(services *core.Services) *Dashboard {
	return &Dashboard{svc: services.Dashboard}
}

// Summary godoc
//
//	@Summary		Dashboard overview
//	@Description	Counts of the caller's resources, package usage (unlimited limits report no percentage), unread notifications and the latest server stats and security scan.
//	@Tags			Dashboard
//	@Success		200	{object}	core.DashboardSummary
//	@Router			/dashboard [get]
func (h *Dashboard) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context(), actor(r))
	writeResult(w, r, http.StatusOK, sum, err)
}

type Webmail struct {
	svc *core.WebmailService
}

func NewWebmail(services *core.Services) *Webmail {
	return &Webmail{svc: services.Webmail}
}

// Get returns the caller's settings, or the defaults when none are stored.
func (h *Webmail) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context(), actor(r))
	writeResult(w, r, http.StatusOK, s, err)
}

func (h *Webmail) Update(w http.ResponseWriter, r *http.Request) {
	var in core.WebmailSettingsInput
	if !decode(w, r, &in) {
		return
	}
	s, err := h.svc.Update(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusOK, s, err)
}
