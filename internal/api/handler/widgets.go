package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type Widget struct {
	svc *core.WidgetService
}

func NewWidget(services *core.Services) *Widget {
	return &Widget{svc: services.Widget}
}

// List returns widgets ordered by position.
func (h *Widget) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), actor(r), userID)
	writeList(w, r, items, err)
}

func (h *Widget) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, item, err)
}

func (h *Widget) Create(w http.ResponseWriter, r *http.Request) {
	var in core.WidgetInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, item, err)
}

func (h *Widget) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateWidgetInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, item, err)
}

func (h *Widget) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "Dashboard widget", h.svc.Delete(r.Context(), actor(r), id))
}
