package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type CodeProject struct {
	svc *core.CodeProjectService
}

func NewCodeProject(services *core.Services) *CodeProject {
	return &CodeProject{svc: services.CodeProject}
}

func (h *CodeProject) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), actor(r), userID)
	writeList(w, r, items, err)
}

func (h *CodeProject) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, item, err)
}

func (h *CodeProject) Create(w http.ResponseWriter, r *http.Request) {
	var in core.CodeProjectInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, item, err)
}

func (h *CodeProject) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateCodeProjectInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, item, err)
}

func (h *CodeProject) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "Code project", h.svc.Delete(r.Context(), actor(r), id))
}
