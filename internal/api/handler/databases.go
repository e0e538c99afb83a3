package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type Database struct {
	svc *core.DatabaseService
}

func NewDatabase(services *core.Services) *Database {
	return &Database{svc: services.Database}
}

func (h *Database) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), actor(r), userID)
	writeList(w, r, items, err)
}

func (h *Database) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), actor(r), &userID)
	writeList(w, r, items, err)
}

func (h *Database) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, item, err)
}

// Create provisions a database record. Counts against the package database
// limit.
func (h *Database) Create(w http.ResponseWriter, r *http.Request) {
	var in core.DatabaseInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, item, err)
}

func (h *Database) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateDatabaseInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, item, err)
}

func (h *Database) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "Database", h.svc.Delete(r.Context(), actor(r), id))
}
