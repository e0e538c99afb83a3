package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type APIKey struct {
	svc *core.APIKeyService
}

func NewAPIKey(services *core.Services) *APIKey {
	return &APIKey{svc: services.APIKey}
}

func (h *APIKey) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), actor(r), userID)
	writeList(w, r, items, err)
}

func (h *APIKey) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, item, err)
}

// Create godoc
//
//	@Summary		Create an API key
//	@Description	The raw key is only included in this response; the panel stores a hash of it. Send it in the X-API-Key header.
//	@Tags			API Keys
//	@Param			body	body		core.APIKeyInput	true	"Key details"
//	@Success		201		{object}	core.CreatedAPIKey
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/api-keys [post]
func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	var in core.APIKeyInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, item, err)
}

func (h *APIKey) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateAPIKeyInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, item, err)
}

func (h *APIKey) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "API key", h.svc.Delete(r.Context(), actor(r), id))
}
