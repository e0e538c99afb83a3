package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type EmailAccount struct {
	svc *core.EmailAccountService
}

func NewEmailAccount(services *core.Services) *EmailAccount {
	return &EmailAccount{svc: services.EmailAccount}
}

func (h *EmailAccount) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), actor(r), userID)
	writeList(w, r, items, err)
}

func (h *EmailAccount) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), actor(r), &userID)
	writeList(w, r, items, err)
}

func (h *EmailAccount) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, item, err)
}

// Create godoc
//
//	@Summary		Create a mailbox
//	@Description	The address must belong to one of the owner's domains. The password is hashed and never returned. Counts against the package email limit.
//	@Tags			Email Accounts
//	@Param			body	body		core.EmailAccountInput	true	"Mailbox details"
//	@Success		201		{object}	model.EmailAccount
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		403		{object}	response.ErrorResponse
//	@Failure		409		{object}	response.ErrorResponse
//	@Router			/email-accounts [post]
func (h *EmailAccount) Create(w http.ResponseWriter, r *http.Request) {
	var in core.EmailAccountInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, item, err)
}

func (h *EmailAccount) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateEmailAccountInput
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, item, err)
}

func (h *EmailAccount) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "Email account", h.svc.Delete(r.Context(), actor(r), id))
}
