package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type User struct {
	svc *core.UserService
}

func NewUser(services *core.Services) *User {
	return &User{svc: services.User}
}

// List godoc
//
//	@Summary		List users
//	@Description	Returns every panel account with its current disk usage. Admin only.
//	@Tags			Users
//	@Success		200	{array}		model.User
//	@Failure		403	{object}	response.ErrorResponse
//	@Router			/users [get]
func (h *User) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context(), actor(r))
	writeList(w, r, users, err)
}

func (h *User) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Count(r.Context())
	writeResult(w, r, http.StatusOK, map[string]int{"count": n}, err)
}

func (h *User) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, u, err)
}

// Create godoc
//
//	@Summary		Create a user
//	@Description	Creates an account with a hashed password. packageId must reference an existing hosting package. Admin only.
//	@Tags			Users
//	@Param			body	body		core.CreateUserInput	true	"User details"
//	@Success		201		{object}	model.User
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		409		{object}	response.ErrorResponse
//	@Router			/users [post]
func (h *User) Create(w http.ResponseWriter, r *http.Request) {
	var in core.CreateUserInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, u, err)
}

func (h *User) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateUserInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, u, err)
}

func (h *User) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "User", h.svc.Delete(r.Context(), actor(r), id))
}
