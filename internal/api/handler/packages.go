package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type Package struct {
	svc *core.PackageService
}

func NewPackage(services *core.Services) *Package {
	return &Package{svc: services.Package}
}

// List godoc
//
//	@Summary		List hosting packages
//	@Description	Limits of -1 mean unlimited.
//	@Tags			Hosting Packages
//	@Success		200	{array}	model.HostingPackage
//	@Router			/hosting-packages [get]
func (h *Package) List(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.svc.List(r.Context())
	writeList(w, r, pkgs, err)
}

func (h *Package) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pkg, err := h.svc.Get(r.Context(), id)
	writeResult(w, r, http.StatusOK, pkg, err)
}

func (h *Package) Create(w http.ResponseWriter, r *http.Request) {
	var in core.PackageInput
	if !decode(w, r, &in) {
		return
	}
	pkg, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, pkg, err)
}

func (h *Package) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdatePackageInput
	if !decode(w, r, &in) {
		return
	}
	pkg, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, pkg, err)
}

// Delete fails with 409 while users are still assigned to the package.
func (h *Package) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "Hosting package", h.svc.Delete(r.Context(), actor(r), id))
}
