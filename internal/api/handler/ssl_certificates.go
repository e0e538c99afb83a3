package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type SslCertificate struct {
	svc *core.SslCertificateService
}

func NewSslCertificate(services *core.Services) *SslCertificate {
	return &SslCertificate{svc: services.SslCertificate}
}

func (h *SslCertificate) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	certs, err := h.svc.List(r.Context(), actor(r), userID)
	writeList(w, r, certs, err)
}

func (h *SslCertificate) ListByDomain(w http.ResponseWriter, r *http.Request) {
	domainID, ok := pathID(w, r, "domainId")
	if !ok {
		return
	}
	certs, err := h.svc.ListByDomain(r.Context(), actor(r), domainID)
	writeList(w, r, certs, err)
}

func (h *SslCertificate) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, c, err)
}

// Create godoc
//
//	@Summary		Add an SSL certificate
//	@Description	When a PEM certificate is supplied, issuer and validity dates are read from it. A private key is stored encrypted and is never returned.
//	@Tags			SSL Certificates
//	@Param			body	body		core.SslCertificateInput	true	"Certificate details"
//	@Success		201		{object}	model.SslCertificate
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/ssl-certificates [post]
func (h *SslCertificate) Create(w http.ResponseWriter, r *http.Request) {
	var in core.SslCertificateInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, c, err)
}

func (h *SslCertificate) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateSslCertificateInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, c, err)
}

func (h *SslCertificate) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "SSL certificate", h.svc.Delete(r.Context(), actor(r), id))
}
