package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/api/response"
	"github.com/edvin/hostpanel/internal/core"
)

type Domain struct {
	svc     *core.DomainService
	records *core.DnsRecordService
}

func NewDomain(services *core.Services) *Domain {
	return &Domain{svc: services.Domain, records: services.DnsRecord}
}

// List godoc
//
//	@Summary		List domains
//	@Description	Admins see every domain and may filter by userId; other callers only see their own.
//	@Tags			Domains
//	@Param			userId	query		int	false	"Owner filter"
//	@Success		200		{array}		model.Domain
//	@Failure		403		{object}	response.ErrorResponse
//	@Router			/domains [get]
func (h *Domain) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	domains, err := h.svc.List(r.Context(), actor(r), userID)
	writeList(w, r, domains, err)
}

func (h *Domain) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	domains, err := h.svc.List(r.Context(), actor(r), &userID)
	writeList(w, r, domains, err)
}

func (h *Domain) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, d, err)
}

// Create godoc
//
//	@Summary		Add a domain
//	@Description	Domain names are unique across the panel. Counts against the owner's package domain limit.
//	@Tags			Domains
//	@Param			body	body		core.DomainInput	true	"Domain details"
//	@Success		201		{object}	model.Domain
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		403		{object}	response.ErrorResponse
//	@Failure		409		{object}	response.ErrorResponse
//	@Router			/domains [post]
func (h *Domain) Create(w http.ResponseWriter, r *http.Request) {
	var in core.DomainInput
	if !decode(w, r, &in) {
		return
	}
	d, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, d, err)
}

func (h *Domain) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateDomainInput
	if !decode(w, r, &in) {
		return
	}
	d, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, d, err)
}

// Delete removes the domain together with its DNS records and certificates.
func (h *Domain) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "Domain", h.svc.Delete(r.Context(), actor(r), id))
}

// Zone godoc
//
//	@Summary		Export a zone file
//	@Description	Renders the domain's DNS records as a BIND master file.
//	@Tags			Domains
//	@Produce		plain
//	@Param			id	path		int	true	"Domain ID"
//	@Success		200	{string}	string
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/domains/{id}/zone [get]
func (h *Domain) Zone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	zone, err := h.records.Zone(r.Context(), actor(r), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteText(w, http.StatusOK, zone)
}
