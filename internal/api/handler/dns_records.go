package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type DnsRecord struct {
	svc *core.DnsRecordService
}

func NewDnsRecord(services *core.Services) *DnsRecord {
	return &DnsRecord{svc: services.DnsRecord}
}

func (h *DnsRecord) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	records, err := h.svc.List(r.Context(), actor(r), userID)
	writeList(w, r, records, err)
}

// ListByDomain godoc
//
//	@Summary		List a domain's DNS records
//	@Tags			DNS Records
//	@Param			domainId	path		int	true	"Domain ID"
//	@Success		200			{array}		model.DnsRecord
//	@Failure		403			{object}	response.ErrorResponse
//	@Failure		404			{object}	response.ErrorResponse
//	@Router			/dns-records/{domainId} [get]
func (h *DnsRecord) ListByDomain(w http.ResponseWriter, r *http.Request) {
	domainID, ok := pathID(w, r, "domainId")
	if !ok {
		return
	}
	records, err := h.svc.ListByDomain(r.Context(), actor(r), domainID)
	writeList(w, r, records, err)
}

func (h *DnsRecord) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, rec, err)
}

// Create godoc
//
//	@Summary		Create a DNS record
//	@Description	The value is checked against the record type (A needs an IPv4 address, AAAA an IPv6 address, MX a priority). New records are active.
//	@Tags			DNS Records
//	@Param			body	body		core.DnsRecordInput	true	"Record details"
//	@Success		201		{object}	model.DnsRecord
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/dns-records [post]
func (h *DnsRecord) Create(w http.ResponseWriter, r *http.Request) {
	var in core.DnsRecordInput
	if !decode(w, r, &in) {
		return
	}
	rec, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, rec, err)
}

func (h *DnsRecord) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateDnsRecordInput
	if !decode(w, r, &in) {
		return
	}
	rec, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, rec, err)
}

func (h *DnsRecord) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "DNS record", h.svc.Delete(r.Context(), actor(r), id))
}
