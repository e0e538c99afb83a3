package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/edvin/hostpanel/internal/api/response"
	"github.com/edvin/hostpanel/internal/core"
)

type Backup struct {
	svc *core.BackupService
}

func NewBackup(services *core.Services) *Backup {
	return &Backup{svc: services.Backup}
}

func (h *Backup) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	backups, err := h.svc.List(r.Context(), actor(r), userID)
	writeList(w, r, backups, err)
}

func (h *Backup) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, b, err)
}

// Create godoc
//
//	@Summary		Create a backup
//	@Description	Snapshots the owner's domains, DNS records, mailboxes, databases and file tree into a JSON archive. The backup is returned completed, or failed with a statusMessage.
//	@Tags			Backups
//	@Param			body	body		core.BackupInput	true	"Backup details"
//	@Success		201		{object}	model.Backup
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/backups [post]
func (h *Backup) Create(w http.ResponseWriter, r *http.Request) {
	var in core.BackupInput
	if !decode(w, r, &in) {
		return
	}
	b, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, b, err)
}

func (h *Backup) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateBackupInput
	if !decode(w, r, &in) {
		return
	}
	b, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, b, err)
}

func (h *Backup) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "Backup", h.svc.Delete(r.Context(), actor(r), id))
}

// Download streams the backup archive as an attachment.
func (h *Backup) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, data, err := h.svc.Download(r.Context(), actor(r), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("backup-%d.json", b.ID)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
