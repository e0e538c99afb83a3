package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/api/response"
	"github.com/edvin/hostpanel/internal/core"
)

// Streamer upgrades a request to a live notification feed for userID;
// satisfied by *notify.Hub.
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID int64)
}

type Notification struct {
	svc    *core.NotificationService
	stream Streamer
}

func NewNotification(services *core.Services, stream Streamer) *Notification {
	return &Notification{svc: services.Notification, stream: stream}
}

// List godoc
//
//	@Summary		List notifications
//	@Description	Returns the caller's own notifications and broadcasts, newest first.
//	@Tags			Notifications
//	@Param			limit	query		int	false	"Maximum rows"	default(50)
//	@Success		200		{array}		model.Notification
//	@Router			/notifications [get]
func (h *Notification) List(w http.ResponseWriter, r *http.Request) {
	n, ok := limit(w, r)
	if !ok {
		return
	}
	notes, err := h.svc.List(r.Context(), actor(r), n)
	writeList(w, r, notes, err)
}

func (h *Notification) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, n, err)
}

// Create stores a notification and pushes it to connected clients. A
// notification without userId is a broadcast.
func (h *Notification) Create(w http.ResponseWriter, r *http.Request) {
	var in core.NotificationInput
	if !decode(w, r, &in) {
		return
	}
	n, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, n, err)
}

func (h *Notification) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateNotificationInput
	if !decode(w, r, &in) {
		return
	}
	n, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, n, err)
}

func (h *Notification) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "Notification", h.svc.Delete(r.Context(), actor(r), id))
}

func (h *Notification) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.svc.MarkRead(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, n, err)
}

func (h *Notification) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllRead(r.Context(), actor(r))
	writeResult(w, r, http.StatusOK, map[string]int{"updated": n}, err)
}

// Stream godoc
//
//	@Summary		Live notifications
//	@Description	Upgrades to a WebSocket that receives {"type":"notification","data":...} events for the caller and for broadcasts.
//	@Tags			Notifications
//	@Success		101
//	@Router			/notifications/stream [get]
func (h *Notification) Stream(w http.ResponseWriter, r *http.Request) {
	if h.stream == nil {
		response.WriteError(w, http.StatusServiceUnavailable, "live notifications are not available")
		return
	}
	h.stream.Serve(w, r, actor(r).UserID)
}
