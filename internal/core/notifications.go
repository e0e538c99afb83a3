package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationInput addresses a notification. A nil UserID from an admin is
// a broadcast; from anyone else it means the caller.
type NotificationInput struct {
	UserID   *int64 `json:"userId" validate:"omitempty,gt=0"`
	Title    string `json:"title" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=2000"`
	Type     string `json:"type" validate:"omitempty,oneof=info warning error success"`
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high"`
}

type UpdateNotificationInput struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Message  *string `json:"message" validate:"omitempty,max=2000"`
	Type     *string `json:"type" validate:"omitempty,oneof=info warning error success"`
	Priority *string `json:"priority" validate:"omitempty,oneof=low normal high"`
	IsRead   *bool   `json:"isRead"`
}

type NotificationService struct {
	store     store.Store
	clock     platform.Clock
	log       zerolog.Logger
	publisher Publisher
}

func NewNotificationService(d Deps) *NotificationService {
	p := d.Publisher
	if p == nil {
		p = nopPublisher{}
	}
	return &NotificationService{
		store:     d.Store,
		clock:     d.Clock,
		log:       d.Logger.With().Str("component", "notifications").Logger(),
		publisher: p,
	}
}

// List returns the caller's notifications and broadcasts, newest first.
func (s *NotificationService) List(ctx context.Context, actor Actor, limit int) ([]model.Notification, error) {
	switch {
	case limit <= 0:
		limit = defaultNotificationLimit
	case limit > maxNotificationLimit:
		limit = maxNotificationLimit
	}
	f := store.ByUser(actor.UserID)
	f.Limit = limit
	ns, err := s.store.ListNotifications(ctx, f)
	if err != nil {
		return nil, storeErr(err, "notification")
	}
	return ns, nil
}

func (s *NotificationService) Get(ctx context.Context, actor Actor, id int64) (*model.Notification, error) {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return nil, storeErr(err, "notification")
	}
	if !n.IsBroadcast() {
		if err := actor.authorize(*n.UserID); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (s *NotificationService) Create(ctx context.Context, actor Actor, in NotificationInput) (*model.Notification, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	n := &model.Notification{
		UserID:   in.UserID,
		Title:    in.Title,
		Message:  in.Message,
		Type:     defaultString(in.Type, model.NotificationInfo),
		Priority: defaultString(in.Priority, model.PriorityNormal),
	}
	if n.UserID == nil && !actor.IsAdmin() {
		self := actor.UserID
		n.UserID = &self
	}
	if n.UserID != nil {
		if err := actor.authorize(*n.UserID); err != nil {
			return nil, err
		}
	}
	if err := s.Notify(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Notify persists n and pushes it to connected clients. Delivery is
// best-effort; the stored row is the record of truth.
func (s *NotificationService) Notify(ctx context.Context, n *model.Notification) error {
	n.CreatedAt = s.clock.Now()
	n.Type = defaultString(n.Type, model.NotificationInfo)
	n.Priority = defaultString(n.Priority, model.PriorityNormal)
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return storeErr(err, "notification")
	}
	s.publisher.Publish(ctx, n)
	return nil
}

// Update edits a notification. Broadcasts are shared, so only admins may
// change them.
func (s *NotificationService) Update(ctx context.Context, actor Actor, id int64, in UpdateNotificationInput) (*model.Notification, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	n, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if n.IsBroadcast() && !actor.IsAdmin() {
		return nil, Forbidden("broadcast notifications can only be changed by admins")
	}
	assign(&n.Title, in.Title)
	assign(&n.Message, in.Message)
	assign(&n.Type, in.Type)
	assign(&n.Priority, in.Priority)
	assign(&n.IsRead, in.IsRead)
	if err := s.store.UpdateNotification(ctx, n); err != nil {
		return nil, storeErr(err, "notification")
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id int64) (*model.Notification, error) {
	read := true
	return s.Update(ctx, actor, id, UpdateNotificationInput{IsRead: &read})
}

// MarkAllRead flags the caller's own unread notifications. Broadcasts are
// left untouched.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int, error) {
	n, err := s.store.MarkNotificationsRead(ctx, actor.UserID)
	if err != nil {
		return 0, storeErr(err, "notification")
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, actor Actor, id int64) error {
	n, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if n.IsBroadcast() && !actor.IsAdmin() {
		return Forbidden("broadcast notifications can only be deleted by admins")
	}
	if err := s.store.DeleteNotification(ctx, id); err != nil {
		return storeErr(err, "notification")
	}
	return nil
}
