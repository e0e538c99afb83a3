package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

type WebmailSettingsInput struct {
	DisplayName     *string `json:"displayName" validate:"omitempty,max=100"`
	Signature       *string `json:"signature" validate:"omitempty,max=2000"`
	Theme           *string `json:"theme" validate:"omitempty,oneof=light dark"`
	MessagesPerPage *int    `json:"messagesPerPage" validate:"omitempty,oneof=10 25 50 100"`
	AutoRefresh     *bool   `json:"autoRefresh"`
}

type WebmailService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewWebmailService(d Deps) *WebmailService {
	return &WebmailService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "webmail").Logger()}
}

// Get returns the caller's settings, or the defaults when none were saved.
func (s *WebmailService) Get(ctx context.Context, actor Actor) (*model.WebmailSettings, error) {
	ws, err := s.store.GetWebmailSettings(ctx, actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		d := model.DefaultWebmailSettings(actor.UserID)
		return &d, nil
	}
	if err != nil {
		return nil, storeErr(err, "webmail settings")
	}
	return ws, nil
}

// Update merges in over the current settings and saves the result.
func (s *WebmailService) Update(ctx context.Context, actor Actor, in WebmailSettingsInput) (*model.WebmailSettings, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	ws, err := s.Get(ctx, actor)
	if err != nil {
		return nil, err
	}
	assign(&ws.DisplayName, in.DisplayName)
	assign(&ws.Signature, in.Signature)
	assign(&ws.Theme, in.Theme)
	assign(&ws.MessagesPerPage, in.MessagesPerPage)
	assign(&ws.AutoRefresh, in.AutoRefresh)
	ws.UpdatedAt = s.clock.Now()
	if err := s.store.UpsertWebmailSettings(ctx, ws); err != nil {
		return nil, storeErr(err, "webmail settings")
	}
	return ws, nil
}
