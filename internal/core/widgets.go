package core

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

type WidgetInput struct {
	UserID     int64           `json:"userId"`
	WidgetType string          `json:"widgetType" validate:"required,max=50"`
	Title      string          `json:"title" validate:"required,max=100"`
	Position   int             `json:"position" validate:"gte=0"`
	Size       string          `json:"size" validate:"omitempty,oneof=small medium large"`
	Settings   json.RawMessage `json:"settings"`
	IsVisible  *bool           `json:"isVisible"`
}

type UpdateWidgetInput struct {
	WidgetType *string          `json:"widgetType" validate:"omitempty,max=50"`
	Title      *string          `json:"title" validate:"omitempty,max=100"`
	Position   *int             `json:"position" validate:"omitempty,gte=0"`
	Size       *string          `json:"size" validate:"omitempty,oneof=small medium large"`
	Settings   *json.RawMessage `json:"settings"`
	IsVisible  *bool            `json:"isVisible"`
}

type WidgetService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewWidgetService(d Deps) *WidgetService {
	return &WidgetService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "widgets").Logger()}
}

// List returns widgets ordered by position.
func (s *WidgetService) List(ctx context.Context, actor Actor, userID *int64) ([]model.DashboardWidget, error) {
	f, err := actor.scope(userID)
	if err != nil {
		return nil, err
	}
	ws, err := s.store.ListWidgets(ctx, f)
	if err != nil {
		return nil, storeErr(err, "widget")
	}
	return ws, nil
}

func (s *WidgetService) Get(ctx context.Context, actor Actor, id int64) (*model.DashboardWidget, error) {
	w, err := s.store.GetWidget(ctx, id)
	if err != nil {
		return nil, storeErr(err, "widget")
	}
	if err := actor.authorize(w.UserID); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WidgetService) Create(ctx context.Context, actor Actor, in WidgetInput) (*model.DashboardWidget, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := checkSettings(in.Settings); err != nil {
		return nil, err
	}
	ownerID, err := actor.owner(in.UserID)
	if err != nil {
		return nil, err
	}
	w := &model.DashboardWidget{
		UserID:     ownerID,
		WidgetType: in.WidgetType,
		Title:      in.Title,
		Position:   in.Position,
		Size:       defaultString(in.Size, "medium"),
		Settings:   in.Settings,
		IsVisible:  true,
		CreatedAt:  s.clock.Now(),
	}
	assign(&w.IsVisible, in.IsVisible)
	if err := s.store.CreateWidget(ctx, w); err != nil {
		return nil, storeErr(err, "widget")
	}
	return w, nil
}

func (s *WidgetService) Update(ctx context.Context, actor Actor, id int64, in UpdateWidgetInput) (*model.DashboardWidget, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Settings != nil {
		if err := checkSettings(*in.Settings); err != nil {
			return nil, err
		}
	}
	w, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	assign(&w.WidgetType, in.WidgetType)
	assign(&w.Title, in.Title)
	assign(&w.Position, in.Position)
	assign(&w.Size, in.Size)
	assign(&w.Settings, in.Settings)
	assign(&w.IsVisible, in.IsVisible)
	if err := s.store.UpdateWidget(ctx, w); err != nil {
		return nil, storeErr(err, "widget")
	}
	return w, nil
}

func (s *WidgetService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteWidget(ctx, id); err != nil {
		return storeErr(err, "widget")
	}
	return nil
}

// checkSettings accepts an absent value or a JSON object.
func checkSettings(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return InvalidInput("settings must be a JSON object")
	}
	return nil
}
