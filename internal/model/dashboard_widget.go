package model

import (
	"encoding/json"
	"time"
)

type DashboardWidget struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	WidgetType string          `json:"widgetType"`
	Title      string          `json:"title"`
	Position   int             `json:"position"`
	Size       string          `json:"size"`
	Settings   json.RawMessage `json:"settings,omitempty"`
	IsVisible  bool            `json:"isVisible"`
	CreatedAt  time.Time       `json:"createdAt"`
}
