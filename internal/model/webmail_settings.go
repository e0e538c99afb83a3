package model

import "time"

type WebmailSettings struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	DisplayName     string    `json:"displayName"`
	Signature       string    `json:"signature"`
	Theme           string    `json:"theme"`
	MessagesPerPage int       `json:"messagesPerPage"`
	AutoRefresh     bool      `json:"autoRefresh"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DefaultWebmailSettings is returned for users that never saved settings.
func DefaultWebmailSettings(userID int64) WebmailSettings {
	return WebmailSettings{
		UserID:          userID,
		Theme:           "light",
		MessagesPerPage: 25,
		AutoRefresh:     true,
	}
}
