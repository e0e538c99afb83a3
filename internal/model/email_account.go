package model

import "time"

// EmailAccount is a mailbox. Quota is in MB.
type EmailAccount struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Quota        int       `json:"quota"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}
