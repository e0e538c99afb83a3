package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a panel account. PasswordHash and TwoFactorSecret never leave
// the server.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             string    `json:"role"`
	PackageID        *int64    `json:"packageId"`
	Status           string    `json:"status"`
	DiskUsage        int       `json:"diskUsage"`
	TwoFactorSecret  *string   `json:"-"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the trimmed user shape returned by the auth endpoints.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
