package model

import "time"

const (
	DomainTypePrimary   = "primary"
	DomainTypeAddon     = "addon"
	DomainTypeSubdomain = "subdomain"
	DomainTypeAlias     = "alias"
)

type Domain struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Domain    string    `json:"domain"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
