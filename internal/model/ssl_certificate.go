package model

import "time"

const (
	SSLTypeLetsEncrypt = "lets_encrypt"
	SSLTypeCustom      = "custom"
)

// SslCertificate holds certificate metadata for a domain. PrivateKey is
// stored sealed and is never serialized.
type SslCertificate struct {
	ID            int64      `json:"id"`
	DomainID      int64      `json:"domainId"`
	UserID        int64      `json:"userId"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Issuer        string     `json:"issuer"`
	ValidFrom     *time.Time `json:"validFrom"`
	ValidTo       *time.Time `json:"validTo"`
	AutoRenew     bool       `json:"autoRenew"`
	Certificate   *string    `json:"certificate,omitempty"`
	PrivateKey    *string    `json:"-"`
	HasPrivateKey bool       `json:"hasPrivateKey"`
	CreatedAt     time.Time  `json:"createdAt"`
}
