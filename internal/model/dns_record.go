package model

import "time"

// DefaultTTL is applied to DNS records created without an explicit TTL.
const DefaultTTL = 3600

// DNS record types accepted by the panel.
var DNSRecordTypes = []string{"A", "AAAA", "CNAME", "MX", "TXT", "NS"}

type DnsRecord struct {
	ID        int64     `json:"id"`
	DomainID  int64     `json:"domainId"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	Priority  *int      `json:"priority,omitempty"`
	TTL       int       `json:"ttl"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
