package model

import (
	"fmt"
	"time"
)

// Unlimited is the sentinel quota value meaning "no limit".
const Unlimited = -1

// HostingPackage is a plan with resource quotas. DiskSpace and Bandwidth are
// in GB. Any quota may be Unlimited except Domains.
type HostingPackage struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	DiskSpace     int       `json:"diskSpace"`
	Bandwidth     int       `json:"bandwidth"`
	EmailAccounts int       `json:"emailAccounts"`
	Databases     int       `json:"databases"`
	Domains       int       `json:"domains"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func IsUnlimited(limit int) bool {
	return limit == Unlimited
}

// FormatLimit renders a quota for display, e.g. "10 GB" or "Unlimited".
func FormatLimit(limit int, unit string) string {
	if IsUnlimited(limit) {
		return "Unlimited"
	}
	if unit == "" {
		return fmt.Sprintf("%d", limit)
	}
	return fmt.Sprintf("%d %s", limit, unit)
}

// UsagePercent returns used/limit as a percentage capped at 100. An
// Unlimited limit reports unlimited=true and 0%; a zero limit reports 100%
// once anything is used.
func UsagePercent(used, limit int) (pct float64, unlimited bool) {
	if IsUnlimited(limit) {
		return 0, true
	}
	if used <= 0 {
		return 0, false
	}
	if limit <= 0 {
		return 100, false
	}
	pct = float64(used) / float64(limit) * 100
	if pct > 100 {
		pct = 100
	}
	return pct, false
}

// QuotaUsage is one quota line of the dashboard summary.
type QuotaUsage struct {
	Used      int     `json:"used"`
	Limit     int     `json:"limit"`
	Display   string  `json:"display"`
	Percent   float64 `json:"percent"`
	Unlimited bool    `json:"unlimited"`
}

func NewQuotaUsage(used, limit int, unit string) QuotaUsage {
	pct, unlimited := UsagePercent(used, limit)
	return QuotaUsage{
		Used:      used,
		Limit:     limit,
		Display:   FormatLimit(limit, unit),
		Percent:   pct,
		Unlimited: unlimited,
	}
}
