package model

import "time"

const (
	ScanTypeMalware       = "malware"
	ScanTypeVulnerability = "vulnerability"
	ScanTypeFull          = "full"
)

type SecurityScan struct {
	ID           int64      `json:"id"`
	ScanType     string     `json:"scanType"`
	Status       string     `json:"status"`
	ThreatsFound int        `json:"threatsFound"`
	FilesScanned int        `json:"filesScanned"`
	Summary      string     `json:"summary"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}
