package model

import "time"

// ServerStats is one telemetry sample. Usage fields are percentages.
type ServerStats struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	CPUUsage    int       `json:"cpuUsage"`
	MemoryUsage int       `json:"memoryUsage"`
	DiskUsage   int       `json:"diskUsage"`
	ActiveUsers int       `json:"activeUsers"`
	Uptime      int64     `json:"uptime"`
}
