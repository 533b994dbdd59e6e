package models

import "time"

// Status is the periodic agent health report.
type Status struct {
	AgentID           string    `json:"agent_id"`
	Timestamp         time.Time `json:"timestamp"`
	UptimeSeconds     int64     `json:"uptime_seconds"`
	MemoryUsedPercent float64   `json:"memory_used_percent"`
	CPUUsedPercent    float64   `json:"cpu_used_percent"`
}
