package dto

import "time"

type HealthResponse struct {
	Status    string    `json:"status"`
	Hostname  string    `json:"hostname"`
	Zone      string    `json:"zone,omitempty"`
	Version   string    `json:"version,omitempty"`
	StartTime time.Time `json:"start_time"`
	Uptime    string    `json:"uptime"`
}
