// Package responses defines API response types used by docsite HTTP handlers.
package responses

import "time"

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	Uptime        float64   `json:"uptime"`
	Pages         int       `json:"pages"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
	LastScanError string    `json:"lastScanError,omitempty"`
}

// PageSummary is one entry of the page listing.
type PageSummary struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	File        string `json:"file"`
}
