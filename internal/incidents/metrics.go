package incidents

import (
	"strings"
	"time"

	"github.com/opspulse/incident-desk/internal/domain"
)

// Metrics are derived aggregate statistics over the incident collection.
// Recomputed on every read, never persisted.
type Metrics struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`

	// AvgResolutionSeconds is the mean time from creation to resolution over
	// incidents with a usable resolution timestamp. Nil when no incident
	// qualifies; never zero-filled.
	AvgResolutionSeconds *float64 `json:"avg_resolution_seconds,omitempty"`
}

// ComputeMetrics derives Metrics from the current collection. Status
// comparisons ignore case to tolerate data written by older versions.
func ComputeMetrics(collection []domain.Incident) Metrics {
	m := Metrics{Total: len(collection)}

	var resolutionSum time.Duration
	var resolutionCount int

	for i := range collection {
		incident := &collection[i]

		switch {
		case strings.EqualFold(string(incident.Status), string(domain.StatusOpen)):
			m.Open++
		case incident.IsResolved():
			m.Resolved++
		}

		if d, ok := incident.ResolutionTime(); ok {
			resolutionSum += d
			resolutionCount++
		}
	}

	if resolutionCount > 0 {
		avg := resolutionSum.Seconds() / float64(resolutionCount)
		m.AvgResolutionSeconds = &avg
	}

	return m
}
