package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status represents the lifecycle state of an incident.
type Status string

// Incident statuses. All six transitions between distinct states are
// permitted; Resolved is not terminal.
const (
	StatusOpen          Status = "Open"
	StatusInvestigating Status = "Investigating"
	StatusResolved      Status = "Resolved"
)

// IsValid checks if the status is one of the known lifecycle states.
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusInvestigating || s == StatusResolved
}

// CoerceStatus maps raw input to a Status. Unknown values fall back to
// StatusOpen rather than failing; the comparison ignores case so "resolved"
// and "Resolved" are the same state.
func CoerceStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open":
		return StatusOpen
	case "investigating":
		return StatusInvestigating
	case "resolved":
		return StatusResolved
	}
	return StatusOpen
}

// Severity represents the impact level of an incident.
type Severity string

// Severity levels.
const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// IsValid checks if the severity is valid.
func (s Severity) IsValid() bool {
	return s == SeverityHigh || s == SeverityMedium || s == SeverityLow
}

var severityCaser = cases.Title(language.English)

// NormalizeSeverity maps raw input ("high", "HIGH", "High") to the stored
// capitalized form. Returns false when the value is not a known level.
func NormalizeSeverity(raw string) (Severity, bool) {
	s := Severity(severityCaser.String(strings.ToLower(strings.TrimSpace(raw))))
	return s, s.IsValid()
}

// ContextNote is an immutable, timestamped free-text entry documenting
// investigation progress. Notes are append-only: never edited or removed.
type ContextNote struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TimelineEntry is one record in an incident's append-only audit log.
// Every mutating operation on an incident produces exactly one entry.
type TimelineEntry struct {
	ID        string    `json:"id"`
	Icon      string    `json:"icon"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ArtifactMode selects the kind of advisory text to generate.
type ArtifactMode string

// Artifact modes.
const (
	ModeSummary           ArtifactMode = "summary"
	ModeNextSteps         ArtifactMode = "next_steps"
	ModeStakeholderUpdate ArtifactMode = "stakeholder_update"
)

// IsValid checks if the artifact mode is valid.
func (m ArtifactMode) IsValid() bool {
	return m == ModeSummary || m == ModeNextSteps || m == ModeStakeholderUpdate
}

// Artifact is a stored, timestamped output of the text-generation
// collaborator. Artifacts are append-only.
type Artifact struct {
	ID        string       `json:"id"`
	Type      ArtifactMode `json:"type"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"created_at"`
}

// Incident is the sole persisted aggregate: lifecycle state plus its
// append-only notes, audit timeline, and generated artifacts.
type Incident struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Status      Status   `json:"status"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	ContextNotes []ContextNote   `json:"context_notes"`
	Timeline     []TimelineEntry `json:"timeline"`
	AIOutput     []Artifact      `json:"ai_output"`

	// ContextText is a denormalized concatenation of the most recent notes,
	// kept for older consumers. Recomputed from ContextNotes on every note
	// append; never authoritative.
	ContextText string `json:"context_text,omitempty"`
}

// IsResolved reports whether the incident currently sits in the Resolved
// state. The comparison ignores case to tolerate data written by older
// versions that stored lowercase statuses.
func (i *Incident) IsResolved() bool {
	return strings.EqualFold(string(i.Status), string(StatusResolved))
}

// ResolutionTime returns the time from creation to resolution. The second
// return is false when the incident has no usable resolution timestamp
// (unresolved, or resolvedAt precedes createdAt).
func (i *Incident) ResolutionTime() (time.Duration, bool) {
	if i.ResolvedAt == nil {
		return 0, false
	}
	d := i.ResolvedAt.Sub(i.CreatedAt)
	if d < 0 {
		return 0, false
	}
	return d, true
}
