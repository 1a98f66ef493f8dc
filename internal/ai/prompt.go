// Package ai assembles prompts for the text-generation collaborator and
// sanitizes its raw output. Everything here is a pure function of its
// inputs so it can be tested without a model.
package ai

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/opspulse/incident-desk/internal/domain"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// maxPromptNotes caps how many of the most recent context notes are included
// in a prompt, oldest first.
const maxPromptNotes = 18

// severityGuidance maps each severity tier to the framing block included in
// every prompt. Enum-keyed so a new tier fails loudly at the lookup site
// instead of silently producing an empty block.
var severityGuidance = map[domain.Severity]string{
	domain.SeverityHigh: "This is a high-severity incident. Prioritize containment and service restoration " +
		"over root-cause depth, and call out anything that warrants escalation or additional responders.",
	domain.SeverityMedium: "This is a medium-severity incident. Balance immediate mitigation with diagnosis; " +
		"recommend steps that reduce impact while narrowing down the cause.",
	domain.SeverityLow: "This is a low-severity incident. Focus on diagnosis and prevention: understanding " +
		"what happened and what would stop it from recurring matters more than speed.",
}

// artifactTitles maps each mode to the stored artifact title.
var artifactTitles = map[domain.ArtifactMode]string{
	domain.ModeSummary:           "Incident Summary",
	domain.ModeNextSteps:         "Recommended Next Steps",
	domain.ModeStakeholderUpdate: "Stakeholder Update",
}

// Fixed framing applied to stakeholder updates after sanitization.
const (
	stakeholderSalutation = "Hello stakeholders,"
	stakeholderClosing    = "We will share further updates as the situation develops.\n\n— Incident Response Team"
)

// ArtifactTitle returns the stored title for a generated artifact.
func ArtifactTitle(mode domain.ArtifactMode) string {
	return artifactTitles[mode]
}

// PromptBuilder renders generation prompts from per-mode templates.
type PromptBuilder struct {
	templates map[domain.ArtifactMode]*template.Template
}

// NewPromptBuilder loads and parses all prompt templates.
func NewPromptBuilder() (*PromptBuilder, error) {
	b := &PromptBuilder{
		templates: make(map[domain.ArtifactMode]*template.Template),
	}

	modes := []domain.ArtifactMode{
		domain.ModeSummary,
		domain.ModeNextSteps,
		domain.ModeStakeholderUpdate,
	}

	for _, mode := range modes {
		filename := fmt.Sprintf("templates/%s.tmpl", mode)

		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(string(mode)).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", filename, err)
		}

		b.templates[mode] = tmpl
	}

	return b, nil
}

// promptData is the input to every prompt template.
type promptData struct {
	Title       string
	Description string
	Severity    string
	Status      string
	Guidance    string
	Notes       []promptNote
}

type promptNote struct {
	When string
	Text string
}

// Build renders the generation prompt for the given incident and mode.
func (b *PromptBuilder) Build(incident *domain.Incident, mode domain.ArtifactMode) (string, error) {
	tmpl, ok := b.templates[mode]
	if !ok {
		return "", fmt.Errorf("no prompt template for mode %q", mode)
	}

	guidance, ok := severityGuidance[incident.Severity]
	if !ok {
		return "", fmt.Errorf("no severity guidance for %q", incident.Severity)
	}

	data := promptData{
		Title:       incident.Title,
		Description: incident.Description,
		Severity:    string(incident.Severity),
		Status:      string(incident.Status),
		Guidance:    guidance,
		Notes:       recentNotes(incident.ContextNotes),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", mode, err)
	}

	return strings.TrimSpace(buf.String()) + "\n", nil
}

// recentNotes returns the last maxPromptNotes notes in chronological order,
// oldest first, each tagged with its timestamp.
func recentNotes(notes []domain.ContextNote) []promptNote {
	start := 0
	if len(notes) > maxPromptNotes {
		start = len(notes) - maxPromptNotes
	}

	out := make([]promptNote, 0, len(notes)-start)
	for _, note := range notes[start:] {
		out = append(out, promptNote{
			When: note.CreatedAt.UTC().Format(time.RFC3339),
			Text: note.Text,
		})
	}
	return out
}

// FinalizeArtifactText applies mode-specific framing to sanitized model
// output. Stakeholder updates are wrapped in a fixed salutation and closing;
// other modes pass through unchanged.
func FinalizeArtifactText(mode domain.ArtifactMode, text string) string {
	if mode != domain.ModeStakeholderUpdate {
		return text
	}
	return stakeholderSalutation + "\n\n" + text + "\n\n" + stakeholderClosing
}
