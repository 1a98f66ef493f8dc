package ai

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/opspulse/incident-desk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPromptBuilder(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)
	require.NotNil(t, b)

	// One template per artifact mode
	assert.Len(t, b.templates, 3)
}

func testIncident() *domain.Incident {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Incident{
		ID:          "INC-1",
		Title:       "Checkout latency",
		Description: "p99 latency above SLO on checkout",
		Severity:    domain.SeverityHigh,
		Status:      domain.StatusInvestigating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestBuild_Summary(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	incident := testIncident()
	incident.ContextNotes = []domain.ContextNote{
		{ID: "n1", Text: "Rolled back deploy 4711", CreatedAt: time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)},
	}

	prompt, err := b.Build(incident, domain.ModeSummary)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Incident: Checkout latency")
	assert.Contains(t, prompt, "Severity: High")
	assert.Contains(t, prompt, "Status: Investigating")
	assert.Contains(t, prompt, "high-severity incident")
	assert.Contains(t, prompt, "- [2026-03-01T12:05:00Z] Rolled back deploy 4711")
	assert.Contains(t, prompt, "narrative summary")
	assert.True(t, strings.HasSuffix(prompt, "\n"), "prompt ends with a single newline")
	assert.False(t, strings.HasSuffix(prompt, "\n\n"))
}

func TestBuild_NoNotes(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	prompt, err := b.Build(testIncident(), domain.ModeNextSteps)
	require.NoError(t, err)

	assert.Contains(t, prompt, "No investigation notes have been recorded yet.")
	assert.NotContains(t, prompt, "Investigation notes so far")
}

func TestBuild_SeverityGuidancePerTier(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	tests := []struct {
		severity domain.Severity
		fragment string
	}{
		{domain.SeverityHigh, "containment and service restoration"},
		{domain.SeverityMedium, "Balance immediate mitigation with diagnosis"},
		{domain.SeverityLow, "diagnosis and prevention"},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			incident := testIncident()
			incident.Severity = tt.severity

			prompt, err := b.Build(incident, domain.ModeSummary)
			require.NoError(t, err)
			assert.Contains(t, prompt, tt.fragment)
		})
	}
}

func TestBuild_NoteWindow(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	incident := testIncident()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < maxPromptNotes+4; i++ {
		incident.ContextNotes = append(incident.ContextNotes, domain.ContextNote{
			ID:        fmt.Sprintf("n%d", i),
			Text:      fmt.Sprintf("note number %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	prompt, err := b.Build(incident, domain.ModeSummary)
	require.NoError(t, err)

	assert.NotContains(t, prompt, "note number 3", "notes outside the window are dropped")
	assert.Contains(t, prompt, "note number 4", "oldest retained note")
	assert.Contains(t, prompt, fmt.Sprintf("note number %d", maxPromptNotes+3))

	// Oldest first
	first := strings.Index(prompt, "note number 4")
	last := strings.Index(prompt, fmt.Sprintf("note number %d", maxPromptNotes+3))
	assert.Less(t, first, last)
}

func TestBuild_UnknownMode(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	_, err = b.Build(testIncident(), domain.ArtifactMode("haiku"))
	assert.Error(t, err)
}

func TestFinalizeArtifactText(t *testing.T) {
	t.Run("stakeholder update is framed", func(t *testing.T) {
		out := FinalizeArtifactText(domain.ModeStakeholderUpdate, "Checkout is degraded.")
		assert.True(t, strings.HasPrefix(out, "Hello stakeholders,\n\n"))
		assert.Contains(t, out, "Checkout is degraded.")
		assert.True(t, strings.HasSuffix(out, "— Incident Response Team"))
	})

	t.Run("other modes pass through", func(t *testing.T) {
		assert.Equal(t, "as is", FinalizeArtifactText(domain.ModeSummary, "as is"))
		assert.Equal(t, "as is", FinalizeArtifactText(domain.ModeNextSteps, "as is"))
	})
}

func TestArtifactTitle(t *testing.T) {
	assert.Equal(t, "Incident Summary", ArtifactTitle(domain.ModeSummary))
	assert.Equal(t, "Recommended Next Steps", ArtifactTitle(domain.ModeNextSteps))
	assert.Equal(t, "Stakeholder Update", ArtifactTitle(domain.ModeStakeholderUpdate))
}
