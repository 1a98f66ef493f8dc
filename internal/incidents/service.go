// Package incidents implements the incident lifecycle: creation, status
// transitions, note appends, artifact generation, and the audit timeline
// that records all of them.
package incidents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opspulse/incident-desk/internal/ai"
	"github.com/opspulse/incident-desk/internal/domain"
	"github.com/opspulse/incident-desk/internal/pkg/metrics"
)

// TextGenerator is the external text-generation collaborator: prompt in,
// text out. Treated as slow, fallible, and side-effect-free.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

const (
	// generationMaxTokens bounds a single artifact generation.
	generationMaxTokens = 800

	// maxSummaryNotes is how many trailing notes feed the legacy
	// context_text field.
	maxSummaryNotes = 16
)

// Timeline icons. Status changes get a status-specific icon.
const (
	iconCreated  = "🆕"
	iconNote     = "📝"
	iconArtifact = "🤖"
)

func statusIcon(status domain.Status) string {
	switch status {
	case domain.StatusInvestigating:
		return "🔍"
	case domain.StatusResolved:
		return "✅"
	default:
		return "📂"
	}
}

// Service implements incident business logic. Each operation is one atomic
// read-modify-write against the whole collection; mu provides the single
// logical writer the Repository requires.
type Service struct {
	mu        sync.Mutex
	repo      Repository
	generator TextGenerator
	prompts   *ai.PromptBuilder
}

// NewService creates a new incident service.
func NewService(repo Repository, generator TextGenerator, prompts *ai.PromptBuilder) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		prompts:   prompts,
	}
}

// CreateIncidentInput holds data for creating an incident.
type CreateIncidentInput struct {
	ID          string
	Title       string
	Description string
	Severity    string
}

// Create validates input and appends a new incident to the collection.
// The incident starts Open with a single creation timeline entry.
func (s *Service) Create(ctx context.Context, input CreateIncidentInput) (*domain.Incident, error) {
	id := strings.TrimSpace(input.ID)
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	if id == "" || title == "" || description == "" || strings.TrimSpace(input.Severity) == "" {
		return nil, fmt.Errorf("%w: id, title, description and severity are required", ErrValidation)
	}

	severity, ok := domain.NormalizeSeverity(input.Severity)
	if !ok {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrValidation, input.Severity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load incidents: %w", err)
	}

	for i := range collection {
		if collection[i].ID == id {
			return nil, fmt.Errorf("%w: %s", ErrConflict, id)
		}
	}

	now := time.Now().UTC()
	incident := domain.Incident{
		ID:           id,
		Title:        title,
		Description:  description,
		Severity:     severity,
		Status:       domain.StatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
		ContextNotes: []domain.ContextNote{},
		AIOutput:     []domain.Artifact{},
		Timeline: []domain.TimelineEntry{
			newTimelineEntry(iconCreated, "Incident created", fmt.Sprintf("%s severity incident reported", severity), now),
		},
	}

	if err := s.repo.Append(ctx, incident); err != nil {
		return nil, fmt.Errorf("append incident: %w", err)
	}

	metrics.IncidentOperationsTotal.WithLabelValues("create").Inc()
	return &incident, nil
}

// ChangeStatus transitions an incident to the requested status. Unknown
// status values are coerced to Open rather than rejected; resolvedAt is set
// on the first transition into Resolved and cleared on any transition away.
func (s *Service) ChangeStatus(ctx context.Context, id, requestedStatus string) (*domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load incidents: %w", err)
	}

	idx := indexOf(collection, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	incident := &collection[idx]
	newStatus := domain.CoerceStatus(requestedStatus)
	now := time.Now().UTC()

	body := fmt.Sprintf("Status changed from %s to %s", incident.Status, newStatus)
	incident.Status = newStatus
	if newStatus == domain.StatusResolved {
		if incident.ResolvedAt == nil {
			incident.ResolvedAt = &now
		}
	} else {
		// Covers reopen: leaving Resolved always clears the resolution stamp.
		incident.ResolvedAt = nil
	}
	incident.UpdatedAt = now
	incident.Timeline = append(incident.Timeline,
		newTimelineEntry(statusIcon(newStatus), "Status updated", body, now))

	if err := s.repo.ReplaceAll(ctx, collection); err != nil {
		return nil, fmt.Errorf("store incidents: %w", err)
	}

	metrics.IncidentOperationsTotal.WithLabelValues("change_status").Inc()
	return incident, nil
}

// AppendNote appends an immutable context note and refreshes the legacy
// context_text projection.
func (s *Service) AppendNote(ctx context.Context, id, text string) (*domain.Incident, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: note text is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load incidents: %w", err)
	}

	idx := indexOf(collection, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	incident := &collection[idx]
	now := time.Now().UTC()

	incident.ContextNotes = append(incident.ContextNotes, domain.ContextNote{
		ID:        uuid.New().String(),
		Text:      text,
		CreatedAt: now,
	})
	incident.ContextText = legacyContextText(incident.ContextNotes)
	incident.UpdatedAt = now
	incident.Timeline = append(incident.Timeline,
		newTimelineEntry(iconNote, "Note added", text, now))

	if err := s.repo.ReplaceAll(ctx, collection); err != nil {
		return nil, fmt.Errorf("store incidents: %w", err)
	}

	metrics.IncidentOperationsTotal.WithLabelValues("append_note").Inc()
	return incident, nil
}

// Delete removes an incident from the collection. Deleting an absent id is
// a no-op, not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load incidents: %w", err)
	}

	idx := indexOf(collection, id)
	if idx < 0 {
		return nil
	}

	remaining := append(collection[:idx:idx], collection[idx+1:]...)
	if err := s.repo.ReplaceAll(ctx, remaining); err != nil {
		return fmt.Errorf("store incidents: %w", err)
	}

	metrics.IncidentOperationsTotal.WithLabelValues("delete").Inc()
	return nil
}

// GenerateArtifact builds a prompt from the incident's current state, invokes
// the generation collaborator, and appends the sanitized result. Generation
// runs before any write: a failed generation mutates nothing.
func (s *Service) GenerateArtifact(ctx context.Context, id, rawMode string) (*domain.Artifact, error) {
	mode := domain.ArtifactMode(strings.TrimSpace(rawMode))
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown artifact mode %q", ErrValidation, rawMode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load incidents: %w", err)
	}

	idx := indexOf(collection, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	incident := &collection[idx]

	prompt, err := s.prompts.Build(incident, mode)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	start := time.Now()
	raw, err := s.generator.Generate(ctx, prompt, generationMaxTokens)
	metrics.ArtifactGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	text := ai.Sanitize(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: collaborator returned empty text", ErrGeneration)
	}
	text = ai.FinalizeArtifactText(mode, text)

	now := time.Now().UTC()
	artifact := domain.Artifact{
		ID:        uuid.New().String(),
		Type:      mode,
		Title:     ai.ArtifactTitle(mode),
		Text:      text,
		CreatedAt: now,
	}

	incident.AIOutput = append(incident.AIOutput, artifact)
	incident.UpdatedAt = now
	incident.Timeline = append(incident.Timeline,
		newTimelineEntry(iconArtifact, "AI artifact generated", fmt.Sprintf("%s generated", artifact.Title), now))

	if err := s.repo.ReplaceAll(ctx, collection); err != nil {
		return nil, fmt.Errorf("store incidents: %w", err)
	}

	metrics.IncidentOperationsTotal.WithLabelValues("generate_artifact").Inc()
	return &artifact, nil
}

// List returns the full incident collection in insertion order.
func (s *Service) List(ctx context.Context) ([]domain.Incident, error) {
	return s.repo.GetAll(ctx)
}

// Get returns a single incident by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Incident, error) {
	return s.repo.FindByID(ctx, id)
}

// Metrics recomputes aggregate statistics from the current collection.
func (s *Service) Metrics(ctx context.Context) (Metrics, error) {
	collection, err := s.repo.GetAll(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("load incidents: %w", err)
	}
	return ComputeMetrics(collection), nil
}

func newTimelineEntry(icon, title, body string, at time.Time) domain.TimelineEntry {
	return domain.TimelineEntry{
		ID:        uuid.New().String(),
		Icon:      icon,
		Title:     title,
		Body:      body,
		CreatedAt: at,
	}
}

func indexOf(collection []domain.Incident, id string) int {
	for i := range collection {
		if collection[i].ID == id {
			return i
		}
	}
	return -1
}

// legacyContextText renders the trailing notes as "[timestamp] text" lines,
// oldest first. Kept in sync with ContextNotes on every append so older
// consumers of the flat field never drift from the structured list.
func legacyContextText(notes []domain.ContextNote) string {
	start := 0
	if len(notes) > maxSummaryNotes {
		start = len(notes) - maxSummaryNotes
	}

	lines := make([]string, 0, len(notes)-start)
	for _, note := range notes[start:] {
		lines = append(lines, fmt.Sprintf("[%s] %s", note.CreatedAt.UTC().Format(time.RFC3339), note.Text))
	}
	return strings.Join(lines, "\n")
}
