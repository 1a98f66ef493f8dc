//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opspulse/incident-desk/internal/testutil"
	"github.com/stretchr/testify/require"
)

// fakeLLM is an OpenAI-compatible chat-completions stub. Tests set the next
// response (or failure) before triggering a generation.
type fakeLLM struct {
	mu         sync.Mutex
	text       string
	failStatus int
	lastPrompt string
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{text: "Generated advisory text."}
}

// Respond makes subsequent generations return text.
func (f *fakeLLM) Respond(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.failStatus = 0
}

// Fail makes subsequent generations return the given HTTP status.
func (f *fakeLLM) Fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
}

// LastPrompt returns the prompt of the most recent generation request.
func (f *fakeLLM) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPrompt
}

func (f *fakeLLM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	if len(req.Messages) > 0 {
		f.lastPrompt = req.Messages[0].Content
	}
	text := f.text
	failStatus := f.failStatus
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if failStatus != 0 {
		w.WriteHeader(failStatus)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "induced failure", "type": "server_error"},
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": text}},
		},
	})
}

// incidentBody mirrors the incident JSON returned by the API.
type incidentBody struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`

	ContextNotes []struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"context_notes"`

	Timeline []struct {
		ID        string    `json:"id"`
		Icon      string    `json:"icon"`
		Title     string    `json:"title"`
		Body      string    `json:"body"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"timeline"`

	AIOutput []artifactBody `json:"ai_output"`

	ContextText string `json:"context_text"`
}

type artifactBody struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type incidentResponse struct {
	Data incidentBody `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// newIncidentID returns an id unique across the shared test database.
func newIncidentID() string {
	return "INC-" + uuid.New().String()[:8]
}

// createTestIncident creates an incident and registers cleanup.
func createTestIncident(t *testing.T, client *testutil.Client, severity string) incidentBody {
	t.Helper()

	id := newIncidentID()
	resp, err := client.POST("/api/v1/incidents", map[string]any{
		"id":          id,
		"title":       fmt.Sprintf("Test incident %s", id),
		"description": "Synthetic incident created by the integration suite",
		"severity":    severity,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result incidentResponse
	testutil.DecodeJSON(t, resp, &result)

	t.Cleanup(func() {
		resp, err := client.DELETE("/api/v1/incidents/" + id)
		if err == nil {
			_ = resp.Body.Close()
		}
	})

	return result.Data
}

func getIncident(t *testing.T, client *testutil.Client, id string) incidentBody {
	t.Helper()

	resp, err := client.GET("/api/v1/incidents/" + id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentResponse
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

func changeStatus(t *testing.T, client *testutil.Client, id, status string) incidentBody {
	t.Helper()

	resp, err := client.PATCH("/api/v1/incidents/"+id+"/status", map[string]any{"status": status})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentResponse
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

func appendNote(t *testing.T, client *testutil.Client, id, text string) incidentBody {
	t.Helper()

	resp, err := client.POST("/api/v1/incidents/"+id+"/notes", map[string]any{"text": text})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result incidentResponse
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}
