//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/opspulse/incident-desk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIncident(t *testing.T) {
	client := newTestClient(t)

	id := newIncidentID()
	resp, err := client.POST("/api/v1/incidents", map[string]any{
		"id":          id,
		"title":       "Checkout latency",
		"description": "p99 latency above SLO on checkout",
		"severity":    "high",
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

	incident := result.Data
	assert.Equal(t, id, incident.ID)
	assert.Equal(t, "High", incident.Severity, "severity is stored capitalized")
	assert.Equal(t, "Open", incident.Status)
	assert.Nil(t, incident.ResolvedAt)
	assert.Empty(t, incident.ContextNotes)
	assert.Empty(t, incident.AIOutput)

	require.Len(t, incident.Timeline, 1)
	assert.Equal(t, "Incident created", incident.Timeline[0].Title)
	assert.Equal(t, "High severity incident reported", incident.Timeline[0].Body)
}

func TestCreateIncident_DuplicateID(t *testing.T) {
	client := newTestClient(t)
	incident := createTestIncident(t, client, "low")

	resp, err := client.POST("/api/v1/incidents", map[string]any{
		"id":          incident.ID,
		"title":       "Another title",
		"description": "Another description",
		"severity":    "high",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var result errorResponse
	testutil.DecodeJSON(t, resp, &result)
	assert.NotEmpty(t, result.Error.Message)

	// Original incident untouched
	stored := getIncident(t, client, incident.ID)
	assert.Equal(t, incident.Title, stored.Title)
	assert.Equal(t, "Low", stored.Severity)
}

func TestCreateIncident_MissingFields(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.POST("/api/v1/incidents", map[string]any{
		"id":       newIncidentID(),
		"severity": "high",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateIncident_UnknownSeverity(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.POST("/api/v1/incidents", map[string]any{
		"id":          newIncidentID(),
		"title":       "Checkout latency",
		"description": "p99 latency above SLO",
		"severity":    "catastrophic",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListIncidents(t *testing.T) {
	client := newTestClient(t)

	first := createTestIncident(t, client, "high")
	second := createTestIncident(t, client, "low")

	resp, err := client.GET("/api/v1/incidents")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []incidentBody `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	firstIdx, secondIdx := -1, -1
	for i, incident := range result.Data {
		switch incident.ID {
		case first.ID:
			firstIdx = i
		case second.ID:
			secondIdx = i
		}
	}
	require.NotEqual(t, -1, firstIdx, "first incident should be listed")
	require.NotEqual(t, -1, secondIdx, "second incident should be listed")
	assert.Less(t, firstIdx, secondIdx, "insertion order is preserved")
}

func TestGetIncident_NotFound(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/v1/incidents/" + newIncidentID())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteIncident(t *testing.T) {
	client := newTestClient(t)
	incident := createTestIncident(t, client, "medium")

	resp, err := client.DELETE("/api/v1/incidents/" + incident.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = client.GET("/api/v1/incidents/" + incident.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestDeleteIncident_AbsentIsIdempotent(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.DELETE("/api/v1/incidents/" + newIncidentID())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()
}
