//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/opspulse/incident-desk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metricsBody struct {
	Total                int      `json:"total"`
	Open                 int      `json:"open"`
	Resolved             int      `json:"resolved"`
	AvgResolutionSeconds *float64 `json:"avg_resolution_seconds"`
}

func getMetrics(t *testing.T, client *testutil.Client) metricsBody {
	t.Helper()

	resp, err := client.GET("/api/v1/metrics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data metricsBody `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

func TestMetrics(t *testing.T) {
	client := newTestClient(t)
	before := getMetrics(t, client)

	open := createTestIncident(t, client, "high")
	investigating := createTestIncident(t, client, "medium")
	changeStatus(t, client, investigating.ID, "Investigating")
	resolved := createTestIncident(t, client, "low")
	changeStatus(t, client, resolved.ID, "Resolved")

	after := getMetrics(t, client)

	assert.Equal(t, before.Total+3, after.Total)
	assert.Equal(t, before.Open+1, after.Open, "only %s is still Open", open.ID)
	assert.Equal(t, before.Resolved+1, after.Resolved)
	require.NotNil(t, after.AvgResolutionSeconds)
	assert.GreaterOrEqual(t, *after.AvgResolutionSeconds, 0.0)
}

func TestMetrics_ReopeningRemovesFromAverage(t *testing.T) {
	client := newTestClient(t)
	before := getMetrics(t, client)

	incident := createTestIncident(t, client, "high")
	changeStatus(t, client, incident.ID, "Resolved")

	resolved := getMetrics(t, client)
	assert.Equal(t, before.Resolved+1, resolved.Resolved)

	changeStatus(t, client, incident.ID, "Investigating")

	reopened := getMetrics(t, client)
	assert.Equal(t, before.Resolved, reopened.Resolved, "reopened incident no longer counts as resolved")
}

func TestMetrics_JSONOmitsAverageWhenAbsent(t *testing.T) {
	client := newTestClient(t)

	before := getMetrics(t, client)
	if before.Total > 0 {
		t.Skip("collection not empty; absence of the average is covered by unit tests")
	}

	resp, err := client.GET("/api/v1/metrics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := testutil.ReadBody(t, resp)
	assert.NotContains(t, body, "avg_resolution_seconds", "field must be absent, not zero")
}
