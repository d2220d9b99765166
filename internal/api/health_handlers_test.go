package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, defaultEntries())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeData[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["table"].Status)
	assert.Equal(t, "healthy", health.Components["session"].Status)
	assert.Equal(t, ts.table.Version(), health.TableVersion)
}

func TestHealthCheck_DegradedWhenTableCorrupt(t *testing.T) {
	ts := setupTestServer(t, []domain.ConversionEntry{
		seedEntry("seed-1", domain.KindColor, "red", 1),
		seedEntry("seed-2", domain.KindColor, "red", 7),
	})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeData[HealthResponse](t, resp)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "degraded", health.Components["table"].Status)
	assert.Contains(t, health.Components["table"].Message, "1 duplicate")
}

func TestHealthCheck_StaleRulesetIsInformational(t *testing.T) {
	old := seedEntry("seed-old", domain.KindColor, "red", 1)
	old.RulesetVersion = 0
	ts := setupTestServer(t, []domain.ConversionEntry{old})

	health := decodeData[HealthResponse](t, ts.api.Get("/health"))
	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Components["table"].Message, "older normalization ruleset")
}
