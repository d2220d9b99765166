package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
)

func batch() []domain.ProductRecord {
	return []domain.ProductRecord{
		domain.NewProductRecord("P-1", "レッド", "M"),
		domain.NewProductRecord("P-2", "ﾚｯﾄﾞ", "XL"),
		domain.NewProductRecord("P-3", "グリーン", "Ｌ"),
	}
}

func TestSessionWorkflow(t *testing.T) {
	ts := setupTestServer(t, defaultEntries(), batch()...)

	resp := ts.api.Post("/api/v1/load", map[string]any{"key_pattern": "P-*", "limit": 10})
	require.Equal(t, http.StatusOK, resp.Code)
	loaded := decodeData[LoadResponse](t, resp)
	assert.Equal(t, 3, loaded.Loaded)
	assert.Equal(t, ts.session.ID(), loaded.SessionID)
	require.Len(t, ts.loader.filters, 1)
	assert.Equal(t, "P-*", ts.loader.filters[0].KeyPattern)
	assert.Equal(t, 10, ts.loader.filters[0].Limit)

	resp = ts.api.Post("/api/v1/resolve")
	require.Equal(t, http.StatusOK, resp.Code)
	sum := decodeData[domain.Summary](t, resp)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Resolved)
	assert.Equal(t, 2, sum.Partial)

	exc := decodeData[ExceptionsResponse](t, ts.api.Get("/api/v1/exceptions"))
	assert.False(t, exc.Blocked)
	require.Len(t, exc.Exceptions, 2)
	assert.Equal(t, "P-2", exc.Exceptions[0].ProductKey)
	assert.Equal(t, domain.KindSize, exc.Exceptions[0].Kind)
	assert.Equal(t, "P-3", exc.Exceptions[1].ProductKey)
	assert.Equal(t, domain.KindColor, exc.Exceptions[1].Kind)

	resp = ts.api.Post("/api/v1/edits", map[string]any{
		"edits": []map[string]any{
			{"kind": "size", "name": "XL", "id": 4},
			{"kind": "COLOR", "name": "グリーン", "id": 1},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	edits := decodeData[ApplyEditsResponse](t, resp)
	assert.Equal(t, 1, edits.Applied)
	require.Len(t, edits.Rejected, 1)
	assert.Equal(t, "DUPLICATE_KEY", edits.Rejected[0].Code)
	require.Len(t, edits.Entries, 1)
	assert.Equal(t, "xl", edits.Entries[0].Canonical)
	assert.Equal(t, "OPERATOR", edits.Entries[0].Source)
	assert.Equal(t, 2, edits.Summary.Resolved)

	results := decodeData[ResultsResponse](t, ts.api.Get("/api/v1/results?status=PARTIAL"))
	require.Len(t, results.Results, 1)
	assert.Equal(t, "P-3", results.Results[0].ProductKey)
	assert.Nil(t, results.Results[0].ColorID)

	resp = ts.api.Post("/api/v1/overrides", map[string]any{"product_keys": []string{"P-3"}})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, decodeData[domain.Summary](t, resp).Overridden)

	resp = ts.api.Post("/api/v1/commit")
	require.Equal(t, http.StatusOK, resp.Code)
	commit := decodeData[CommitResponse](t, resp)
	assert.Equal(t, 3, commit.Written)

	require.Len(t, ts.writer.written, 3)
	assert.Equal(t, "P-1", ts.writer.written[0].ProductKey)
	assert.Equal(t, domain.StatusResolved, ts.writer.written[1].Status)
	assert.Equal(t, domain.StatusPartial, ts.writer.written[2].Status)
}

func TestLoad_SourceFailure(t *testing.T) {
	ts := setupTestServer(t, defaultEntries(), batch()...)
	ts.loader.err = errors.New("source unavailable")

	resp := ts.api.Post("/api/v1/load", map[string]any{})
	require.Equal(t, http.StatusInternalServerError, resp.Code)

	sum := decodeData[domain.Summary](t, ts.api.Get("/api/v1/summary"))
	assert.Zero(t, sum.Total)
}

func TestOverrides_Errors(t *testing.T) {
	ts := setupTestServer(t, defaultEntries(), batch()...)

	resp := ts.api.Post("/api/v1/overrides", map[string]any{"product_keys": []string{"P-1"}})
	require.Equal(t, http.StatusBadRequest, resp.Code, "overrides need a resolved batch")
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)

	require.Equal(t, http.StatusOK, ts.api.Post("/api/v1/load", map[string]any{}).Code)
	require.Equal(t, http.StatusOK, ts.api.Post("/api/v1/resolve").Code)

	resp = ts.api.Post("/api/v1/overrides", map[string]any{"product_keys": []string{"P-404"}})
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Post("/api/v1/overrides", map[string]any{"product_keys": []string{}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
}

func TestApplyEdits_UnknownKindRejectedAlone(t *testing.T) {
	ts := setupTestServer(t, defaultEntries())

	resp := ts.api.Post("/api/v1/edits", map[string]any{
		"edits": []map[string]any{
			{"kind": "WEIGHT", "name": "heavy", "id": 1},
			{"kind": "SIZE", "name": "S", "id": 1},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	edits := decodeData[ApplyEditsResponse](t, resp)
	assert.Equal(t, 1, edits.Applied)
	require.Len(t, edits.Rejected, 1)
	assert.Equal(t, "VALIDATION", edits.Rejected[0].Code)
}

func TestCommit_BeforeResolve(t *testing.T) {
	ts := setupTestServer(t, defaultEntries())

	resp := ts.api.Post("/api/v1/commit")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, ts.writer.written)
}
