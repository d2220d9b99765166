package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	domainerrors "github.com/ShoMaruoka/color-size-tool/internal/errors"
)

func (s *Server) registerEntryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listEntries",
		Method:      http.MethodGet,
		Path:        "/api/v1/entries",
		Summary:     "List conversion entries",
		Description: "Returns active conversion entries, optionally filtered by kind and including superseded history",
		Tags:        []string{"Entries"},
	}, s.handleListEntries)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEntry",
		Method:      http.MethodGet,
		Path:        "/api/v1/entries/{entryID}",
		Summary:     "Get conversion entry",
		Description: "Returns a conversion entry by its handle, active or superseded",
		Tags:        []string{"Entries"},
	}, s.handleGetEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "deactivateEntry",
		Method:      http.MethodPost,
		Path:        "/api/v1/entries/{entryID}/deactivate",
		Summary:     "Deactivate conversion entry",
		Description: "Retires an entry without replacement. Allowed while the table is corrupt so duplicates can be removed",
		Tags:        []string{"Entries"},
	}, s.handleDeactivateEntry)
}

// === DTOs ===

// ListEntriesInput contains parameters for listing entries.
type ListEntriesInput struct {
	Kind              string `query:"kind" doc:"COLOR or SIZE (case-insensitive); empty lists both"`
	IncludeSuperseded bool   `query:"includeSuperseded" doc:"Include superseded and deactivated entries"`
}

// EntryResponse contains conversion entry data in API responses.
type EntryResponse struct {
	EntryID        string     `json:"entry_id" doc:"Entry handle"`
	Kind           string     `json:"kind" doc:"COLOR or SIZE"`
	Canonical      string     `json:"canonical" doc:"Normalized name"`
	ID             int64      `json:"id" doc:"Canonical numeric ID"`
	Label          string     `json:"label,omitempty" doc:"Display name"`
	RulesetVersion int        `json:"ruleset_version" doc:"Normalization ruleset the canonical was produced with"`
	Source         string     `json:"source" doc:"SYSTEM or OPERATOR"`
	Active         bool       `json:"active" doc:"Whether the entry takes part in lookups"`
	CreatedAt      time.Time  `json:"created_at" doc:"Creation time"`
	UpdatedAt      time.Time  `json:"updated_at" doc:"Last update time"`
	SupersededAt   *time.Time `json:"superseded_at,omitempty" doc:"When the entry was retired"`
	SupersededBy   string     `json:"superseded_by,omitempty" doc:"Replacing entry, empty when deactivated"`
}

// ListEntriesResponse contains a list of entries.
type ListEntriesResponse struct {
	TableVersion uint64          `json:"table_version" doc:"Table version the list was read at"`
	Entries      []EntryResponse `json:"entries" doc:"Conversion entries"`
}

// ListEntriesOutput wraps the list entries response for Huma.
type ListEntriesOutput struct {
	Body ListEntriesResponse
}

// EntryInput identifies an entry by handle.
type EntryInput struct {
	EntryID string `path:"entryID" doc:"Entry handle"`
}

// EntryOutput wraps the entry response for Huma.
type EntryOutput struct {
	Body EntryResponse
}

// === Handlers ===

func (s *Server) handleListEntries(_ context.Context, input *ListEntriesInput) (*ListEntriesOutput, error) {
	var kind domain.AttributeKind
	if input.Kind != "" {
		k, err := domain.ParseKind(input.Kind)
		if err != nil {
			return nil, domainerrors.Validation(err.Error())
		}
		kind = k
	}

	version := s.table.Version()
	entries := s.table.Entries(input.IncludeSuperseded)

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		if kind != "" && e.Kind != kind {
			continue
		}
		resp = append(resp, toEntryResponse(e))
	}

	return &ListEntriesOutput{Body: ListEntriesResponse{TableVersion: version, Entries: resp}}, nil
}

func (s *Server) handleGetEntry(_ context.Context, input *EntryInput) (*EntryOutput, error) {
	entry, ok := s.table.Get(input.EntryID)
	if !ok {
		return nil, domainerrors.NotFoundf("entry %q not found", input.EntryID)
	}
	return &EntryOutput{Body: toEntryResponse(entry)}, nil
}

func (s *Server) handleDeactivateEntry(ctx context.Context, input *EntryInput) (*EntryOutput, error) {
	entry, err := s.session.Deactivate(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}
	return &EntryOutput{Body: toEntryResponse(entry)}, nil
}

func toEntryResponse(e domain.ConversionEntry) EntryResponse {
	return EntryResponse{
		EntryID:        e.EntryID,
		Kind:           string(e.Kind),
		Canonical:      e.Canonical,
		ID:             e.ID,
		Label:          e.Label,
		RulesetVersion: e.RulesetVersion,
		Source:         string(e.Source),
		Active:         e.Active(),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		SupersededAt:   e.SupersededAt,
		SupersededBy:   e.SupersededBy,
	}
}
