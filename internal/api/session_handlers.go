package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "loadProducts",
		Method:      http.MethodPost,
		Path:        "/api/v1/load",
		Summary:     "Load products",
		Description: "Fetches a product batch from the source. A failed load keeps the previous batch",
		Tags:        []string{"Session"},
	}, s.handleLoad)

	huma.Register(s.api, huma.Operation{
		OperationID: "resolveBatch",
		Method:      http.MethodPost,
		Path:        "/api/v1/resolve",
		Summary:     "Resolve batch",
		Description: "Resolves the loaded batch against a snapshot of the conversion table",
		Tags:        []string{"Session"},
	}, s.handleResolve)

	huma.Register(s.api, huma.Operation{
		OperationID: "listExceptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/exceptions",
		Summary:     "List exceptions",
		Description: "Returns the names that could not be resolved in the current batch",
		Tags:        []string{"Session"},
	}, s.handleListExceptions)

	huma.Register(s.api, huma.Operation{
		OperationID: "listResults",
		Method:      http.MethodGet,
		Path:        "/api/v1/results",
		Summary:     "List results",
		Description: "Returns resolved records of the current batch in input order",
		Tags:        []string{"Session"},
	}, s.handleListResults)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSummary",
		Method:      http.MethodGet,
		Path:        "/api/v1/summary",
		Summary:     "Get summary",
		Description: "Returns status counts and the conversion rate of the current batch",
		Tags:        []string{"Session"},
	}, s.handleGetSummary)

	huma.Register(s.api, huma.Operation{
		OperationID: "applyEdits",
		Method:      http.MethodPost,
		Path:        "/api/v1/edits",
		Summary:     "Apply table edits",
		Description: "Applies edits in order, reports rejected ones, and re-resolves records with exceptions",
		Tags:        []string{"Session"},
	}, s.handleApplyEdits)

	huma.Register(s.api, huma.Operation{
		OperationID: "acceptOverrides",
		Method:      http.MethodPost,
		Path:        "/api/v1/overrides",
		Summary:     "Accept overrides",
		Description: "Marks PARTIAL or UNRESOLVED records as accepted for writing",
		Tags:        []string{"Session"},
	}, s.handleOverrides)

	huma.Register(s.api, huma.Operation{
		OperationID: "commitBatch",
		Method:      http.MethodPost,
		Path:        "/api/v1/commit",
		Summary:     "Commit batch",
		Description: "Writes RESOLVED and overridden records to the product store",
		Tags:        []string{"Session"},
	}, s.handleCommit)
}

// === DTOs ===

// LoadRequest narrows the products to load. Patterns use * as a wildcard.
type LoadRequest struct {
	UpdatedFrom  *time.Time `json:"updated_from,omitempty" doc:"Lower bound on product update time"`
	UpdatedTo    *time.Time `json:"updated_to,omitempty" doc:"Upper bound on product update time"`
	KeyPattern   string     `json:"key_pattern,omitempty" doc:"Product key pattern"`
	ColorPattern string     `json:"color_pattern,omitempty" doc:"Color name pattern"`
	SizePattern  string     `json:"size_pattern,omitempty" doc:"Size name pattern"`
	HasColorID   *bool      `json:"has_color_id,omitempty" doc:"Filter on a previously written color ID"`
	HasSizeID    *bool      `json:"has_size_id,omitempty" doc:"Filter on a previously written size ID"`
	Limit        int        `json:"limit,omitempty" minimum:"0" doc:"Maximum products to load"`
	Offset       int        `json:"offset,omitempty" minimum:"0" doc:"Products to skip"`
}

// LoadInput wraps the load request for Huma.
type LoadInput struct {
	Body LoadRequest
}

// LoadResponse reports how many products were loaded.
type LoadResponse struct {
	SessionID string `json:"session_id" doc:"Session identifier"`
	Loaded    int    `json:"loaded" doc:"Products in the batch"`
}

// LoadOutput wraps the load response for Huma.
type LoadOutput struct {
	Body LoadResponse
}

// SummaryOutput wraps the batch summary for Huma.
type SummaryOutput struct {
	Body domain.Summary
}

// ExceptionsResponse contains the exceptions of the current batch.
type ExceptionsResponse struct {
	Blocked    bool                         `json:"blocked" doc:"True when an AMBIGUOUS lookup blocks the session"`
	Exceptions []domain.ResolutionException `json:"exceptions" doc:"Unresolved names"`
}

// ExceptionsOutput wraps the exceptions response for Huma.
type ExceptionsOutput struct {
	Body ExceptionsResponse
}

// ListResultsInput filters results by status.
type ListResultsInput struct {
	Status string `query:"status" enum:"RESOLVED,PARTIAL,UNRESOLVED" doc:"Only return records with this status"`
}

// ResultsResponse contains resolved records.
type ResultsResponse struct {
	Results []domain.ResolvedRecord `json:"results" doc:"Resolved records in input order"`
}

// ResultsOutput wraps the results response for Huma.
type ResultsOutput struct {
	Body ResultsResponse
}

// EditRequest is one table edit. Set target_entry_id to correct an existing entry.
type EditRequest struct {
	Kind          string `json:"kind" doc:"COLOR or SIZE (case-insensitive)"`
	Name          string `json:"name" doc:"Raw name to map"`
	ID            int64  `json:"id,omitempty" doc:"Canonical ID for a new entry"`
	TargetEntryID string `json:"target_entry_id,omitempty" doc:"Entry to correct"`
	Label         string `json:"label,omitempty" doc:"Display name"`
}

// ApplyEditsRequest is the request body for applying edits.
type ApplyEditsRequest struct {
	Edits []EditRequest `json:"edits" minItems:"1" doc:"Edits applied in order"`
}

// ApplyEditsInput wraps the apply edits request for Huma.
type ApplyEditsInput struct {
	Body ApplyEditsRequest
}

// ApplyEditsResponse reports the outcome of an edit batch.
type ApplyEditsResponse struct {
	Applied  int                    `json:"applied" doc:"Edits applied"`
	Rejected []domain.EditRejection `json:"rejected" doc:"Edits rejected with their reasons"`
	Entries  []EntryResponse        `json:"entries" doc:"Entries created by applied edits"`
	Summary  domain.Summary         `json:"summary" doc:"Batch summary after re-resolution"`
}

// ApplyEditsOutput wraps the apply edits response for Huma.
type ApplyEditsOutput struct {
	Body ApplyEditsResponse
}

// OverridesRequest lists products accepted despite missing IDs.
type OverridesRequest struct {
	ProductKeys []string `json:"product_keys" minItems:"1" doc:"Product keys to accept"`
}

// OverridesInput wraps the overrides request for Huma.
type OverridesInput struct {
	Body OverridesRequest
}

// CommitResponse reports how many records were written.
type CommitResponse struct {
	Written int            `json:"written" doc:"Records handed to the writer"`
	Summary domain.Summary `json:"summary" doc:"Batch summary"`
}

// CommitOutput wraps the commit response for Huma.
type CommitOutput struct {
	Body CommitResponse
}

// === Handlers ===

func (s *Server) handleLoad(ctx context.Context, input *LoadInput) (*LoadOutput, error) {
	req := input.Body
	n, err := s.session.Load(ctx, domain.ProductFilter{
		UpdatedFrom:  req.UpdatedFrom,
		UpdatedTo:    req.UpdatedTo,
		KeyPattern:   req.KeyPattern,
		ColorPattern: req.ColorPattern,
		SizePattern:  req.SizePattern,
		HasColorID:   req.HasColorID,
		HasSizeID:    req.HasSizeID,
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
	if err != nil {
		return nil, err
	}

	return &LoadOutput{Body: LoadResponse{SessionID: s.session.ID(), Loaded: n}}, nil
}

func (s *Server) handleResolve(ctx context.Context, _ *struct{}) (*SummaryOutput, error) {
	sum, err := s.session.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return &SummaryOutput{Body: sum}, nil
}

func (s *Server) handleListExceptions(_ context.Context, _ *struct{}) (*ExceptionsOutput, error) {
	exceptions := s.session.Exceptions()
	if exceptions == nil {
		exceptions = []domain.ResolutionException{}
	}
	return &ExceptionsOutput{
		Body: ExceptionsResponse{Blocked: s.session.Blocked(), Exceptions: exceptions},
	}, nil
}

func (s *Server) handleListResults(_ context.Context, input *ListResultsInput) (*ResultsOutput, error) {
	results := s.session.Results()

	filtered := make([]domain.ResolvedRecord, 0, len(results))
	for _, rec := range results {
		if input.Status == "" || string(rec.Status) == input.Status {
			filtered = append(filtered, rec)
		}
	}

	return &ResultsOutput{Body: ResultsResponse{Results: filtered}}, nil
}

func (s *Server) handleGetSummary(_ context.Context, _ *struct{}) (*SummaryOutput, error) {
	return &SummaryOutput{Body: s.session.Summary()}, nil
}

func (s *Server) handleApplyEdits(ctx context.Context, input *ApplyEditsInput) (*ApplyEditsOutput, error) {
	edits := make([]domain.Edit, len(input.Body.Edits))
	for i, e := range input.Body.Edits {
		kind, err := domain.ParseKind(e.Kind)
		if err != nil {
			// Left as-is so the editor rejects this edit alone.
			kind = domain.AttributeKind(e.Kind)
		}
		edits[i] = domain.Edit{
			Kind:          kind,
			Name:          e.Name,
			ID:            e.ID,
			TargetEntryID: e.TargetEntryID,
			Label:         e.Label,
		}
	}

	result, err := s.session.ApplyEdits(ctx, edits)
	if err != nil {
		return nil, err
	}

	entries := make([]EntryResponse, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = toEntryResponse(e)
	}
	return &ApplyEditsOutput{
		Body: ApplyEditsResponse{
			Applied:  result.Applied,
			Rejected: result.Rejected,
			Entries:  entries,
			Summary:  s.session.Summary(),
		},
	}, nil
}

func (s *Server) handleOverrides(_ context.Context, input *OverridesInput) (*SummaryOutput, error) {
	if err := s.session.Override(input.Body.ProductKeys...); err != nil {
		return nil, err
	}
	return &SummaryOutput{Body: s.session.Summary()}, nil
}

func (s *Server) handleCommit(ctx context.Context, _ *struct{}) (*CommitOutput, error) {
	written, err := s.session.Commit(ctx)
	if err != nil {
		return nil, err
	}
	return &CommitOutput{Body: CommitResponse{Written: written, Summary: s.session.Summary()}}, nil
}
