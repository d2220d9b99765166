package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ShoMaruoka/color-size-tool/internal/http/response"
)

// EnvelopeVersion is the version written to the "v" field of every response.
const EnvelopeVersion = response.Version

// APIEnvelope wraps successful responses and uncoded errors.
type APIEnvelope = response.Envelope //nolint:revive // API prefix is intentional for clarity

// APIErrorEnvelope wraps coded errors.
type APIErrorEnvelope = response.ErrorEnvelope //nolint:revive // API prefix is intentional for clarity

// EnvelopeTransformer wraps every huma response body in the envelope.
// Register it through huma.Config.Transformers.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	var apiErr *APIError
	if err, ok := v.(error); ok && errors.As(err, &apiErr) {
		if apiErr.Code == "" {
			return APIEnvelope{Version: EnvelopeVersion, Error: apiErr.Message}, nil
		}
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	if err, ok := v.(error); ok {
		return APIEnvelope{Version: EnvelopeVersion, Error: err.Error()}, nil
	}

	return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
}
