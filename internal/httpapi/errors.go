package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-catalog-cache/repository"
	"github.com/goliatone/go-catalog-cache/specification"
)

var (
	errMalformedBody        = errors.New("malformed request body")
	errUnsupportedMediaType = errors.New("unsupported media type")
	errInvalidID            = errors.New("id must be a positive integer")
	errItemNotFound         = errors.New("item not found")
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status        int      `json:"status" msgpack:"status"`
	Message       string   `json:"message" msgpack:"message"`
	CorrelationID string   `json:"correlationId,omitempty" msgpack:"correlationId,omitempty"`
	Errors        []string `json:"errors,omitempty" msgpack:"errors,omitempty"`
}

// writeError maps err to a status and writes the error body. Server errors
// are logged with the request logger; caller errors at warn level.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{CorrelationID: CorrelationID(r.Context())}
	logger := loggerFrom(r)

	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		resp.Status = http.StatusBadRequest
		resp.Message = "Validation failed."
		resp.Errors = flatten("", verrs)
	case errors.Is(err, specification.ErrInvalidPage),
		errors.Is(err, specification.ErrInvalidCondition),
		errors.Is(err, repository.ErrMissingID),
		errors.Is(err, errInvalidID),
		errors.Is(err, errMalformedBody):
		resp.Status = http.StatusBadRequest
		resp.Message = "Validation failed."
		resp.Errors = []string{err.Error()}
	case errors.Is(err, errUnsupportedMediaType):
		resp.Status = http.StatusUnsupportedMediaType
		resp.Message = err.Error()
	case errors.Is(err, errItemNotFound), errors.Is(err, repository.ErrNotFound):
		resp.Status = http.StatusNotFound
		resp.Message = "Item not found."
	default:
		resp.Status = http.StatusInternalServerError
		resp.Message = "An unexpected error occurred."
	}

	if resp.Status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Warn().Err(err).Int("status", resp.Status).Strs("errors", resp.Errors).Msg("request rejected")
	}

	write(w, r, resp.Status, resp)
}

// flatten renders nested ozzo errors as sorted "field: message" lines.
func flatten(prefix string, errs validation.Errors) []string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}

		var nested validation.Errors
		if errors.As(errs[k], &nested) {
			out = append(out, flatten(name, nested)...)
			continue
		}
		out = append(out, fmt.Sprintf("%s: %v", name, errs[k]))
	}
	return out
}
