package common

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Reasons []string `json:"reasons,omitempty"`
}

// HandleError writes the error as a JSON document. Errors which are neither
// HTTPError nor UserFacingError are logged and hidden behind a 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		statusCode = httpErr.StatusCode()
	}

	res := ErrorResponse{
		Error: http.StatusText(statusCode),
	}

	var userFacingErr UserFacingError
	if errors.As(err, &userFacingErr) {
		res.Error = userFacingErr.Error()
		res.Reasons = []string{userFacingErr.UserMessage()}
	}

	if httpErr == nil && userFacingErr == nil {
		slog.ErrorContext(r.Context(), "unexpected error", slogx.Error(errors.WithStack(err)))
	}

	WriteJSON(w, r, statusCode, res)
}

func WriteJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	WriteJSONAs(w, r, "application/json", statusCode, v)
}

// WriteJSONAs writes a JSON document with the given media type.
func WriteJSONAs(w http.ResponseWriter, r *http.Request, contentType string, statusCode int, v any) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", " ")

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)

	if err := encoder.Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "could not encode response", slogx.Error(errors.WithStack(err)))
	}
}
