package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/accounts/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	detailNotAuthenticated = "Not authenticated"
	detailInvalidBody      = "Invalid request body"
	detailInvalidUserID    = "Invalid user id"
	detailValidation       = "Validation failed"
	detailInternal         = "Internal server error"
)

type errorBody struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorConflict):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates a service error into a response. Internal details
// go to the log, never to the client.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)

	if status == http.StatusInternalServerError {
		r.logger.Error(req.Context(), "request failed", "path", req.URL.Path, "error", err)
		writeDetail(w, status, detailInternal)
		return
	}

	var verrs validation.Errors
	if status == http.StatusUnprocessableEntity && errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for k, v := range verrs {
			fields[k] = v.Error()
		}
		writeJSON(w, status, errorBody{Detail: detailValidation, Errors: fields})
		return
	}

	writeDetail(w, status, common.Detail(err, http.StatusText(status)))
}

// decode reads a JSON body into dst. It answers 422 itself and returns false
// on malformed input.
func decode(w http.ResponseWriter, req *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20)).Decode(dst); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, detailInvalidBody)
		return false
	}
	return true
}
