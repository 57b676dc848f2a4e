package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mandirapp/daily-darshan/internal/domain"
	"github.com/mandirapp/daily-darshan/internal/transport/web/mw"
)

// MapDomainError resolves the HTTP status + error.code/text for the envelope
func MapDomainError(err error) (httpStatus int, env domain.APIEnvelope) {
	switch {
	case errors.Is(err, domain.ErrBadParams):
		return http.StatusBadRequest, domain.Fail(domain.ErrCodeBadParams, "bad params")
	case errors.Is(err, domain.ErrUnauth):
		return http.StatusUnauthorized, domain.Fail(domain.ErrCodeUnauth, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.Fail(domain.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.Fail(domain.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, domain.Fail(domain.ErrCodeMethodNotAllowed, "method not allowed")
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, domain.Fail(domain.ErrCodeConflict, "conflict")
	default:
		return http.StatusInternalServerError, domain.Fail(domain.ErrCodeUnexpected, "unexpected")
	}
}

// WriteEnvelope writes the envelope; HEAD gets headers only
func WriteEnvelope(w http.ResponseWriter, r *http.Request, status int, env domain.APIEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", mw.RequestIDFromCtx(r.Context()))
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(env)
}

// Success shortcuts
func WriteOKData(w http.ResponseWriter, r *http.Request, data any) {
	WriteEnvelope(w, r, http.StatusOK, domain.OkData(data))
}
func WriteCreatedData(w http.ResponseWriter, r *http.Request, data any) {
	WriteEnvelope(w, r, http.StatusCreated, domain.OkData(data))
}
func WriteOKResponse(w http.ResponseWriter, r *http.Request, resp any) {
	WriteEnvelope(w, r, http.StatusOK, domain.OkResponse(resp))
}

// Error shortcut
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, env := MapDomainError(err)
	WriteEnvelope(w, r, status, env)
}
