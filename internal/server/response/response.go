// Package response writes HTTP responses for the modelcast server.
//
// Catalog payloads are written verbatim as the JSON the operator published
// so existing clients can consume them unchanged. Errors and operational
// endpoints use an envelope with a data field and an error field.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
)

// Response is the envelope used for errors and operational endpoints.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error is an API error with a machine readable code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success creates a successful envelope.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error envelope.
func Fail(code, message, details string) Response {
	return Response{
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// JSON writes resp with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	Value(w, status, resp)
}

// Value writes v as JSON without an envelope.
func Value(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing useful can be done on failure.
	_ = json.NewEncoder(w).Encode(v)
}

// Raw writes pre-encoded JSON bytes.
func Raw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// OK writes a 200 envelope.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// BadRequest writes a 400 error.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// NotFound writes a 404 error.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// MethodNotAllowed writes a 405 error and the Allow header.
func MethodNotAllowed(w http.ResponseWriter, method string, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// PayloadTooLarge writes a 413 error.
func PayloadTooLarge(w http.ResponseWriter, details string) {
	JSON(w, http.StatusRequestEntityTooLarge, Fail("PAYLOAD_TOO_LARGE", "Request body too large", details))
}

// RateLimited writes a 429 error.
func RateLimited(w http.ResponseWriter, details string) {
	JSON(w, http.StatusTooManyRequests, Fail("RATE_LIMITED", "Rate limit exceeded", details))
}

// InternalError writes a 500 error. The cause is not exposed to the client;
// callers log it.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// ServiceUnavailable writes a 503 error.
func ServiceUnavailable(w http.ResponseWriter, details string) {
	JSON(w, http.StatusServiceUnavailable, Fail("SERVICE_UNAVAILABLE", "Service unavailable", details))
}

// ErrorFromType maps typed errors to HTTP responses.
func ErrorFromType(w http.ResponseWriter, err error) {
	var (
		validation *pkgerrors.ValidationError
		parse      *pkgerrors.ParseError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		PayloadTooLarge(w, err.Error())
	case errors.As(err, &validation):
		BadRequest(w, "Invalid request", validation.Error())
	case errors.As(err, &parse):
		BadRequest(w, "Malformed request body", parse.Message)
	case pkgerrors.IsClosed(err):
		ServiceUnavailable(w, "Server is shutting down")
	default:
		InternalError(w, err)
	}
}
