package core

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// JSONResponse is the standard JSON envelope for API responses.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries error information in a JSON error body.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON creates a 200 response wrapping data in the standard envelope.
func JSON(data any) Response {
	return jsonResponse{status: http.StatusOK, body: JSONResponse{Data: data}}
}

// JSONStatus creates a JSON response with an explicit status code and raw body.
func JSONStatus(status int, body any) Response {
	return jsonResponse{status: status, body: body}
}

// JSONError translates an error into a JSON error response. HTTPError values
// keep their status code and key; everything else becomes a 500.
func JSONError(err error) Response {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{Code: "internal_server_error", Message: err.Error()}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		detail.Code = httpErr.Key
		detail.Message = http.StatusText(httpErr.Code)
	}

	return jsonResponse{status: status, body: JSONResponse{Error: detail}}
}

// WriteJSON is a convenience for handlers that render directly without
// the Response indirection (webhook endpoints).
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
