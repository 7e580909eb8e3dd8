package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// ResponseBuilder provides a fluent API for JSON and binary responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	raw        []byte
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets a value to be encoded as the body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	b.raw = nil
	return b
}

// Bytes sets a raw body with its content type.
func (b *ResponseBuilder) Bytes(contentType string, body []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.raw = body
	b.payload = nil
	return b
}

// Revision exposes the ledger revision a response was computed from.
func (b *ResponseBuilder) Revision(rev int64) *ResponseBuilder {
	return b.Header("X-Ledger-Revision", strconv.FormatInt(rev, 10))
}

// Write sends the built response. Encoding happens before the status is
// written so a marshal failure still yields a 500.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	body := b.raw
	if b.payload != nil {
		encoded, err := json.Marshal(b.payload)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
			return
		}
		body = append(encoded, '\n')
		if _, ok := b.headers["Content-Type"]; !ok {
			b.headers["Content-Type"] = "application/json"
		}
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// ErrorResponse builds a JSON error with an optional per-field breakdown.
func ErrorResponse(statusCode int, message string, fields map[string]string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		JSON(ErrorBody{Error: message, Fields: fields})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message, nil)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message, nil)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message, nil)
}

func TooManyRequestsError() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later", nil)
}
