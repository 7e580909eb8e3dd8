package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"financeiro/internal/finance"
)

// maxLedgerBytes bounds PUT /api/ledger bodies.
const maxLedgerBytes = 10 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// PeriodQuery holds the optional ?start=&end= bounds of a report request.
type PeriodQuery struct {
	Start string `validate:"omitempty,datetime=2006-01-02|datetime=2006-01-02T15:04:05Z07:00"`
	End   string `validate:"omitempty,datetime=2006-01-02|datetime=2006-01-02T15:04:05Z07:00"`
}

// HistoryQuery holds the ?limit= of a history request.
type HistoryQuery struct {
	Limit int `validate:"gte=0,lte=500"`
}

// RequestError is a client error with per-parameter details.
type RequestError struct {
	Message string
	Fields  map[string]string
}

func (e *RequestError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// ParsePeriodQuery validates the optional date bounds and builds the
// report period. Both bounds missing means all time.
func ParsePeriodQuery(query url.Values) (finance.Period, error) {
	q := PeriodQuery{
		Start: strings.TrimSpace(query.Get("start")),
		End:   strings.TrimSpace(query.Get("end")),
	}
	if err := validate.Struct(q); err != nil {
		return finance.Period{}, toRequestError(err)
	}
	p, err := finance.ParsePeriod(q.Start, q.End)
	if err != nil {
		return finance.Period{}, &RequestError{Message: err.Error()}
	}
	return p, nil
}

// ParseHistoryQuery reads ?limit=, defaulting to 0 (the store's default).
func ParseHistoryQuery(query url.Values) (HistoryQuery, error) {
	var q HistoryQuery
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, &RequestError{Message: "invalid query", Fields: map[string]string{"limit": "must be a number"}}
		}
		q.Limit = n
	}
	if err := validate.Struct(q); err != nil {
		return q, toRequestError(err)
	}
	return q, nil
}

// ReadLedgerBody reads a ledger document from the request body.
func ReadLedgerBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxLedgerBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &RequestError{Message: fmt.Sprintf("ledger document exceeds %d bytes", tooLarge.Limit)}
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &RequestError{Message: "empty ledger document"}
	}
	return body, nil
}

func toRequestError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{Message: err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = describe(fe)
	}
	return &RequestError{Message: "invalid query", Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch tag := fe.Tag(); {
	case strings.HasPrefix(tag, "datetime"):
		return "must be a date (YYYY-MM-DD or RFC 3339)"
	case tag == "gte":
		return "must be at least " + fe.Param()
	case tag == "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + tag
	}
}
