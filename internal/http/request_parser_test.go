package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParsePeriodQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantErr   bool
		wantField string
		bounded   bool
	}{
		{name: "no bounds", query: url.Values{}},
		{name: "dates", query: url.Values{"start": {"2025-01-01"}, "end": {"2025-03-31"}}, bounded: true},
		{name: "rfc3339", query: url.Values{"start": {"2025-01-01T00:00:00Z"}, "end": {"2025-03-31T23:59:59-03:00"}}, bounded: true},
		{name: "fractional seconds", query: url.Values{"start": {"2025-03-01T00:00:00.000Z"}, "end": {"2025-03-31T23:59:59.999Z"}}, bounded: true},
		{name: "start only", query: url.Values{"start": {"2025-01-01"}}},
		{name: "bad start", query: url.Values{"start": {"01/02/2025"}}, wantErr: true, wantField: "start"},
		{name: "bad end", query: url.Values{"start": {"2025-01-01"}, "end": {"tomorrow"}}, wantErr: true, wantField: "end"},
		{name: "impossible day", query: url.Values{"end": {"2025-02-30"}}, wantErr: true, wantField: "end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePeriodQuery(tt.query)
			if tt.wantErr {
				var reqErr *RequestError
				if !errors.As(err, &reqErr) {
					t.Fatalf("expected RequestError, got %v", err)
				}
				if _, ok := reqErr.Fields[tt.wantField]; !ok {
					t.Fatalf("expected field %q in %v", tt.wantField, reqErr.Fields)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Bounded() != tt.bounded {
				t.Errorf("Bounded() = %v, want %v", p.Bounded(), tt.bounded)
			}
		})
	}
}

func TestParsePeriodQuery_Values(t *testing.T) {
	p, err := ParsePeriodQuery(url.Values{"start": {" 2025-01-01 "}, "end": {"2025-03-31"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", p.Start)
	}
	if !p.End.Equal(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", p.End)
	}
}

func TestParseHistoryQuery(t *testing.T) {
	q, err := ParseHistoryQuery(url.Values{"limit": {"10"}})
	if err != nil || q.Limit != 10 {
		t.Fatalf("got %+v, %v", q, err)
	}
	if q, err := ParseHistoryQuery(url.Values{}); err != nil || q.Limit != 0 {
		t.Fatalf("got %+v, %v", q, err)
	}
	for _, bad := range []string{"abc", "-1", "501"} {
		if _, err := ParseHistoryQuery(url.Values{"limit": {bad}}); err == nil {
			t.Errorf("expected error for limit %q", bad)
		}
	}
}

func TestReadLedgerBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPut, "/api/ledger", strings.NewReader(`{"revenues":[]}`))
	body, err := ReadLedgerBody(httptest.NewRecorder(), r)
	if err != nil || string(body) != `{"revenues":[]}` {
		t.Fatalf("got %q, %v", body, err)
	}

	r = httptest.NewRequest(http.MethodPut, "/api/ledger", strings.NewReader("  "))
	var reqErr *RequestError
	if _, err := ReadLedgerBody(httptest.NewRecorder(), r); !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError for empty body, got %v", err)
	}

	big := strings.Repeat("x", maxLedgerBytes+1)
	r = httptest.NewRequest(http.MethodPut, "/api/ledger", strings.NewReader(big))
	if _, err := ReadLedgerBody(httptest.NewRecorder(), r); !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError for oversized body, got %v", err)
	}
}
