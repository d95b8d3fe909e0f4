package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
)

type sampleBody struct {
	Name  string `json:"name" validate:"required,min=3"`
	Email string `json:"email" validate:"omitempty,email"`
	Qty   int    `json:"qty" validate:"min=1"`
}

func TestDecodeJSONBodyReportsJSONFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ab","email":"nope","qty":0}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
	if details["name"] != "must be at least 3" || details["email"] != "must be a valid email" || details["qty"] != "must be at least 1" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"abc","qty":1,"extra":true}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 25, 1, 100); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range error, got %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if v, err := ParseQueryInt(req, "limit", 25, 1, 100); err != nil || v != 25 {
		t.Fatalf("expected default 25, got %d %v", v, err)
	}
}

func TestParseQueryTime(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?updated_since=2026-03-01T10:00:00%2B05:30", nil)
	ts, err := ParseQueryTime(req, "updated_since")
	if err != nil || ts == nil {
		t.Fatalf("parse: %v", err)
	}
	if ts.Hour() != 4 || ts.Minute() != 30 {
		t.Fatalf("expected UTC normalised time, got %s", ts)
	}

	bad := httptest.NewRequest(http.MethodGet, "/?updated_since=yesterday", nil)
	if _, err := ParseQueryTime(bad, "updated_since"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?include_archived=true", nil)
	if v, err := ParseQueryBool(req, "include_archived"); err != nil || !v {
		t.Fatalf("expected true, got %v %v", v, err)
	}
}

func TestSanitizeStringTruncatesOnRuneBoundary(t *testing.T) {
	if got := SanitizeString("  necklace  ", 4); got != "neck" {
		t.Fatalf("unexpected ascii truncation %q", got)
	}

	got := SanitizeString("മാല💎മോതിരം", 4)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid utf-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 4 {
		t.Fatalf("expected 4 runes, got %d (%q)", n, got)
	}
	if got := SanitizeString("💎💎", 5); got != "💎💎" {
		t.Fatalf("short input should be untouched, got %q", got)
	}
}
