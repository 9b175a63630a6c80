package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/citypulse-backend/pkg/errors"
)

type pointBody struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Radius    int      `json:"radius" validate:"omitempty,min=1,max=50000"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"latitude":95,"longitude":10,"radius":60000}`))
	var body pointBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	typed := pkgerrors.As(err)
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["latitude"] != "must be within [-90,90]" {
		t.Fatalf("unexpected latitude message %q", details["latitude"])
	}
	if details["radius"] != "must be at most 50000" {
		t.Fatalf("unexpected radius message %q", details["radius"])
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"latitude":1,"longitude":1,"extra":true}`))
	var body pointBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyRequiresCoordinates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"longitude":1}`))
	var body pointBody
	err := DecodeJSONBody(req, &body)
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	if details["latitude"] != "is required" {
		t.Fatalf("expected latitude required, got %v", details)
	}
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?size=500", nil)
	if _, err := ParseQueryInt(req, "size", 20, 1, 100); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range error, got %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	value, err := ParseQueryInt(req, "size", 20, 1, 100)
	if err != nil || value != 20 {
		t.Fatalf("expected default 20, got %d %v", value, err)
	}
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?enabled=true", nil)
	value, err := ParseQueryBool(req, "enabled")
	if err != nil || value == nil || !*value {
		t.Fatalf("expected true, got %v %v", value, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	value, err = ParseQueryBool(req, "enabled")
	if err != nil || value != nil {
		t.Fatalf("expected absent value, got %v %v", value, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/?enabled=maybe", nil)
	if _, err := ParseQueryBool(req, "enabled"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParsePathUUID(t *testing.T) {
	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String())
	got, err := ParsePathUUID(req, "id")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s %v", id, got, err)
	}

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "nope")
	if _, err := ParsePathUUID(req, "id"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}
