package mercadopago

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
	"github.com/svillagran/tienda-backend/pkg/logger"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestRedact(t *testing.T) {
	c := &Client{}
	out := c.redact("access_token", "abc123")
	if out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if v := c.redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeValidation},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tt := range tests {
		if got := domainCodeForStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestCreatePreferenceSendsExpectedPayload(t *testing.T) {
	var captured preferenceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != preferencesPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer TEST-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp.example/init/pref-1"}`))
	}))
	defer server.Close()

	c := &Client{
		httpClient:  server.Client(),
		accessToken: "TEST-token",
		baseURL:     server.URL,
		logger:      newTestLogger(),
	}

	pref, err := c.CreatePreference(context.Background(), PreferenceCreateParams{
		Items: []PreferenceItem{
			{Title: "Yerba mate", Quantity: 2, UnitPrice: 5990, CurrencyID: "CLP"},
		},
		BackURLs: BackURLs{
			Success: "http://localhost:8080/api/payments/success",
			Failure: "http://localhost:8080/api/payments/failure",
			Pending: "http://localhost:8080/api/payments/pending",
		},
		ExternalReference: "user-123",
	})
	if err != nil {
		t.Fatalf("create preference: %v", err)
	}

	if pref.ID != "pref-1" {
		t.Fatalf("unexpected preference id %q", pref.ID)
	}
	if pref.InitPoint != "https://mp.example/init/pref-1" {
		t.Fatalf("unexpected init point %q", pref.InitPoint)
	}
	if captured.AutoReturn != "approved" {
		t.Fatalf("expected auto_return approved, got %q", captured.AutoReturn)
	}
	if captured.ExternalReference != "user-123" {
		t.Fatalf("external reference not propagated, got %q", captured.ExternalReference)
	}
	if len(captured.Items) != 1 || captured.Items[0].UnitPrice != 5990 {
		t.Fatalf("items not propagated: %+v", captured.Items)
	}
}

func TestCreatePreferenceMapsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid access token"}`))
	}))
	defer server.Close()

	c := &Client{
		httpClient:  server.Client(),
		accessToken: "bad-token",
		baseURL:     server.URL,
		logger:      newTestLogger(),
	}

	_, err := c.CreatePreference(context.Background(), PreferenceCreateParams{
		Items: []PreferenceItem{{Title: "x", Quantity: 1, UnitPrice: 100, CurrencyID: "CLP"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %s", typed.Code())
	}
}

func TestCreatePreferenceRejectsEmptyItems(t *testing.T) {
	c := &Client{logger: newTestLogger()}
	_, err := c.CreatePreference(context.Background(), PreferenceCreateParams{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}
