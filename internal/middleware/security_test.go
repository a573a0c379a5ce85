package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecurityHeaders_SetsExpectedHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	want := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if !ValidateEmail("alice@example.com") {
		t.Error("valid email rejected")
	}
	if ValidateEmail("not-an-email") {
		t.Error("invalid email accepted")
	}
}

func TestValidateCurrency(t *testing.T) {
	if !ValidateCurrency("USD") {
		t.Error("USD rejected")
	}
	if ValidateCurrency("usd") || ValidateCurrency("DOLLARS") {
		t.Error("invalid currency code accepted")
	}
}

func TestValidateSymbol(t *testing.T) {
	for _, s := range []string{"XYZ", "BRK.B", "VWRL", "A"} {
		if !ValidateSymbol(s) {
			t.Errorf("valid symbol %q rejected", s)
		}
	}
	for _, s := range []string{"", "lowercase", "WAY-TOO-LONG-SYMBOL"} {
		if ValidateSymbol(s) {
			t.Errorf("invalid symbol %q accepted", s)
		}
	}
}

func TestValidatePercentage(t *testing.T) {
	for _, v := range []float64{0.01, 2.5, 100} {
		if !ValidatePercentage(v) {
			t.Errorf("valid percentage %v rejected", v)
		}
	}
	for _, v := range []float64{0, -1, 100.01} {
		if ValidatePercentage(v) {
			t.Errorf("invalid percentage %v accepted", v)
		}
	}
}

func TestSanitizeString_StripsControlCharacters(t *testing.T) {
	if got := SanitizeString("hello\x00world"); got != "helloworld" {
		t.Errorf("SanitizeString() = %q, want control characters removed", got)
	}
	if SanitizeString("  plain  ") != "plain" {
		t.Error("SanitizeString() did not trim whitespace")
	}
}
