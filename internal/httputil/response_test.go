package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondKind(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondKind(rec, http.StatusPaymentRequired, "insufficient_credits", "balance 4 below cost 5")

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["kind"] != "insufficient_credits" || body["title"] != "Payment Required" {
		t.Errorf("body = %v", body)
	}
	if body["status"] != float64(http.StatusPaymentRequired) {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestRespondJSONEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"message":"hi"}`, false},
		{"malformed", `{"message":`, true},
		{"unknown field", `{"message":"hi","extra":1}`, true},
		{"trailing object", `{"message":"hi"}{"message":"again"}`, true},
		{"trailing whitespace", "{\"message\":\"hi\"}\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dest struct {
				Message string `json:"message"`
			}
			err := ParseJSON(httptest.NewRecorder(), req, &dest)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseJSONEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var dest struct{}
	if err := ParseJSON(httptest.NewRecorder(), req, &dest); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("err = %v, want ErrEmptyBody", err)
	}
}

func TestParseJSONTooLarge(t *testing.T) {
	body := `{"message":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest struct {
		Message string `json:"message"`
	}
	err := ParseJSON(httptest.NewRecorder(), req, &dest)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("err = %v, want size error", err)
	}
}
