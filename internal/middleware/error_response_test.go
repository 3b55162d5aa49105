package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/meetx/internal/model"
)

// TestWriteErrorResponse_WritesUnifiedFormat は統一エラーフォーマットでレスポンスが書き込まれることを検証する。
func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    *model.APIError
	}{
		{"Unauthorized", http.StatusUnauthorized, model.NewUnauthenticatedError()},
		{"Forbidden", http.StatusForbidden, model.NewForbiddenError()},
		{"NotFound", http.StatusNotFound, model.NewBookingNotFoundError("b-1")},
		{"Conflict", http.StatusConflict, model.NewDuplicateBookingError()},
		{"Internal", http.StatusInternalServerError, model.NewInternalError()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteErrorResponse(w, tt.status, tt.err)

			resp := w.Result()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var body ErrorResponseBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body.Code != tt.err.Code || body.Message != tt.err.Message {
				t.Errorf("body = %+v, want code %q message %q", body, tt.err.Code, tt.err.Message)
			}
			if body.Category != tt.err.Category || body.Action != tt.err.Action {
				t.Errorf("category/action = %q/%q", body.Category, body.Action)
			}
		})
	}
}

// TestWriteErrorResponse_ValidationFields は入力検証エラーのフィールド別理由がerrorsに入ることを検証する。
func TestWriteErrorResponse_ValidationFields(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
		"email":    "must be a valid email address",
		"password": "the length must be between 6 and 72",
	}))

	var raw map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	errs, ok := raw["errors"].(map[string]any)
	if !ok {
		t.Fatalf("errors field missing: %v", raw)
	}
	if errs["email"] != "must be a valid email address" {
		t.Errorf("errors.email = %v", errs["email"])
	}
	if _, ok := errs["password"]; !ok {
		t.Error("errors.password missing")
	}
}

// TestWriteErrorResponse_OmitsEmptyFields はフィールドエラーがない場合にerrorsを出力しないことを検証する。
func TestWriteErrorResponse_OmitsEmptyFields(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	var raw map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	for _, field := range []string{"code", "message", "category", "action"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing required field: %s", field)
		}
	}
	if _, ok := raw["errors"]; ok {
		t.Error("errors should be omitted")
	}
	if raw["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %v, want INTERNAL_ERROR", raw["code"])
	}
}
