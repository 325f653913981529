package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Expected Content-Type 'application/json', got '%s'", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if ts, ok := body["timestamp"].(string); !ok {
		t.Error("Expected timestamp to be present")
	} else if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("Timestamp '%s' is not valid RFC3339: %v", ts, err)
	}
	return body
}

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		data   any
		check  func(*testing.T, map[string]any)
	}{
		{
			name:   "object",
			status: http.StatusOK,
			data:   map[string]string{"message": "hello"},
			check: func(t *testing.T, body map[string]any) {
				data, ok := body["data"].(map[string]any)
				if !ok || data["message"] != "hello" {
					t.Errorf("Expected data.message 'hello', got %v", body["data"])
				}
			},
		},
		{
			name:   "nil data",
			status: http.StatusCreated,
			check: func(t *testing.T, body map[string]any) {
				if body["data"] != nil {
					t.Error("Expected data to be nil")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			body := decodeEnvelope(t, w)
			if success, ok := body["success"].(bool); !ok || !success {
				t.Error("Expected success to be true")
			}
			tt.check(t, body)
		})
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		message     string
		wantMessage string
	}{
		{name: "short message", message: "Username already in use", wantMessage: "Username already in use"},
		{name: "long message truncated", message: strings.Repeat("x", 300), wantMessage: strings.Repeat("x", maxErrorMessageLength) + "..."},
		{name: "multibyte message cut on rune boundary", message: "x" + strings.Repeat("é", 150), wantMessage: "x" + strings.Repeat("é", (maxErrorMessageLength-1)/2) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSONError(w, http.StatusBadRequest, "username_taken", tt.message)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			body := decodeEnvelope(t, w)
			if success, ok := body["success"].(bool); !ok || success {
				t.Error("Expected success to be false")
			}
			if body["error"] != "username_taken" {
				t.Errorf("Expected error 'username_taken', got '%v'", body["error"])
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, body["message"])
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"identity_token":"abc"}`},
		{name: "empty", body: "", wantErr: true},
		{name: "not json", body: "identity_token=abc", wantErr: true},
		{name: "two objects", body: `{} {}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var dst credentialsRequest
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			if err := decodeJSON(req, &dst); (err != nil) != tt.wantErr {
				t.Errorf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
