// Package testutil provides common test utilities and helpers for the
// mental-health backend tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/analysis"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/api"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/chatbot"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/classifier"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
)

// NewTestServer creates a test API server with in-memory dependencies.
// The classifier runs heuristic-only (no LLM) and the chatbot runs on its
// canned fallback set, so tests are fully deterministic and offline. The
// returned store can be seeded directly.
func NewTestServer() (*api.Server, *store.InMemoryStore) {
	st := store.NewInMemoryStore()
	cls := classifier.New(nil)
	analyzer := analysis.NewAnalyzer(cls, st)
	bot := chatbot.New(nil)
	return api.NewServer(st, cls, analyzer, bot), st
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t testing.TB, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes a JSON response body and validates the status field.
func AssertJSONResponse(t testing.TB, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t testing.TB, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}
