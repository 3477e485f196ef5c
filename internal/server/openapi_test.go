package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleOpenAPI(t *testing.T) {
	h := handleOpenAPI()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()

	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("content-type = %q, want application/json", got)
	}

	var spec struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatalf("decoding spec: %v", err)
	}
	if !strings.HasPrefix(spec.OpenAPI, "3.") {
		t.Errorf("openapi version = %q", spec.OpenAPI)
	}

	want := []string{
		"/healthz",
		"/api/mountains",
		"/api/mountains/{id}",
		"/api/mountains/{id}/forecast",
		"/api/submissions",
		"/api/quiz",
		"/api/quiz/start",
		"/api/quiz/answer",
		"/api/quiz/quit",
		"/api/quiz/ranking",
		"/api/admin/login",
		"/api/admin/submissions",
	}
	for _, path := range want {
		if _, ok := spec.Paths[path]; !ok {
			t.Errorf("spec missing path %q", path)
		}
	}
}
