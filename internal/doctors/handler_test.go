package doctors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerSearch(t *testing.T) {
	h := NewHandler(NewService(Config{}, nil), nil)

	body := `{"specialty":"Cardiology","location":"Boston, MA","insurance":"Medicare"}`
	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodPost, "/api/doctors/search", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var result SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Doctors) == 0 {
		t.Error("expected doctors in response")
	}
}

func TestHandlerSearchValidation(t *testing.T) {
	h := NewHandler(NewService(Config{}, nil), nil)

	for name, body := range map[string]string{
		"missing specialty": `{"location":"Boston, MA"}`,
		"malformed json":    `{`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Search(rec, httptest.NewRequest(http.MethodPost, "/api/doctors/search", strings.NewReader(body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}
