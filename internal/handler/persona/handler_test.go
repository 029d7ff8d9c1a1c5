package persona

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/polyglot-coach/backend/internal/model/persona"
)

func setupRouter(activeID string) *chi.Mux {
	store, _ := persona.NewMemoryStore(persona.Seed())
	r := chi.NewRouter()
	New(store, activeID, "gpt-oss-120b", []string{"gpt-oss-120b", "llama3.1-8b"}).RegisterRoutes(r)
	return r
}

func TestActivePersonaOmitsInstruction(t *testing.T) {
	r := setupRouter(persona.DefaultID)

	req := httptest.NewRequest(http.MethodGet, "/persona", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if strings.Contains(body, "insufficient data") {
		t.Fatalf("persona instruction leaked to client: %s", body)
	}

	var p persona.Persona
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if p.ID != persona.DefaultID || p.InputPlaceholder == "" {
		t.Fatalf("unexpected persona %+v", p)
	}
}

func TestActivePersonaMissing(t *testing.T) {
	r := setupRouter("nobody")

	req := httptest.NewRequest(http.MethodGet, "/persona", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestModels(t *testing.T) {
	r := setupRouter(persona.DefaultID)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var got struct {
		Model     string   `json:"model"`
		Available []string `json:"available"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if got.Model != "gpt-oss-120b" || len(got.Available) != 2 {
		t.Fatalf("unexpected models payload %+v", got)
	}
}
