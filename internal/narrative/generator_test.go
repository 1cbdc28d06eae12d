package narrative

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateResponse_NoClient_UsesFallback(t *testing.T) {
	g := NewGenerator(nil)

	text := g.GenerateResponse("assess patient P001", "doctor", 0.7)
	assert.NotEmpty(t, text)

	// Deterministic: same prompt, same fallback.
	assert.Equal(t, text, g.GenerateResponse("assess patient P001", "doctor", 0.7))
}

func TestGenerateResponse_BrokenUpstream_NeverFailsNeverEmpty(t *testing.T) {
	// GIVEN an upstream that always errors
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGenerator(NewClient(srv.URL, "", "test-model"))

	// WHEN generating for every known role plus an unknown one
	for _, role := range []string{"doctor", "nurse", "pharmacist", "technician", "admin", "chaplain"} {
		text := g.GenerateResponse("handle situation", role, 0.7)
		// THEN a non-empty string always comes back
		assert.NotEmpty(t, text, "role %s", role)
	}
}

func TestGenerateResponse_MalformedUpstreamResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	g := NewGenerator(NewClient(srv.URL, "", "test-model"))
	assert.NotEmpty(t, g.GenerateResponse("anything", "doctor", 0.7))
}

func TestGenerateResponse_HealthyUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Write([]byte(`{"choices":[{"message":{"content":"Start IV fluids and monitor."}}]}`))
	}))
	defer srv.Close()

	g := NewGenerator(NewClient(srv.URL, "key", "test-model"))
	assert.Equal(t, "Start IV fluids and monitor.", g.GenerateResponse("sepsis protocol", "doctor", 0.7))
}

func TestFallback_RoleKeyed(t *testing.T) {
	g := NewGenerator(nil)
	// Different roles draw from different template sets; spot-check that a
	// doctor fallback is one of the doctor templates.
	text := g.GenerateResponse("round on ward", "doctor", 0.7)
	assert.Contains(t, fallbackTemplates["doctor"], text)
}
