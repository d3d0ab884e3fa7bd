package textgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	shared "github.com/ripixel/fitplan-server/pkg"
)

func completion(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"id": "c1",
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": text}, "finish_reason": "stop"},
		},
	})
	return string(b)
}

func TestGenerate_PrimaryModel(t *testing.T) {
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("Expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(completion(`{"weeklyTemplates":[]}`)))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "primary", "backup", nil)
	res := c.Generate(context.Background(), shared.TextRequest{Prompt: "p", SystemPrompt: "s", MaxTokens: 100})

	if res.UsedFallback {
		t.Fatal("Expected model output, got static fallback")
	}
	if res.Source != "primary" {
		t.Errorf("Expected source primary, got %q", res.Source)
	}
	if gotReq.MaxTokens != 100 || len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("Unexpected request: %+v", gotReq)
	}
}

func TestGenerate_FallsBackToSecondModel(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		models = append(models, req.Model)
		if req.Model == "primary" {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"overloaded","type":"server"}}`))
			return
		}
		w.Write([]byte(completion("ok")))
	}))
	defer srv.Close()

	res := NewClient(srv.URL, "key", "primary", "backup", nil).Generate(context.Background(), shared.TextRequest{Prompt: "p"})
	if res.UsedFallback || res.Source != "backup" || res.Text != "ok" {
		t.Errorf("Expected backup model result, got %+v", res)
	}
	if len(models) != 2 {
		t.Errorf("Expected 2 attempts, got %v", models)
	}
}

func TestGenerate_StaticWhenAllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completion("  ")))
	}))
	defer srv.Close()

	res := NewClient(srv.URL, "key", "", "", nil).Generate(context.Background(), shared.TextRequest{Prompt: "p"})
	if !res.UsedFallback || res.Source != StaticSource {
		t.Errorf("Expected static fallback, got %+v", res)
	}
}

func TestGenerate_NoAPIKey(t *testing.T) {
	res := NewClient("http://127.0.0.1:1", "", "", "", nil).Generate(context.Background(), shared.TextRequest{Prompt: "p"})
	if !res.UsedFallback {
		t.Errorf("Expected static fallback without API key, got %+v", res)
	}
}
