package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var gotAuth string
	var gotReq openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIEmbedder("sk-test", "text-embedding-3-small", 8000, 5*time.Second)
	c.endpoint = srv.URL

	vec, err := c.Embed(context.Background(), "gene therapy platform")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("unexpected embedding: %v", vec)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "text-embedding-3-small" || gotReq.Input != "gene therapy platform" {
		t.Errorf("unexpected request: %+v", gotReq)
	}
}

func TestOpenAIEmbedder_TruncatesInput(t *testing.T) {
	var gotReq openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{1}}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIEmbedder("sk-test", "text-embedding-3-small", 10, 5*time.Second)
	c.endpoint = srv.URL

	if _, err := c.Embed(context.Background(), strings.Repeat("a", 100)); err != nil {
		t.Fatal(err)
	}
	if len(gotReq.Input) != 10 {
		t.Errorf("input should be truncated to 10 chars, got %d", len(gotReq.Input))
	}
}

func TestOpenAIEmbedder_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewOpenAIEmbedder("sk-test", "text-embedding-3-small", 8000, 20*time.Millisecond)
	c.endpoint = srv.URL

	_, err := c.Embed(context.Background(), "slow")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestOpenAIEmbedder_ErrorStatusPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIEmbedder("sk-test", "text-embedding-3-small", 8000, 5*time.Second)
	c.endpoint = srv.URL

	if _, err := c.Embed(context.Background(), "x"); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestGeminiEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "text-embedding-004:embedContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "gm-test" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": map[string]any{"values": []float32{0.5, 0.6}},
		})
	}))
	defer srv.Close()

	c := NewGeminiEmbedder("gm-test", "text-embedding-004", 8000, 5*time.Second)
	c.endpoint = srv.URL

	vec, err := c.Embed(context.Background(), "antibody screening")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 2 || vec[1] != 0.6 {
		t.Errorf("unexpected embedding: %v", vec)
	}
}
