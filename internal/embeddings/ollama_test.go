package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeOllamaServer creates an httptest server that mimics the Ollama
// /api/embed endpoint. The handler receives the decoded request and
// returns the status and response body to send.
func fakeOllamaServer(t *testing.T, handler func(req ollamaEmbedRequest) (int, any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		status, resp := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}))
}

func vecOfWidth(n int, fill float32) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestNewOllamaEmbedder(t *testing.T) {
	e := NewOllamaEmbedder("http://localhost:11434", "bge-small-en-v1.5", 384)

	if e.baseURL != "http://localhost:11434" {
		t.Errorf("expected baseURL http://localhost:11434, got %s", e.baseURL)
	}
	if e.model != "bge-small-en-v1.5" {
		t.Errorf("expected model bge-small-en-v1.5, got %s", e.model)
	}
	if e.client == nil {
		t.Fatal("expected non-nil http client")
	}
	if d := e.Dimensions(); d != 384 {
		t.Errorf("expected Dimensions() == 384, got %d", d)
	}
}

func TestEmbedSuccess(t *testing.T) {
	srv := fakeOllamaServer(t, func(req ollamaEmbedRequest) (int, any) {
		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %s", req.Model)
		}
		return http.StatusOK, ollamaEmbedResponse{
			Model:      req.Model,
			Embeddings: [][]float32{{0.1, 0.2, 0.3}},
		}
	})
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 3)
	emb, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(emb))
	}
	if emb[0] != 0.1 || emb[1] != 0.2 || emb[2] != 0.3 {
		t.Errorf("unexpected embedding values: %v", emb)
	}
}

func TestEmbedBatchEmpty(t *testing.T) {
	e := NewOllamaEmbedder("http://localhost:11434", "test-model", 3)
	results, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for empty input, got %v", results)
	}
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	srv := fakeOllamaServer(t, func(req ollamaEmbedRequest) (int, any) {
		inputs, ok := req.Input.([]any)
		if !ok {
			t.Errorf("expected []any input, got %T", req.Input)
			return http.StatusBadRequest, ollamaErrorResponse{Error: "bad input"}
		}
		embs := make([][]float32, len(inputs))
		for i := range inputs {
			embs[i] = []float32{float32(i), float32(i), float32(i)}
		}
		return http.StatusOK, ollamaEmbedResponse{Model: req.Model, Embeddings: embs}
	})
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 3)
	results, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(results))
	}
	for i, emb := range results {
		if emb[0] != float32(i) {
			t.Errorf("embedding %d out of order: %v", i, emb)
		}
	}
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	srv := fakeOllamaServer(t, func(req ollamaEmbedRequest) (int, any) {
		return http.StatusOK, ollamaEmbedResponse{
			Model:      req.Model,
			Embeddings: [][]float32{{0.1, 0.2, 0.3}},
		}
	})
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 3)
	_, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error for count mismatch")
	}
	if !strings.Contains(err.Error(), "expected 2 embeddings") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEmbedBatchDimensionMismatch(t *testing.T) {
	srv := fakeOllamaServer(t, func(req ollamaEmbedRequest) (int, any) {
		return http.StatusOK, ollamaEmbedResponse{
			Model:      req.Model,
			Embeddings: [][]float32{vecOfWidth(768, 0.5)},
		}
	})
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 384)
	_, err := e.EmbedBatch(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected error for dimension mismatch")
	}
	if !strings.Contains(err.Error(), "768 dimensions") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEmbedOllamaError(t *testing.T) {
	srv := fakeOllamaServer(t, func(req ollamaEmbedRequest) (int, any) {
		return http.StatusNotFound, ollamaErrorResponse{Error: `model "missing" not found`}
	})
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "missing", 384)
	_, err := e.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEmbedServerUnreachable(t *testing.T) {
	e := NewOllamaEmbedder("http://127.0.0.1:1", "test-model", 384)
	_, err := e.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if !strings.Contains(err.Error(), "is Ollama running") {
		t.Errorf("unexpected error: %v", err)
	}
}
