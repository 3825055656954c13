package embeddings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/medstream-ai/pipeline/pkg/common/config"
	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/terminology"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func embedServer(t *testing.T, vector []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}

		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("unexpected model %q", req.Model)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": vector}},
		})
	}))
}

func TestClientEmbed(t *testing.T) {
	server := embedServer(t, []float64{0.1, 0.2, 0.3})
	defer server.Close()

	client := NewClient(&config.Config{
		EmbedBaseURL:   server.URL,
		EmbedAPIKey:    "test-key",
		EmbedModelName: "test-model",
		EmbedTimeout:   5 * time.Second,
	})

	vector, err := client.Embed(context.Background(), "Condition is currently active")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.1 {
		t.Errorf("unexpected vector %v", vector)
	}
}

func TestClientEmbedErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(&config.Config{
		EmbedBaseURL: server.URL,
		EmbedTimeout: 5 * time.Second,
	})

	if _, err := client.Embed(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestClientEmbedEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := NewClient(&config.Config{
		EmbedBaseURL: server.URL,
		EmbedTimeout: 5 * time.Second,
	})

	if _, err := client.Embed(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for empty data")
	}
}

// fakeEmbedder records the texts it was asked to embed and can fail for
// selected inputs.
type fakeEmbedder struct {
	texts  []string
	failOn string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.texts = append(f.texts, text)
	if f.failOn != "" && text == f.failOn {
		return nil, errors.New("model unavailable")
	}
	return []float64{1, 2}, nil
}

func TestGenerateSystemDescribesCodes(t *testing.T) {
	embedder := &fakeEmbedder{}
	generator := NewGenerator(terminology.DefaultRegistry(), embedder, nil)

	vectors, err := generator.GenerateSystem(context.Background(),
		terminology.SystemConditionClinical, []string{"active", "resolved"})
	if err != nil {
		t.Fatalf("GenerateSystem: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}

	// The model sees descriptions, not raw codes.
	want := []string{"Condition is currently active", "Condition has been resolved"}
	if len(embedder.texts) != 2 || embedder.texts[0] != want[0] || embedder.texts[1] != want[1] {
		t.Errorf("embedded texts = %v, want %v", embedder.texts, want)
	}
}

func TestGenerateSystemSkipsFailedCodes(t *testing.T) {
	embedder := &fakeEmbedder{failOn: "SNOMED CT code 123"}
	generator := NewGenerator(terminology.DefaultRegistry(), embedder, nil)

	vectors, err := generator.GenerateSystem(context.Background(),
		terminology.SystemSNOMED, []string{"123", "456"})
	if err != nil {
		t.Fatalf("GenerateSystem: %v", err)
	}
	if len(vectors) != 1 {
		t.Fatalf("failed code must be skipped, got %v", vectors)
	}
	if _, ok := vectors["456"]; !ok {
		t.Error("surviving code missing from result")
	}
}

func TestGenerateSystemHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	generator := NewGenerator(terminology.DefaultRegistry(), &fakeEmbedder{}, nil)
	_, err := generator.GenerateSystem(ctx, terminology.SystemSNOMED, []string{"123"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	vectors := map[string][]float64{
		"active":   {0.1, 0.2},
		"resolved": {0.3, 0.4},
	}

	if err := WriteArtifacts(dir, "condition-clinical", "test-model", vectors); err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}

	systemDir := filepath.Join(dir, "condition-clinical")

	data, err := os.ReadFile(filepath.Join(systemDir, "embeddings.json"))
	if err != nil {
		t.Fatalf("read embeddings.json: %v", err)
	}
	var decoded map[string][]float64
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode embeddings.json: %v", err)
	}
	if len(decoded) != 2 || decoded["active"][0] != 0.1 {
		t.Errorf("unexpected vectors %v", decoded)
	}

	meta, err := os.ReadFile(filepath.Join(systemDir, "manifest.json"))
	if err != nil {
		t.Fatalf("read manifest.json: %v", err)
	}
	var m struct {
		System     string `json:"system"`
		Model      string `json:"model"`
		CodeCount  int    `json:"code_count"`
		Dimensions int    `json:"dimensions"`
	}
	if err := json.Unmarshal(meta, &m); err != nil {
		t.Fatalf("decode manifest.json: %v", err)
	}
	if m.System != "condition-clinical" || m.Model != "test-model" || m.CodeCount != 2 || m.Dimensions != 2 {
		t.Errorf("unexpected manifest %+v", m)
	}
}
