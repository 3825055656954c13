package embeddings

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/medstream-ai/pipeline/pkg/catalog"
)

type manifest struct {
	System     string `json:"system"`
	Model      string `json:"model"`
	CodeCount  int    `json:"code_count"`
	Dimensions int    `json:"dimensions"`
}

// WriteArtifacts saves one system's vectors under dir/<safe system name>/:
// embeddings.json maps code to vector, manifest.json records the shape.
func WriteArtifacts(dir, system, model string, vectors map[string][]float64) error {
	systemDir := filepath.Join(dir, catalog.SafeSystemName(system))
	if err := os.MkdirAll(systemDir, 0o755); err != nil {
		return fmt.Errorf("create embeddings directory: %w", err)
	}

	data, err := json.MarshalIndent(vectors, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vectors for %s: %w", system, err)
	}
	if err := os.WriteFile(filepath.Join(systemDir, "embeddings.json"), data, 0o644); err != nil {
		return fmt.Errorf("write vectors for %s: %w", system, err)
	}

	dimensions := 0
	for _, vector := range vectors {
		dimensions = len(vector)
		break
	}

	meta, err := json.MarshalIndent(manifest{
		System:     system,
		Model:      model,
		CodeCount:  len(vectors),
		Dimensions: dimensions,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(systemDir, "manifest.json"), meta, 0o644)
}
