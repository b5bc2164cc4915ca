package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "docqa.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
embedding:
  model: test-embed
  dimensions: 1536
lm:
  model: test-chat
`

func TestLoadFromFileDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Search.LexicalWeight != 0.6 || cfg.Search.VectorWeight != 0.4 {
		t.Errorf("default fusion weights = %.2f/%.2f, want 0.6/0.4",
			cfg.Search.LexicalWeight, cfg.Search.VectorWeight)
	}
	if cfg.Search.LexicalTopN != 100 || cfg.Search.VectorTopN != 200 {
		t.Errorf("default pools = %d/%d, want 100/200", cfg.Search.LexicalTopN, cfg.Search.VectorTopN)
	}
	if cfg.Verify.PrecisionThreshold != 0.7 {
		t.Errorf("default precision threshold = %.2f, want 0.7", cfg.Verify.PrecisionThreshold)
	}
	if cfg.Embedding.BatchSize != 64 {
		t.Errorf("default batch size = %d, want 64", cfg.Embedding.BatchSize)
	}
	if cfg.Tools.MaxResultChars != 8000 {
		t.Errorf("default tool output cap = %d, want 8000", cfg.Tools.MaxResultChars)
	}
}

func TestLoadFromFileCustomWeights(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
search:
  lexical_weight: 0.5
  vector_weight: 0.5
`))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Search.LexicalWeight != 0.5 || cfg.Search.VectorWeight != 0.5 {
		t.Errorf("weights = %.2f/%.2f, want 0.5/0.5", cfg.Search.LexicalWeight, cfg.Search.VectorWeight)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !IsConfigNotFound(err) {
		t.Fatalf("expected ConfigNotFoundError, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero dimensions", `
embedding:
  model: m
lm:
  model: m
`},
		{"negative weight", minimalConfig + `
search:
  lexical_weight: -0.1
  vector_weight: 0.5
`},
		{"threshold above one", minimalConfig + `
verify:
  precision_threshold: 1.5
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromFile(writeConfig(t, tt.body)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestWriteDefaultTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "docqa.yaml")

	created, err := WriteDefaultTemplate(path)
	if err != nil {
		t.Fatalf("WriteDefaultTemplate: %v", err)
	}
	if !created {
		t.Error("expected template to be created")
	}

	created, err = WriteDefaultTemplate(path)
	if err != nil {
		t.Fatalf("second WriteDefaultTemplate: %v", err)
	}
	if created {
		t.Error("template should not be recreated when present")
	}
}
