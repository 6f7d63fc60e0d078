package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
port: "3000"
corpus_dir: "corpus"

ai_config:
  provider: "openai"
  model: "gpt-4o-mini"
  embedding_model: "text-embedding-3-small"

weaviate_store_config:
  host: "http://localhost:8080"
  class_name: "LegalChunk"

pipeline_config:
  max_chunk_size: 512
  overlap_size: 64
  top_k: 3
  domain_keywords:
    - "gdpr"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))

	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "corpus", cfg.CorpusDir)
	assert.Equal(t, "openai", cfg.AIConfig.Provider)
	assert.Equal(t, "sk-test", cfg.AIConfig.OpenAIAPIKey)
	assert.Equal(t, "http://localhost:8080", cfg.WeaviateStoreConfig.Host)
	assert.Equal(t, "LegalChunk", cfg.WeaviateStoreConfig.ClassName)
	assert.Equal(t, 512, cfg.PipelineConfig.MaxChunkSize)
	assert.Equal(t, 3, cfg.PipelineConfig.TopK)
	assert.Equal(t, []string{"gdpr"}, cfg.PipelineConfig.DomainKeywords)
}

func TestLoadConfigMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := LoadConfig(writeConfig(t, sampleConfig))
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		WeaviateStoreConfig: WeaviateStoreConfig{Host: "http://localhost:8080", ClassName: "LegalChunk"},
		AIConfig:            AIConfig{Provider: "openai", OpenAIAPIKey: "sk"},
	}
	assert.NoError(t, valid.Validate())

	noHost := valid
	noHost.WeaviateStoreConfig.Host = ""
	assert.Error(t, noHost.Validate())

	badProvider := valid
	badProvider.AIConfig.Provider = "llama"
	assert.Error(t, badProvider.Validate())

	gemini := valid
	gemini.AIConfig = AIConfig{Provider: "gemini", GeminiAPIKeys: "k1,k2"}
	assert.NoError(t, gemini.Validate())

	geminiNoKeys := valid
	geminiNoKeys.AIConfig = AIConfig{Provider: "gemini"}
	assert.Error(t, geminiNoKeys.Validate())
}
