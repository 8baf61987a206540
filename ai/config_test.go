package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestNewConfigAppliesOptions(t *testing.T) {
	cfg := NewConfig(
		WithRecognizerHost("http://vision.local:9100"),
		WithRecognizerModel("gpt-4o-mini"),
		WithEmbedderHost("http://embed.local:8090/"),
		WithEmbedderModel("minilm"),
		WithVocabPath("/etc/feedscope/vocab.txt"),
		WithMaxSequenceLength(64),
	)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://vision.local:9100/v1", cfg.RecognizerHost)
	assert.Equal(t, "gpt-4o-mini", cfg.RecognizerModel)
	assert.Equal(t, "http://embed.local:8090", cfg.EmbedderHost)
	assert.Equal(t, "minilm", cfg.EmbedderModel)
	assert.Equal(t, "/etc/feedscope/vocab.txt", cfg.VocabPath)
	assert.Equal(t, 64, cfg.MaxSequenceLength)
}

func TestNormalizeLeavesV1SuffixAlone(t *testing.T) {
	cfg := NewConfig(WithRecognizerHost("http://localhost:11434/v1"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.RecognizerHost)
}

func TestValidateRejectsIncompleteConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing recognizer host", func(c *Config) { c.RecognizerHost = "" }},
		{"missing recognizer model", func(c *Config) { c.RecognizerModel = "" }},
		{"missing embedder host", func(c *Config) { c.EmbedderHost = "" }},
		{"missing embedder model", func(c *Config) { c.EmbedderModel = "" }},
		{"missing vocab path", func(c *Config) { c.VocabPath = "" }},
		{"sequence too short", func(c *Config) { c.MaxSequenceLength = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
