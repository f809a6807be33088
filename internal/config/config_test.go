package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "AI_TIMEOUT_SECONDS", "AI_MAX_RETRIES", "RESUME_SCORE_TIEBREAK", "RESUME_PREVIEW_POINTS", "CORS_ALLOW_ORIGINS", "OPENAI_MODEL"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "resume.db", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 0, cfg.AI.MaxRetries)
	assert.Equal(t, "gpt-4", cfg.AI.OpenAIModel)
	assert.Equal(t, "https://api.deepseek.com", cfg.AI.DeepSeekURL)
	assert.False(t, cfg.Resume.ScoreTieBreak)
	assert.Equal(t, 3, cfg.Resume.PreviewPoints)
	assert.Empty(t, cfg.CORSAllowOrigins)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("AI_TIMEOUT_SECONDS", "5")
	t.Setenv("AI_MAX_RETRIES", "2")
	t.Setenv("RESUME_SCORE_TIEBREAK", "true")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:3000, https://example.com ,")

	cfg := FromEnv()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 2, cfg.AI.MaxRetries)
	assert.True(t, cfg.Resume.ScoreTieBreak)
	assert.Equal(t, []string{"http://localhost:3000", "https://example.com"}, cfg.CORSAllowOrigins)
}

func TestFromEnvIgnoresBadNumbers(t *testing.T) {
	t.Setenv("AI_TIMEOUT_SECONDS", "soon")
	t.Setenv("RESUME_PREVIEW_POINTS", "-4")
	t.Setenv("RESUME_SCORE_TIEBREAK", "maybe")

	cfg := FromEnv()
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 3, cfg.Resume.PreviewPoints)
	assert.False(t, cfg.Resume.ScoreTieBreak)
}
