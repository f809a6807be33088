package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	CORSAllowOrigins []string

	AI     AIConfig
	Resume ResumeConfig
}

// AIConfig holds provider credentials and call limits. A provider whose key is
// empty is simply not registered.
type AIConfig struct {
	OpenAIKey   string
	OpenAIModel string

	DeepSeekKey   string
	DeepSeekModel string
	DeepSeekURL   string

	GeminiKey   string
	GeminiModel string

	OllamaHost  string
	OllamaModel string

	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	RatePerMinute int
}

type ResumeConfig struct {
	// ScoreTieBreak lets relevance scores order points whose AI order is equal.
	ScoreTieBreak bool
	PreviewPoints int
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file loaded, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Port:             envOrDefault("PORT", "8080"),
		DatabaseURL:      envOrDefault("DATABASE_URL", "resume.db"),
		CORSAllowOrigins: splitList(os.Getenv("CORS_ALLOW_ORIGINS")),
		AI: AIConfig{
			OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:   envOrDefault("OPENAI_MODEL", "gpt-4"),
			DeepSeekKey:   os.Getenv("DEEPSEEK_API_KEY"),
			DeepSeekModel: envOrDefault("DEEPSEEK_MODEL", "deepseek-chat"),
			DeepSeekURL:   envOrDefault("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
			GeminiKey:     os.Getenv("GEMINI_API_KEY"),
			GeminiModel:   envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
			OllamaHost:    os.Getenv("OLLAMA_HOST"),
			OllamaModel:   envOrDefault("OLLAMA_MODEL", "llama3.1"),
			Timeout:       time.Duration(envInt("AI_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxRetries:    envInt("AI_MAX_RETRIES", 0),
			RetryBackoff:  time.Duration(envInt("AI_RETRY_BACKOFF_MS", 1000)) * time.Millisecond,
			RatePerMinute: envInt("AI_RATE_PER_MINUTE", 10),
		},
		Resume: ResumeConfig{
			ScoreTieBreak: envBool("RESUME_SCORE_TIEBREAK", false),
			PreviewPoints: envInt("RESUME_PREVIEW_POINTS", 3),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("⚠️  Ignoring %s=%q (expected a non-negative integer)", key, v)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️  Ignoring %s=%q (expected a boolean)", key, v)
		return def
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
