package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/justsurfingit/Resume-Journal/internal/config"
	"github.com/justsurfingit/Resume-Journal/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Message is one chat turn sent to a completion provider.
type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// Completer is the black-box completion capability: messages in, the first
// choice's text out.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ProviderRegistry hands out the completer registered for a model type.
type ProviderRegistry interface {
	For(model models.ModelType) (Completer, error)
}

// LLMService holds one langchaingo client per configured provider.
type LLMService struct {
	mu         sync.RWMutex
	clients    map[models.ModelType]llms.Model
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

// NewLLMService registers every provider whose credentials are present.
// Providers that fail to initialize are logged and left out.
func NewLLMService(ctx context.Context, cfg config.AIConfig) *LLMService {
	s := newLLMService(cfg)

	if cfg.OpenAIKey != "" {
		llm, err := openai.New(openai.WithToken(cfg.OpenAIKey), openai.WithModel(cfg.OpenAIModel))
		s.register(models.ModelOpenAI, llm, err)
	}
	if cfg.DeepSeekKey != "" {
		// DeepSeek speaks the OpenAI wire protocol.
		llm, err := openai.New(
			openai.WithToken(cfg.DeepSeekKey),
			openai.WithModel(cfg.DeepSeekModel),
			openai.WithBaseURL(cfg.DeepSeekURL),
		)
		s.register(models.ModelDeepSeek, llm, err)
	}
	if cfg.GeminiKey != "" {
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.GeminiKey),
			googleai.WithDefaultModel(cfg.GeminiModel),
		)
		s.register(models.ModelGemini, llm, err)
	}
	if cfg.OllamaHost != "" {
		llm, err := ollama.New(ollama.WithServerURL(cfg.OllamaHost), ollama.WithModel(cfg.OllamaModel))
		s.register(models.ModelOllama, llm, err)
	}

	if len(s.clients) == 0 {
		log.Println("⚠️  No AI provider configured; optimization requests will be rejected")
	}
	return s
}

func newLLMService(cfg config.AIConfig) *LLMService {
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &LLMService{
		clients:    make(map[models.ModelType]llms.Model),
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
	}
}

func (s *LLMService) register(model models.ModelType, llm llms.Model, err error) {
	if err != nil {
		log.Printf("❌ Failed to create %s client: %v", model, err)
		return
	}
	s.Register(model, llm)
	log.Printf("✅ %s provider ready", model)
}

// Register adds or replaces the client used for model.
func (s *LLMService) Register(model models.ModelType, llm llms.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[model] = llm
}

// Models lists the configured providers in name order.
func (s *LLMService) Models() []models.ModelType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ModelType, 0, len(s.clients))
	for m := range s.clients {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *LLMService) For(model models.ModelType) (Completer, error) {
	s.mu.RLock()
	llm, ok := s.clients[model]
	s.mu.RUnlock()
	if !ok {
		return nil, newError(ErrNotConfigured, "no provider configured for %s", model)
	}
	return &langchainCompleter{
		model:      model,
		llm:        llm,
		limiter:    s.limiter,
		maxRetries: s.maxRetries,
		backoff:    s.backoff,
	}, nil
}

// TestConnection sends a trivial prompt and returns the reply.
func (s *LLMService) TestConnection(ctx context.Context, model models.ModelType) (string, error) {
	c, err := s.For(model)
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, []Message{
		{Role: "system", Content: "You are a helpful assistant"},
		{Role: "user", Content: "Test connection"},
	})
}

type ConnectionStatus struct {
	Model models.ModelType `json:"model_type"`
	OK    bool             `json:"ok"`
	Reply string           `json:"reply,omitempty"`
	Error string           `json:"error,omitempty"`
}

// TestConnections probes every configured provider concurrently. A failing
// provider is reported in its status, not as an error.
func (s *LLMService) TestConnections(ctx context.Context) []ConnectionStatus {
	modelTypes := s.Models()
	statuses := make([]ConnectionStatus, len(modelTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range modelTypes {
		g.Go(func() error {
			reply, err := s.TestConnection(gctx, m)
			st := ConnectionStatus{Model: m, OK: err == nil, Reply: truncate(reply, 120)}
			if err != nil {
				st.Error = err.Error()
			}
			statuses[i] = st
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

type langchainCompleter struct {
	model      models.ModelType
	llm        llms.Model
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func (c *langchainCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("completion requires at least one message")
	}
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatRole(m.Role), m.Content))
	}

	var reply string
	err := retry(ctx, c.maxRetries+1, c.backoff, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.llm.GenerateContent(ctx, content)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%s returned no choices", c.model)
		}
		text := resp.Choices[0].Content
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("%s returned an empty reply", c.model)
		}
		reply = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

func chatRole(role string) llms.ChatMessageType {
	switch strings.ToLower(role) {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant", "ai":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// retry executes f up to attempts times with exponential backoff. It gives up
// early once ctx is done.
func retry(ctx context.Context, attempts int, sleep time.Duration, f func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		if i == attempts-1 {
			break
		}
		log.Printf("⚠️ Provider error: %v. Retrying in %v...", err, sleep)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	if attempts > 1 {
		return fmt.Errorf("failed after %d attempts: %w", attempts, err)
	}
	return err
}
