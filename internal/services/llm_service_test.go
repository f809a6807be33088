package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justsurfingit/Resume-Journal/internal/config"
	"github.com/justsurfingit/Resume-Journal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel is an llms.Model that fails a set number of times before answering.
type scriptedModel struct {
	failures int
	reply    string
	calls    int
	last     []llms.MessageContent
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	m.last = messages
	if m.calls <= m.failures {
		return nil, errors.New("503 service unavailable")
	}
	if m.reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func testAIConfig() config.AIConfig {
	return config.AIConfig{RetryBackoff: time.Millisecond, RatePerMinute: 0}
}

func TestLLMServiceUnconfiguredProvider(t *testing.T) {
	s := newLLMService(testAIConfig())

	_, err := s.For(models.ModelOpenAI)
	assert.True(t, IsKind(err, ErrNotConfigured))
	_, err = s.TestConnection(context.Background(), models.ModelDeepSeek)
	assert.True(t, IsKind(err, ErrNotConfigured))
	assert.Empty(t, s.Models())
}

func TestLLMServiceCompleteMapsRoles(t *testing.T) {
	s := newLLMService(testAIConfig())
	m := &scriptedModel{reply: "Connection OK"}
	s.Register(models.ModelOpenAI, m)

	reply, err := s.TestConnection(context.Background(), models.ModelOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "Connection OK", reply)

	require.Len(t, m.last, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.last[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.last[1].Role)
	assert.Equal(t, llms.TextContent{Text: "Test connection"}, m.last[1].Parts[0])
}

func TestLLMServiceRetries(t *testing.T) {
	cfg := testAIConfig()
	cfg.MaxRetries = 2
	s := newLLMService(cfg)
	m := &scriptedModel{failures: 2, reply: "ok"}
	s.Register(models.ModelGemini, m)

	c, err := s.For(models.ModelGemini)
	require.NoError(t, err)
	reply, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, 3, m.calls)
}

func TestLLMServiceSingleAttemptByDefault(t *testing.T) {
	s := newLLMService(testAIConfig())
	m := &scriptedModel{failures: 1, reply: "ok"}
	s.Register(models.ModelOllama, m)

	c, err := s.For(models.ModelOllama)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.EqualError(t, err, "503 service unavailable")
	assert.Equal(t, 1, m.calls)
}

func TestLLMServiceNoChoices(t *testing.T) {
	s := newLLMService(testAIConfig())
	s.Register(models.ModelOpenAI, &scriptedModel{})

	c, err := s.For(models.ModelOpenAI)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorContains(t, err, "no choices")
}

func TestTestConnectionsReportsEveryProvider(t *testing.T) {
	s := newLLMService(testAIConfig())
	s.Register(models.ModelOpenAI, &scriptedModel{reply: "hello"})
	s.Register(models.ModelDeepSeek, &scriptedModel{failures: 1})

	statuses := s.TestConnections(context.Background())
	require.Len(t, statuses, 2)
	assert.Equal(t, models.ModelDeepSeek, statuses[0].Model)
	assert.False(t, statuses[0].OK)
	assert.Contains(t, statuses[0].Error, "503")
	assert.Equal(t, models.ModelOpenAI, statuses[1].Model)
	assert.True(t, statuses[1].OK)
	assert.Equal(t, "hello", statuses[1].Reply)
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBuildOptimizationMessagesOmitsEmptyNarrative(t *testing.T) {
	msgs := BuildOptimizationMessages([]models.Job{{ID: 4, Title: "Eng", Company: "Acme", StartDate: "2020-01", Current: true,
		Points: []models.JobPoint{{ID: 40, Point: "Shipped things"}}}}, "Go developer", " ")

	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "job_order")
	assert.NotContains(t, msgs[1].Content, "NARRATIVE")
	assert.Contains(t, msgs[1].Content, "Job [4]: Eng at Acme (Jan 2020 – Present)")
	assert.Contains(t, msgs[1].Content, "  - [40] Shipped things")
}
