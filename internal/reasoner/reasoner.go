package reasoner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/analysis"
)

const (
	defaultModel   = openai.GPT3Dot5Turbo
	defaultTimeout = 30 * time.Second
	maxInputRunes  = 1500
	maxTokens      = 120
)

var ErrEmptyCompletion = errors.New("empty completion")

const systemPrompt = `You review news snippets that an automated pipeline has already scored.
Given the text and the pipeline verdict, explain in at most two sentences why the text may or may not be credible.
Do not restate the numbers. Reply with plain text only.`

// Reasoner 为一条已经判定的文本生成简短说明，失败不影响主流程
type Reasoner interface {
	Explain(ctx context.Context, text string, v analysis.Verdict) (string, error)
}

type OpenAIReasoner struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

var _ Reasoner = (*OpenAIReasoner)(nil)

// NewOpenAI apiKey 为空时返回 nil，调用方据此跳过 ai_reasoning
func NewOpenAI(apiKey, baseURL, model string) *OpenAIReasoner {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAIReasoner{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: defaultTimeout,
	}
}

func (r *OpenAIReasoner) Explain(ctx context.Context, text string, v analysis.Verdict) (string, error) {
	if r == nil || r.client == nil {
		return "", errors.New("reasoner not configured")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if rs := []rune(text); len(rs) > maxInputRunes {
		text = string(rs[:maxInputRunes])
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(text, v)},
		},
		Temperature: 0.2,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

func userPrompt(text string, v analysis.Verdict) string {
	return fmt.Sprintf("Verdict: sentiment=%s is_fake=%t credibility=%.2f\n\nText:\n%s",
		v.Sentiment, v.IsFake, v.CredibilityScore, text)
}
