package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrEmptyRequest = errors.New("question context or chat history is required")
	ErrNoChoices    = errors.New("tutor model returned no choices")
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

type Message struct {
	Role    Role   `json:"role" binding:"required,oneof=student tutor"`
	Content string `json:"content" binding:"required"`
}

type Flags struct {
	TipRequested       bool `json:"tip_requested"`
	SummariseRequested bool `json:"summarise_requested"`
}

// Request carries the question the student is looking at and the
// conversation so far.
type Request struct {
	QuestionContext string    `json:"question_context"`
	ChatHistory     []Message `json:"chat_history" binding:"dive"`
	Flags           Flags     `json:"flags"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Response struct {
	Message      string `json:"message"`
	UsageMetrics Usage  `json:"usage_metrics"`
}

// Client wraps an OpenAI-compatible chat completion API. Gemini is reached
// through its OpenAI-compatible base URL.
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

func New(baseURL, apiKey, modelName string, logger *slog.Logger) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:    openai.NewClientWithConfig(config),
		model:  modelName,
		logger: logger.With("component", "tutor"),
	}
}

// Chat sends one tutoring turn. Calls are not retried.
func (c *Client) Chat(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.QuestionContext) == "" && len(req.ChatHistory) == 0 {
		return nil, ErrEmptyRequest
	}

	chatMsgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(req)},
	}
	for _, m := range req.ChatHistory {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleTutor {
			role = openai.ChatMessageRoleAssistant
		}
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}
	if instruction := modeInstruction(req.Flags); instruction != "" {
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: instruction,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMsgs,
		Temperature: temperatureFor(req.Flags),
	})
	if err != nil {
		return nil, fmt.Errorf("tutor API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	msg := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.DebugContext(ctx, "Tutor response", "model", c.model, "total_tokens", resp.Usage.TotalTokens)

	return &Response{
		Message: msg,
		UsageMetrics: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func temperatureFor(f Flags) float32 {
	if f.SummariseRequested {
		return 0.2
	}
	return 0.5
}
