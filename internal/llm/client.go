package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
)

// Client talks to the Anthropic Messages API with temperature pinned to 0.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int
	logger    *logrus.Logger
}

func NewClient(apiKey, model string, maxTokens int, logger *logrus.Logger, opts ...option.RequestOption) *Client {
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	requestOptions := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(120 * time.Second),
	}
	requestOptions = append(requestOptions, opts...)

	return &Client{
		client:    anthropic.NewClient(requestOptions...),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one request and concatenates the text blocks of the reply.
func (c *Client) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(c.maxTokens),
		Messages:    toAnthropicMessages(messages),
		Temperature: anthropic.Float(0),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	c.logger.WithFields(logrus.Fields{
		"model":         c.model,
		"message_count": len(messages),
		"system_size":   len(system),
	}).Debug("Making chat completion request")

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"model":         c.model,
		"stop_reason":   resp.StopReason,
		"response_size": reply.Len(),
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Debug("Chat completion received")

	if reply.Len() == 0 {
		return "", fmt.Errorf("chat completion returned no text")
	}

	return reply.String(), nil
}

func toAnthropicMessages(messages []Message) []anthropic.MessageParam {
	converted := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return converted
}

var _ ChatModel = (*Client)(nil)
