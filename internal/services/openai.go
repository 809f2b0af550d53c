package services

import (
	"context"
	"fmt"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// OpenAIService implements CompletionService using the OpenAI API.
type OpenAIService struct {
	client oai.Client
	model  string
}

// Compile-time interface check.
var _ CompletionService = (*OpenAIService)(nil)

// NewOpenAIService constructs a client for the given credentials. baseURL
// is optional and overrides the default API endpoint (for proxies or
// compatible servers).
func NewOpenAIService(apiKey, model, baseURL string) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}

	return &OpenAIService{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Complete implements CompletionService.
func (s *OpenAIService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var messages []oai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, oai.SystemMessage(req.System))
	}
	messages = append(messages, oai.UserMessage(req.Prompt))

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(s.model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping implements CompletionService by listing models, the cheapest
// authenticated round trip the API offers.
func (s *OpenAIService) Ping(ctx context.Context) error {
	iter := s.client.Models.ListAutoPaging(ctx)
	if iter.Next() {
		return nil
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("openai: ping: %w", err)
	}
	return nil
}
