package service

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"
	"github.com/tieubaoca/lawchat-be/types"
)

// OpenAIService talks to an OpenAI-compatible server for both chat
// completions and embeddings.
type OpenAIService struct {
	client         *openai.Client
	model          string
	embeddingModel string
	dimension      int
}

func NewOpenAIService(baseURL, apiKey, model, embeddingModel string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL // Set this to your local LLM server URL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIService{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
	}
}

func toOpenAIMessages(system string, messages []types.Message) []openai.ChatCompletionMessage {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == types.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return openaiMessages
}

func (s *OpenAIService) Invoke(ctx context.Context, system string, messages []types.Message) (*ModelResponse, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Messages: toOpenAIMessages(system, messages),
			Model:    s.model,
		},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response generated")
	}
	return &ModelResponse{
		Content: ModelContent{
			Kind: ContentKindText,
			Text: resp.Choices[0].Message.Content,
		},
		Usage: &types.TokenUsage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (s *OpenAIService) InvokeStream(ctx context.Context, system string, messages []types.Message, handler types.StreamHandler) (*ModelResponse, error) {
	stream, err := s.client.CreateChatCompletionStream(
		ctx,
		openai.ChatCompletionRequest{
			Messages: toOpenAIMessages(system, messages),
			Model:    s.model,
		},
	)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var full []byte
	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full = append(full, delta...)
		if handler != nil {
			handler(delta)
		}
	}
	return &ModelResponse{
		Content: ModelContent{
			Kind: ContentKindText,
			Text: string(full),
		},
	}, nil
}

// EmbedQuery embeds a single query string.
func (s *OpenAIService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds a batch of texts, preserving order.
func (s *OpenAIService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts to embed")
	}
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(s.embeddingModel),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.New("embedding count does not match input count")
	}
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		vectors[item.Index] = item.Embedding
	}
	if s.dimension == 0 && len(vectors[0]) > 0 {
		s.dimension = len(vectors[0])
	}
	return vectors, nil
}

func (s *OpenAIService) Dimension() int {
	return s.dimension
}
