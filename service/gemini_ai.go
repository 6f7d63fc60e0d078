package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/tieubaoca/lawchat-be/types"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiService is the alternate language model provider. Gemini replies
// arrive as lists of typed parts, which the composer normalizes.
type GeminiService struct {
	apiKeys        []string
	currentKey     int
	client         *genai.Client
	modelName      string
	embeddingModel string
	dimension      int
	mu             sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName, embeddingModel string) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}
	service := &GeminiService{
		apiKeys:        apiKeys,
		currentKey:     0,
		modelName:      modelName,
		embeddingModel: embeddingModel,
	}
	if err := service.initClient(); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *GeminiService) initClient() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	return nil
}

func (s *GeminiService) rotateAPIKey() error {
	s.mu.Lock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.initClient()
}

// startChat maps conversation turns to a Gemini chat session. The last
// message becomes the prompt, everything before it the history.
func (s *GeminiService) startChat(system string, messages []types.Message) (*genai.ChatSession, genai.Text, error) {
	if len(messages) == 0 {
		return nil, "", errors.New("no messages to send")
	}
	model := s.client.GenerativeModel(s.modelName)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	history := make([]*genai.Content, 0, len(messages)-1)
	for _, msg := range messages[:len(messages)-1] {
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Parts: []genai.Part{genai.Text(msg.Content)},
			Role:  role,
		})
	}
	chat := model.StartChat()
	chat.History = history
	return chat, genai.Text(messages[len(messages)-1].Content), nil
}

func partsContent(resp *genai.GenerateContentResponse) ModelContent {
	content := ModelContent{Kind: ContentKindParts}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content.Parts = append(content.Parts, ContentPart{Type: "text", Text: string(text)})
			}
		}
	}
	return content
}

func (s *GeminiService) Invoke(ctx context.Context, system string, messages []types.Message) (*ModelResponse, error) {
	chat, prompt, err := s.startChat(system, messages)
	if err != nil {
		return nil, err
	}
	resp, err := chat.SendMessage(ctx, prompt)
	if err != nil {
		// Try rotating API key if there's an error
		if err := s.rotateAPIKey(); err != nil {
			return nil, err
		}
		chat, prompt, err = s.startChat(system, messages)
		if err != nil {
			return nil, err
		}
		resp, err = chat.SendMessage(ctx, prompt)
		if err != nil {
			return nil, err
		}
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("no response generated")
	}
	result := &ModelResponse{Content: partsContent(resp)}
	if resp.UsageMetadata != nil {
		result.Usage = &types.TokenUsage{
			Prompt:     int(resp.UsageMetadata.PromptTokenCount),
			Completion: int(resp.UsageMetadata.CandidatesTokenCount),
			Total:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}

func (s *GeminiService) InvokeStream(ctx context.Context, system string, messages []types.Message, handler types.StreamHandler) (*ModelResponse, error) {
	chat, prompt, err := s.startChat(system, messages)
	if err != nil {
		return nil, err
	}
	iter := chat.SendMessageStream(ctx, prompt)
	content := ModelContent{Kind: ContentKindParts}
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		chunk := partsContent(resp)
		content.Parts = append(content.Parts, chunk.Parts...)
		if handler != nil {
			if text := NormalizeContent(chunk); text != "" {
				handler(text)
			}
		}
	}
	return &ModelResponse{Content: content}, nil
}

func (s *GeminiService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *GeminiService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts to embed")
	}
	em := s.client.EmbeddingModel(s.embeddingModel)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}
	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, errors.New("embedding count does not match input count")
	}
	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}
	if s.dimension == 0 && len(vectors[0]) > 0 {
		s.dimension = len(vectors[0])
	}
	return vectors, nil
}

func (s *GeminiService) Dimension() int {
	return s.dimension
}
