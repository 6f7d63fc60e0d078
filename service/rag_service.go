package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/tieubaoca/lawchat-be/database"
	"github.com/tieubaoca/lawchat-be/types"
	"github.com/tieubaoca/lawchat-be/utils"
)

const (
	sourceType        = "document"
	snippetMaxLength  = 200
	generalConfidence = 0.5
	maxConfidence     = 0.95

	noInformationAnswer = "I could not find any information about that in the legal reference corpus. Please try rephrasing your question or ask about another legal topic."
	userSafeErrorAnswer = "Something went wrong while answering your question. Please try again."
)

const domainSystemPrompt = `You are a legal assistant answering questions strictly from the provided reference context. Rules:
- Answer only from the context below; if the context does not cover the question, say so.
- Be precise about article numbers, clauses and legal terms.
- Structure the answer with markdown: use headings for distinct topics and bullet lists for enumerations.
- Do not invent citations or legal provisions.`

const generalSystemPrompt = `You are a friendly legal assistant. The user's message is not a legal question. Respond naturally and briefly. If this is a greeting, introduce yourself and mention that you answer questions about law and legal regulations.`

const followUpPrompt = `Based on the answer above, suggest exactly 3 short follow-up questions the user might ask next. Write one question per line with no numbering and no other text.`

const recommendationPrompt = `Based on the legal question and answer above, recommend lawyers or legal specializations that could help the user further. Respond with JSON only, no prose, in this exact shape:
{"lawyerRecommendations": [{"name": "", "specialization": "", "reason": ""}]}
Return {"lawyerRecommendations": []} if no referral is warranted.`

// RAGService is the query pipeline: classification, retrieval, context
// assembly, generation and citation enrichment.
type RAGService struct {
	classifier *ClassifierService
	llm        LanguageModel
	embedder   Embedder
	vectorDB   database.VectorDatabase
	search     *SearchService // optional, enriches recommendations
	topK       int
}

func NewRAGService(
	classifier *ClassifierService,
	llm LanguageModel,
	embedder Embedder,
	vectorDB database.VectorDatabase,
	search *SearchService,
	topK int,
) *RAGService {
	if topK <= 0 {
		topK = 5
	}
	return &RAGService{
		classifier: classifier,
		llm:        llm,
		embedder:   embedder,
		vectorDB:   vectorDB,
		search:     search,
		topK:       topK,
	}
}

// Answer runs the full pipeline for one question. It always returns a
// well-formed response; failures surface as a status error response, never
// as a raw error.
func (s *RAGService) Answer(ctx context.Context, question string, recentTurns []types.Message) *types.AssistantResponse {
	return s.answer(ctx, question, recentTurns, nil, nil)
}

func (s *RAGService) answer(
	ctx context.Context,
	question string,
	recentTurns []types.Message,
	onToken types.StreamHandler,
	onMetadata types.MetadataHandler,
) (response *types.AssistantResponse) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Answer pipeline panicked: %v", r)
			response = errorResponse(start)
		}
	}()

	if !s.classifier.IsInDomain(ctx, question, recentTurns) {
		return s.generalAnswer(ctx, question, recentTurns, onToken, start)
	}

	docs, err := s.retrieve(ctx, question)
	if err != nil {
		log.Printf("Retrieval failed: %v", err)
		return errorResponse(start)
	}

	if len(docs) == 0 && len(recentTurns) == 0 {
		return &types.AssistantResponse{
			Status:    types.StatusComplete,
			Answer:    noInformationAnswer,
			Citations: []types.Citation{},
			Sources:   []types.EnhancedSource{},
			FollowUps: []string{},
			Metrics: types.ResponseMetrics{
				Confidence:       0,
				ProcessingTimeMs: time.Since(start).Milliseconds(),
			},
			Version: types.ResponseVersion,
		}
	}

	sources := buildSources(docs)
	confidence := computeConfidence(len(docs))
	if onMetadata != nil {
		onMetadata(types.StreamMetadata{Sources: sources, Confidence: confidence})
	}

	if err := ctx.Err(); err != nil {
		log.Printf("Answer cancelled before generation: %v", err)
		return errorResponse(start)
	}

	prompt := buildContextPrompt(docs, recentTurns)
	messages := []types.Message{{Role: types.RoleUser, Content: prompt + "\n\nQuestion: " + question}}
	resp, err := s.invoke(ctx, domainSystemPrompt, messages, onToken)
	if err != nil {
		log.Printf("Answer generation failed: %v", err)
		return errorResponse(start)
	}
	answerText := strings.TrimSpace(NormalizeContent(resp.Content))

	answerText, citations := attachCitations(answerText, sources)

	followUps, recommendations := s.enrich(ctx, question, answerText)

	metrics := types.ResponseMetrics{
		Confidence:       confidence,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		TokenUsage:       resp.Usage,
	}
	return &types.AssistantResponse{
		Status:          types.StatusComplete,
		Answer:          answerText,
		Citations:       citations,
		Sources:         sources,
		FollowUps:       followUps,
		Metrics:         metrics,
		Recommendations: recommendations,
		Version:         types.ResponseVersion,
	}
}

// generalAnswer handles out-of-domain questions without touching the index.
func (s *RAGService) generalAnswer(
	ctx context.Context,
	question string,
	recentTurns []types.Message,
	onToken types.StreamHandler,
	start time.Time,
) *types.AssistantResponse {
	messages := make([]types.Message, 0, len(recentTurns)+1)
	messages = append(messages, recentTurns...)
	messages = append(messages, types.Message{Role: types.RoleUser, Content: question})

	resp, err := s.invoke(ctx, generalSystemPrompt, messages, onToken)
	if err != nil {
		log.Printf("General answer failed: %v", err)
		return errorResponse(start)
	}
	return &types.AssistantResponse{
		Status:    types.StatusComplete,
		Answer:    strings.TrimSpace(NormalizeContent(resp.Content)),
		Citations: []types.Citation{},
		Sources:   []types.EnhancedSource{},
		FollowUps: []string{},
		Metrics: types.ResponseMetrics{
			Confidence:       generalConfidence,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			TokenUsage:       resp.Usage,
		},
		Version: types.ResponseVersion,
	}
}

func (s *RAGService) invoke(ctx context.Context, system string, messages []types.Message, onToken types.StreamHandler) (*ModelResponse, error) {
	if onToken != nil {
		return s.llm.InvokeStream(ctx, system, messages, onToken)
	}
	return s.llm.Invoke(ctx, system, messages)
}

// retrieve embeds the question and queries the index. An empty result is
// not an error; a provider failure is, and the caller converts it into a
// user-safe error response instead of propagating it.
func (s *RAGService) retrieve(ctx context.Context, question string) ([]types.RetrievedDoc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	docs, err := s.vectorDB.Query(ctx, vector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	return docs, nil
}

// Search exposes raw similarity search for the documents endpoint.
func (s *RAGService) Search(ctx context.Context, query string, limit int) ([]types.RetrievedDoc, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if limit <= 0 {
		limit = s.topK
	}
	return s.vectorDB.Query(ctx, vector, limit)
}

// enrich generates follow-up questions and recommendations. Both depend
// only on the final answer and run concurrently; either degrades to empty
// on failure without affecting the primary answer.
func (s *RAGService) enrich(ctx context.Context, question, answer string) ([]string, []types.LawyerRecommendation) {
	followUps := []string{}
	var recommendations []types.LawyerRecommendation

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		followUps = s.generateFollowUps(ctx, question, answer)
	}()
	go func() {
		defer wg.Done()
		recommendations = s.generateRecommendations(ctx, question, answer)
	}()
	wg.Wait()
	return followUps, recommendations
}

func (s *RAGService) generateFollowUps(ctx context.Context, question, answer string) []string {
	messages := []types.Message{
		{Role: types.RoleUser, Content: question},
		{Role: types.RoleAssistant, Content: answer},
		{Role: types.RoleUser, Content: followUpPrompt},
	}
	resp, err := s.llm.Invoke(ctx, "", messages)
	if err != nil {
		log.Printf("Follow-up generation failed: %v", err)
		return []string{}
	}
	return ParseFollowUps(NormalizeContent(resp.Content))
}

// ParseFollowUps splits a model reply into at most 3 non-empty questions.
func ParseFollowUps(text string) []string {
	followUps := make([]string, 0, 3)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		followUps = append(followUps, line)
		if len(followUps) == 3 {
			break
		}
	}
	return followUps
}

func (s *RAGService) generateRecommendations(ctx context.Context, question, answer string) []types.LawyerRecommendation {
	messages := []types.Message{
		{Role: types.RoleUser, Content: question},
		{Role: types.RoleAssistant, Content: answer},
		{Role: types.RoleUser, Content: recommendationPrompt},
	}
	resp, err := s.llm.Invoke(ctx, "", messages)
	if err != nil {
		log.Printf("Recommendation generation failed: %v", err)
		return nil
	}
	recommendations := ParseRecommendations(NormalizeContent(resp.Content))
	return s.attachProfileLinks(ctx, recommendations)
}

// ParseRecommendations decodes the model's JSON reply, stripping any
// surrounding code fence first. A parse failure degrades to an empty list.
func ParseRecommendations(raw string) []types.LawyerRecommendation {
	cleaned := utils.StripCodeFence(raw)
	var payload struct {
		LawyerRecommendations []types.LawyerRecommendation `json:"lawyerRecommendations"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		log.Printf("Failed to parse recommendations, raw response: %s", utils.TruncateString(raw, 500))
		return nil
	}
	return payload.LawyerRecommendations
}

// attachProfileLinks looks up a public profile for each recommendation via
// web search when configured. Lookup failure leaves the link empty.
func (s *RAGService) attachProfileLinks(ctx context.Context, recommendations []types.LawyerRecommendation) []types.LawyerRecommendation {
	if s.search == nil {
		return recommendations
	}
	for i := range recommendations {
		if i >= 3 {
			break
		}
		query := fmt.Sprintf("%s %s lawyer", recommendations[i].Name, recommendations[i].Specialization)
		results, err := s.search.Search(ctx, query)
		if err != nil {
			log.Printf("Profile lookup failed for %q: %v", recommendations[i].Name, err)
			continue
		}
		if len(results) > 0 {
			recommendations[i].ProfileURL = results[0].Link
		}
	}
	return recommendations
}

// buildContextPrompt labels each retrieved chunk with its page number and
// folds in recent conversation turns.
func buildContextPrompt(docs []types.RetrievedDoc, recentTurns []types.Message) string {
	var sb strings.Builder
	sb.WriteString("Reference context:\n")
	for _, doc := range docs {
		fmt.Fprintf(&sb, "[%s, page %d] %s\n\n", doc.Metadata.Title, doc.Metadata.PageNum, doc.Content)
	}
	if len(recentTurns) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, turn := range recentTurns {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
		}
	}
	return sb.String()
}

// buildSources derives citation-ready sources from retrieval hits. The id
// is reproducible from page and content so identical passages always cite
// identically. Rank decay supplies a score only when the index marked it
// unknown; a real score of 0 is kept as-is.
func buildSources(docs []types.RetrievedDoc) []types.EnhancedSource {
	sources := make([]types.EnhancedSource, 0, len(docs))
	for rank, doc := range docs {
		score := doc.Score
		if score == types.ScoreUnknown {
			score = rankScore(rank)
		}
		sources = append(sources, types.EnhancedSource{
			ID:      fmt.Sprintf("%s:%d:%s", sourceType, doc.Metadata.PageNum, utils.ContentHash(doc.Content)),
			Title:   doc.Metadata.Title,
			Page:    doc.Metadata.PageNum,
			Snippet: utils.TruncateString(doc.Content, snippetMaxLength),
			Score:   score,
		})
	}
	return sources
}

func rankScore(rank int) float32 {
	score := 0.9 - 0.2*float32(rank)
	if score < 0.1 {
		score = 0.1
	}
	return score
}

// attachCitations appends one bracketed marker per source, in source
// order, and records the matching citation entries.
func attachCitations(answer string, sources []types.EnhancedSource) (string, []types.Citation) {
	citations := make([]types.Citation, 0, len(sources))
	var markers strings.Builder
	for i, source := range sources {
		marker := i + 1
		citations = append(citations, types.Citation{
			Marker:   marker,
			SourceID: source.ID,
		})
		fmt.Fprintf(&markers, " [%d]", marker)
	}
	if markers.Len() > 0 {
		answer += "\n" + strings.TrimSpace(markers.String())
	}
	return answer, citations
}

// computeConfidence is a heuristic over retrieval strength, not a
// calibrated probability.
func computeConfidence(retrievedCount int) float32 {
	if retrievedCount == 0 {
		return 0
	}
	confidence := 0.6 + 0.1*float32(retrievedCount)
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return confidence
}

func errorResponse(start time.Time) *types.AssistantResponse {
	return &types.AssistantResponse{
		Status:    types.StatusError,
		Answer:    userSafeErrorAnswer,
		Citations: []types.Citation{},
		Sources:   []types.EnhancedSource{},
		FollowUps: []string{},
		Metrics: types.ResponseMetrics{
			Confidence:       0,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		},
		Version: types.ResponseVersion,
	}
}
