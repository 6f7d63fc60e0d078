package service

import (
	"context"
	"log"
	"strings"
	"unicode"

	"github.com/tieubaoca/lawchat-be/types"
)

// shortGreetingThreshold bounds the fast greeting path; longer messages
// that open with a greeting may still carry a real question.
const shortGreetingThreshold = 50

var defaultGreetingPatterns = []string{
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	"how are you", "what's up", "thanks", "thank you", "bye", "goodbye",
	"xin chào", "chào", "cảm ơn", "tạm biệt",
}

var defaultOffTopicPatterns = []string{
	"weather", "forecast", "temperature",
	"football", "soccer", "basketball", "sports", "match score",
	"movie", "music", "song", "celebrity",
	"recipe", "cooking",
	"thời tiết", "bóng đá", "phim", "nấu ăn",
}

var defaultDomainKeywords = []string{
	"law", "legal", "lawyer", "attorney", "court", "judge", "lawsuit",
	"contract", "article", "clause", "code", "statute", "decree", "circular",
	"civil", "criminal", "penal", "labor", "marriage", "divorce", "custody",
	"inheritance", "property", "land", "tax", "penalty", "fine", "liability",
	"rights", "obligation", "regulation", "license", "permit", "dispute",
	"luật", "pháp luật", "luật sư", "tòa án", "hợp đồng", "điều", "nghị định",
	"thông tư", "dân sự", "hình sự", "lao động", "thừa kế", "ly hôn",
}

const classifierPrompt = `You are a strict classifier for a legal assistant. Decide whether the user's question is about law, legal rights, regulations, contracts, disputes or related legal matters. Answer with exactly one word: YES or NO.`

// ClassifierService decides whether a question is within the assistant's
// legal domain. Cheap heuristics short-circuit before any model call.
type ClassifierService struct {
	llm               LanguageModel
	greetingPatterns  []string
	offTopicPatterns  []string
	domainKeywords    []string
	contextTurnsLimit int
}

func NewClassifierService(llm LanguageModel, extraKeywords []string) *ClassifierService {
	keywords := make([]string, 0, len(defaultDomainKeywords)+len(extraKeywords))
	keywords = append(keywords, defaultDomainKeywords...)
	keywords = append(keywords, extraKeywords...)
	greetings := make([]string, len(defaultGreetingPatterns))
	for i, pattern := range defaultGreetingPatterns {
		greetings[i] = foldWords(pattern)
	}
	return &ClassifierService{
		llm:               llm,
		greetingPatterns:  greetings,
		offTopicPatterns:  defaultOffTopicPatterns,
		domainKeywords:    keywords,
		contextTurnsLimit: 4,
	}
}

// foldWords reduces text to space-separated word tokens with a leading and
// trailing space, so greeting patterns only match whole words. Raw
// substring matching over-matches: "hi" occurs inside "this" and "which".
func foldWords(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return " " + strings.Join(words, " ") + " "
}

// IsInDomain applies, in order: greeting fast path, off-topic patterns,
// domain keywords, then a YES/NO model classification. A model failure
// falls back to the keyword result and never reaches the caller.
func (s *ClassifierService) IsInDomain(ctx context.Context, question string, recentTurns []types.Message) bool {
	normalized := strings.ToLower(strings.TrimSpace(question))
	if normalized == "" {
		return false
	}

	if len(normalized) < shortGreetingThreshold {
		folded := foldWords(normalized)
		for _, pattern := range s.greetingPatterns {
			if strings.Contains(folded, pattern) {
				return false
			}
		}
	}

	for _, pattern := range s.offTopicPatterns {
		if strings.Contains(normalized, pattern) {
			return false
		}
	}

	for _, keyword := range s.domainKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}

	return s.classifyWithModel(ctx, question, recentTurns)
}

func (s *ClassifierService) classifyWithModel(ctx context.Context, question string, recentTurns []types.Message) bool {
	messages := make([]types.Message, 0, s.contextTurnsLimit+1)
	if n := len(recentTurns); n > 0 {
		start := n - s.contextTurnsLimit
		if start < 0 {
			start = 0
		}
		messages = append(messages, recentTurns[start:]...)
	}
	messages = append(messages, types.Message{Role: types.RoleUser, Content: question})

	resp, err := s.llm.Invoke(ctx, classifierPrompt, messages)
	if err != nil {
		log.Printf("Classifier model call failed, falling back to keywords: %v", err)
		// Keyword matching already said no by the time we get here
		return false
	}
	answer := strings.ToUpper(NormalizeContent(resp.Content))
	return strings.Contains(answer, "YES")
}
