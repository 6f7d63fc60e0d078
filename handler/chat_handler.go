package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/lawchat-be/database"
	"github.com/tieubaoca/lawchat-be/service"
	"github.com/tieubaoca/lawchat-be/types"
)

// recentTurnsLimit bounds how much stored history is folded into a query.
const recentTurnsLimit = 6

type ChatHandler struct {
	rag           *service.RAGService
	conversations database.ConversationStore // optional
}

func NewChatHandler(rag *service.RAGService, conversations database.ConversationStore) *ChatHandler {
	return &ChatHandler{
		rag:           rag,
		conversations: conversations,
	}
}

func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Missing question",
		})
		return
	}

	recentTurns := h.loadTurns(c, &req)
	response := h.rag.Answer(c.Request.Context(), req.Question, recentTurns)
	h.persistTurn(c, req, response)

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data: types.ChatResponse{
			ChatId:   req.ChatId,
			Response: response,
		},
	})
}

// loadTurns prefers turns supplied in the request; otherwise it reads the
// tail of the stored conversation.
func (h *ChatHandler) loadTurns(c *gin.Context, req *types.ChatRequest) []types.Message {
	if len(req.Messages) > 0 {
		return req.Messages
	}
	if h.conversations == nil || req.ChatId == "" {
		return nil
	}
	turns, err := h.conversations.RecentTurns(c.Request.Context(), req.ChatId, recentTurnsLimit)
	if err != nil {
		log.Printf("Failed to load conversation %s: %v", req.ChatId, err)
		return nil
	}
	return turns
}

// persistTurn stores the question and the enriched answer. Persistence
// failure never affects the response already produced.
func (h *ChatHandler) persistTurn(c *gin.Context, req types.ChatRequest, response *types.AssistantResponse) {
	if h.conversations == nil || req.ChatId == "" {
		return
	}
	ctx := c.Request.Context()
	if err := h.conversations.AppendMessage(ctx, &database.StoredMessage{
		ConversationID:  req.ChatId,
		Role:            types.RoleUser,
		Content:         req.Question,
		ResponseVersion: types.ResponseVersion,
	}); err != nil {
		log.Printf("Failed to persist user message: %v", err)
		return
	}
	if err := h.conversations.AppendMessage(ctx, &database.StoredMessage{
		ConversationID:  req.ChatId,
		Role:            types.RoleAssistant,
		Content:         response.Answer,
		Sources:         response.Sources,
		Citations:       response.Citations,
		FollowUps:       response.FollowUps,
		Metrics:         &response.Metrics,
		Recommendations: response.Recommendations,
		ResponseVersion: response.Version,
	}); err != nil {
		log.Printf("Failed to persist assistant message: %v", err)
	}
}
