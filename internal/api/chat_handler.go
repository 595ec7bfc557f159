package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chatdocs/chatdocs/internal/domain"
	"github.com/chatdocs/chatdocs/internal/qa"
	"github.com/chatdocs/chatdocs/internal/service"
)

// ChatHandler handles single-shot and streaming chat requests
type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
	upgrader    websocket.Upgrader
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Chat)
	r.POST("/chatno", h.ChatDirect)
	r.GET("/stream-chat/:knowledge_base_id", h.StreamChat)
}

// Chat runs one retrieval-augmented exchange and returns the final answer
// with the updated history and rendered citations.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chatService.Chat(c.Request.Context(), req.KnowledgeBaseID, req.Question, req.History)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Knowledge base %s not found", req.KnowledgeBaseID)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, msg)
}

// ChatDirect runs one exchange without retrieval.
func (h *ChatHandler) ChatDirect(c *gin.Context) {
	var req domain.DirectChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chatService.ChatDirect(c.Request.Context(), req.Question, req.History)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, msg)
}

// StreamChat runs a multi-turn session over a WebSocket. Each inbound text
// frame is a question; the server brackets every turn with start/end control
// frames and streams the answer between them as incremental text deltas.
func (h *ChatHandler) StreamChat(c *gin.Context) {
	knowledgeBaseID := c.Param("knowledge_base_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if !h.chatService.HasIndex(knowledgeBaseID) {
		conn.WriteJSON(domain.StreamError{Error: fmt.Sprintf("Knowledge base %s not found", knowledgeBaseID)})
		return
	}

	session := h.chatService.OpenSession(knowledgeBaseID, domain.SessionKindStream)
	var history domain.History
	for turn := 1; ; turn++ {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			// transport closed, session over
			return
		}
		question := string(payload)

		if err := conn.WriteJSON(domain.StreamControl{
			Question: question,
			Turn:     turn,
			Flag:     domain.StreamFlagStart,
		}); err != nil {
			return
		}

		final, err := h.streamTurn(c, conn, knowledgeBaseID, question, history)
		if err != nil {
			conn.WriteJSON(domain.StreamError{Error: err.Error()})
			return
		}

		if err := conn.WriteJSON(domain.StreamControl{
			Question:        question,
			Turn:            turn,
			Flag:            domain.StreamFlagEnd,
			SourceDocuments: domain.RenderSources(final.Sources),
		}); err != nil {
			return
		}

		history = append(history, domain.NewTurn(question, final.Answer))
		h.chatService.RecordTurn(session, question, final.Answer, final.Sources)
	}
}

// streamTurn drives one turn, writing only the newly appended suffix of the
// accumulating answer after each partial.
func (h *ChatHandler) streamTurn(c *gin.Context, conn *websocket.Conn, knowledgeBaseID, question string, history domain.History) (qa.Partial, error) {
	stream, err := h.chatService.StreamTurn(c.Request.Context(), knowledgeBaseID, question, history)
	if err != nil {
		return qa.Partial{}, err
	}

	var final qa.Partial
	var sent int
	for partial := range stream {
		if partial.Err != nil {
			return qa.Partial{}, partial.Err
		}
		if len(partial.Answer) > sent {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(partial.Answer[sent:])); err != nil {
				return qa.Partial{}, err
			}
			sent = len(partial.Answer)
		}
		if partial.Final {
			final = partial
		}
	}
	return final, nil
}
