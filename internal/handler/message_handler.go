package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler interface {
	GetConversation(c *gin.Context)
	SendMessage(c *gin.Context)
	GetMessages(c *gin.Context)
	MarkRead(c *gin.Context)
}

type messageHandler struct {
	chats    service.ChatService
	messages service.MessageService
}

func NewMessageHandler(chats service.ChatService, messages service.MessageService) MessageHandler {
	return &messageHandler{chats: chats, messages: messages}
}

// GetConversation resolves (creating if needed) the chat for a pair and
// returns its recent history in one call.
func (h *messageHandler) GetConversation(c *gin.Context) {
	userAID := c.Param("userAId")
	userBID := c.Param("userBId")

	chat, err := h.chats.GetOrCreateChat(c.Request.Context(), userAID, userBID)
	if err != nil {
		if errors.Is(err, repo.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to open chat", "success": false})
		return
	}

	history, err := h.messages.GetMessages(c.Request.Context(), chat.ID.Hex(), userAID, parseLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch messages", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversations fetched", "data": history, "success": true})
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage sends userA -> userB over HTTP; live clients normally use the
// socket's send_message event instead.
func (h *messageHandler) SendMessage(c *gin.Context) {
	senderID := c.Param("userAId")
	receiverID := c.Param("userBId")

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Content is required", "success": false})
		return
	}

	chat, err := h.chats.GetOrCreateChat(c.Request.Context(), senderID, receiverID)
	if err != nil {
		if errors.Is(err, repo.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to open chat", "success": false})
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), service.SendRequest{
		ChatID:     chat.ID.Hex(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    req.Content,
	})
	if err != nil {
		if errors.Is(err, repo.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to send message", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message sent", "data": msg, "success": true})
}

func (h *messageHandler) GetMessages(c *gin.Context) {
	chatID := c.Param("chatId")

	history, err := h.messages.GetMessages(c.Request.Context(), chatID, CurrentUserID(c), parseLimit(c))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrInvalidID) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Chat not found", "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch messages", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Messages fetched", "data": history, "success": true})
}

func (h *messageHandler) MarkRead(c *gin.Context) {
	chatID := c.Param("chatId")

	if err := h.messages.MarkRead(c.Request.Context(), chatID, CurrentUserID(c)); err != nil {
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrInvalidID) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Chat not found", "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to mark messages read", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read", "success": true})
}

func parseLimit(c *gin.Context) int64 {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 1 {
		return 50
	}
	return limit
}
