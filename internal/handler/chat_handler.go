package handler

import (
	"errors"
	"net/http"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler interface {
	GetOrCreateChat(c *gin.Context)
	GetUserChats(c *gin.Context)
	GetTotalUnread(c *gin.Context)
}

type chatHandler struct {
	chats service.ChatService
}

func NewChatHandler(chats service.ChatService) ChatHandler {
	return &chatHandler{chats: chats}
}

// GetOrCreateChat opens (or returns) the single chat between two users.
func (h *chatHandler) GetOrCreateChat(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"message": "Chat retrieved", "data": chat, "success": true})
}

func (h *chatHandler) GetUserChats(c *gin.Context) {
	userID := c.Param("userId")

	items, err := h.chats.ListChats(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repo.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list chats", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Chats fetched", "data": items, "success": true})
}

func (h *chatHandler) GetTotalUnread(c *gin.Context) {
	userID := c.Param("userId")

	total, err := h.chats.TotalUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to compute unread count", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unread count fetched", "data": gin.H{"total": total}, "success": true})
}
