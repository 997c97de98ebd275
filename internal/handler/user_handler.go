package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	GetUser(c *gin.Context)
	UpdatePhoto(c *gin.Context)
	UpdateAbout(c *gin.Context)
	UpdateDisplayName(c *gin.Context)
	UpdateLocation(c *gin.Context)
	AddPushToken(c *gin.Context)
	BlockUser(c *gin.Context)
	UnblockUser(c *gin.Context)
	GetContacts(c *gin.Context)
	GetNearbyUsers(c *gin.Context)
}

type userHandler struct {
	users  service.UserService
	nearby service.NearbyService
}

func NewUserHandler(users service.UserService, nearby service.NearbyService) UserHandler {
	return &userHandler{users: users, nearby: nearby}
}

func (h *userHandler) GetUser(c *gin.Context) {
	profile, err := h.users.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrInvalidID) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found", "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch user", "success": false})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *userHandler) UpdatePhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded.", "success": false})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to read file", "success": false})
		return
	}
	defer file.Close()

	url, err := h.users.UpdatePhoto(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Upload failed", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "message": "Photo upload successful", "success": true})
}

type aboutRequest struct {
	About string `json:"about"`
}

func (h *userHandler) UpdateAbout(c *gin.Context) {
	var req aboutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "success": false})
		return
	}
	if err := h.users.UpdateAbout(c.Request.Context(), c.Param("id"), req.About); err != nil {
		h.writeUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "About updated", "success": true})
}

type displayNameRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
}

func (h *userHandler) UpdateDisplayName(c *gin.Context) {
	var req displayNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "displayName is required", "success": false})
		return
	}
	if err := h.users.UpdateDisplayName(c.Request.Context(), c.Param("id"), req.DisplayName); err != nil {
		h.writeUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Display name updated", "success": true})
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (h *userHandler) UpdateLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "latitude and longitude are required", "success": false})
		return
	}
	if err := h.users.UpdateLocation(c.Request.Context(), c.Param("id"), *req.Latitude, *req.Longitude); err != nil {
		h.writeUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location updated", "success": true})
}

type pushTokenRequest struct {
	PushToken string `json:"pushToken" binding:"required"`
}

func (h *userHandler) AddPushToken(c *gin.Context) {
	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "pushToken is required", "success": false})
		return
	}
	if err := h.users.AddPushToken(c.Request.Context(), c.Param("id"), req.PushToken); err != nil {
		h.writeUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Push token registered", "success": true})
}

type blockRequest struct {
	TargetUserID string `json:"targetUserId" binding:"required"`
}

func (h *userHandler) BlockUser(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "targetUserId is required", "success": false})
		return
	}
	if err := h.users.Block(c.Request.Context(), c.Param("id"), req.TargetUserID); err != nil {
		h.writeUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "This user has been blocked", "success": true})
}

func (h *userHandler) UnblockUser(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "targetUserId is required", "success": false})
		return
	}
	if err := h.users.Unblock(c.Request.Context(), c.Param("id"), req.TargetUserID); err != nil {
		h.writeUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "This user has been unblocked", "success": true})
}

func (h *userHandler) GetContacts(c *gin.Context) {
	contacts, err := h.users.Contacts(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch contacts", "success": false})
		return
	}
	if contacts == nil {
		contacts = []string{}
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *userHandler) GetNearbyUsers(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid page number", "success": false})
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil || pageSize < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid page size", "success": false})
		return
	}

	result, err := h.nearby.FindNearby(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrInvalidID) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found", "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to find nearby users", "success": false})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *userHandler) writeUpdateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repo.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "success": false})
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, repo.ErrInvalidID):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found", "success": false})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "update failed", "success": false})
	}
}
