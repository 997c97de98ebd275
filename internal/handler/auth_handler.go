package handler

import (
	"errors"
	"net/http"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
}

type authHandler struct {
	auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) AuthHandler {
	return &authHandler{auth: auth}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *authHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "success": false})
		return
	}

	user, token, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repo.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "registration failed", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User registered successfully",
		"data": gin.H{
			"token":    token,
			"id":       user.ID.Hex(),
			"username": user.Username,
			"email":    user.Email,
		},
		"success": true,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *authHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "success": false})
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials", "success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data": gin.H{
			"token":    token,
			"id":       user.ID.Hex(),
			"username": user.Username,
			"email":    user.Email,
		},
		"success": true,
	})
}
