package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unitledger/inventory-backend/internal/auth"
	"github.com/unitledger/inventory-backend/internal/auth/domain"
	"github.com/unitledger/inventory-backend/internal/logging"
)

// RegisterUser creates an account and returns a token for it.
func (h *Handler) RegisterUser(c *gin.Context) {
	logger := logging.NewLogger(c.Request.Context())

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "email, password and role are required"})
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), &domain.RegisterRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Phone:     req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "User already exists"})
		case errors.Is(err, domain.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid role"})
		case errors.Is(err, domain.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		case errors.Is(err, domain.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid email"})
		default:
			logger.LogError("register", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Registration failed"})
		}
		return
	}

	logger.With("user_id", user.ID).LogInfof("register", "registered %s as %s", user.Email, user.Role)
	c.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "user": user})
}

// Login exchanges credentials for a token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "email and password are required"})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
			return
		}
		logging.NewLogger(c.Request.Context()).LogError("login", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user})
}

// Me returns the current user's profile
func (h *Handler) Me(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "user not authenticated"})
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
