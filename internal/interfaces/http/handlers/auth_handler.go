package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridiancap/riskradar/internal/domain/user"
	"github.com/meridiancap/riskradar/internal/infrastructure/auth"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/internal/interfaces/http/middleware"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// AuthHandler serves login and identity endpoints.
type AuthHandler struct {
	users  user.Repository
	tokens *auth.TokenManager
	log    logging.Logger
}

// NewAuthHandler builds the handler.
func NewAuthHandler(users user.Repository, tokens *auth.TokenManager, log logging.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log.Named("auth")}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token       string `json:"token"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Login verifies the credentials and issues a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation("username and password are required"))
		return
	}

	u, err := h.users.FindByUsername(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		// Same response for unknown user and bad password.
		respondError(c, errors.Unauthorized("invalid credentials"))
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.Info("user logged in", logging.String("username", u.Username))
	c.JSON(http.StatusOK, loginResponse{
		Token:       token,
		Username:    u.Username,
		DisplayName: u.DisplayName,
	})
}

// Me returns the authenticated caller's identity.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.users.FindByID(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if u == nil {
		respondError(c, errors.Unauthorized("account no longer exists"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           u.ID,
		"username":     u.Username,
		"display_name": u.DisplayName,
	})
}

// Logout acknowledges the client-side token discard.  Tokens are stateless;
// nothing is revoked server-side.
func (h *AuthHandler) Logout(c *gin.Context) {
	if username, ok := c.Get(middleware.ContextUsername); ok {
		h.log.Info("user logged out", logging.Any("username", username))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
