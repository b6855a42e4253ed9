package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/auth"
	"github.com/credence-id/credence/internal/ledger"
)

// AuthHandler handles principal registration and token issuance.
type AuthHandler struct {
	creds  *auth.CredentialStore
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(creds *auth.CredentialStore, tokens *auth.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{creds: creds, tokens: tokens, logger: logger}
}

// Register registers the auth routes on the given router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	{
		a.POST("/register", h.RegisterPrincipal)
		a.POST("/token", h.IssueToken)
	}
}

type authRequest struct {
	Principal string `json:"principal" binding:"required"`
	Secret    string `json:"secret" binding:"required,min=12"`
}

// RegisterPrincipal handles POST /auth/register.
func (h *AuthHandler) RegisterPrincipal(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.creds.Register(c.Request.Context(), ledger.Principal(req.Principal), req.Secret); err != nil {
		writeError(c, h.logger, "register principal", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"principal": req.Principal})
}

// IssueToken handles POST /auth/token — exchanges credentials for a JWT.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal := ledger.Principal(req.Principal)
	if err := h.creds.Authenticate(c.Request.Context(), principal, req.Secret); err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("authenticate principal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	token, err := h.tokens.Issue(principal)
	if err != nil {
		h.logger.Error("issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
	})
}
