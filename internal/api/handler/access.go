package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/access"
	"github.com/credence-id/credence/internal/auth"
	"github.com/credence-id/credence/internal/ledger"
)

// AccessHandler handles HTTP requests for role administration.
type AccessHandler struct {
	svc    *access.Service
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(svc *access.Service, tokens *auth.TokenIssuer, logger *zap.Logger) *AccessHandler {
	return &AccessHandler{svc: svc, tokens: tokens, logger: logger}
}

// Register registers all access-control routes on the given router group.
func (h *AccessHandler) Register(rg *gin.RouterGroup) {
	ac := rg.Group("/access")
	{
		ac.POST("/grants", auth.RequirePrincipal(h.tokens), h.GrantRole)
		ac.DELETE("/grants", auth.RequirePrincipal(h.tokens), h.RevokeRole)
		ac.GET("/grants/:principal", h.ListGrants)
		ac.GET("/issuers/:principal", h.CheckIssuer)
		ac.GET("/verifiers/:principal", h.CheckVerifier)
	}
}

type grantRequest struct {
	Role      string `json:"role" binding:"required"`
	Principal string `json:"principal" binding:"required"`
}

// GrantRole handles POST /access/grants — owner only.
func (h *AccessHandler) GrantRole(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := auth.CallerPrincipal(c)
	if err := h.svc.Grant(c.Request.Context(), actor, access.Role(req.Role), ledger.Principal(req.Principal)); err != nil {
		writeError(c, h.logger, "grant role", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"role":      req.Role,
		"principal": req.Principal,
		"granted":   true,
	})
}

// RevokeRole handles DELETE /access/grants — owner only.
func (h *AccessHandler) RevokeRole(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := auth.CallerPrincipal(c)
	if err := h.svc.Revoke(c.Request.Context(), actor, access.Role(req.Role), ledger.Principal(req.Principal)); err != nil {
		writeError(c, h.logger, "revoke role", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"role":      req.Role,
		"principal": req.Principal,
		"granted":   false,
	})
}

// ListGrants handles GET /access/grants/:principal.
func (h *AccessHandler) ListGrants(c *gin.Context) {
	grants, err := h.svc.Grants(c.Request.Context(), ledger.Principal(c.Param("principal")))
	if err != nil {
		writeError(c, h.logger, "list grants", err)
		return
	}
	if grants == nil {
		grants = []*access.Grant{}
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

// CheckIssuer handles GET /access/issuers/:principal.
func (h *AccessHandler) CheckIssuer(c *gin.Context) {
	principal := ledger.Principal(c.Param("principal"))
	ok, err := h.svc.IsIssuer(c.Request.Context(), principal)
	if err != nil {
		writeError(c, h.logger, "check issuer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"principal": principal, "issuer": ok})
}

// CheckVerifier handles GET /access/verifiers/:principal.
func (h *AccessHandler) CheckVerifier(c *gin.Context) {
	principal := ledger.Principal(c.Param("principal"))
	ok, err := h.svc.IsVerifier(c.Request.Context(), principal)
	if err != nil {
		writeError(c, h.logger, "check verifier", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"principal": principal, "verifier": ok})
}
