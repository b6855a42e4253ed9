package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/auth"
	"github.com/credence-id/credence/internal/ledger"
	"github.com/credence-id/credence/internal/verification"
)

// VerificationHandler handles HTTP requests for the verification workflow.
type VerificationHandler struct {
	svc    *verification.Service
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewVerificationHandler creates a new VerificationHandler.
func NewVerificationHandler(svc *verification.Service, tokens *auth.TokenIssuer, logger *zap.Logger) *VerificationHandler {
	return &VerificationHandler{svc: svc, tokens: tokens, logger: logger}
}

// Register registers all verification routes on the given router group.
func (h *VerificationHandler) Register(rg *gin.RouterGroup) {
	ver := rg.Group("/verifications")
	{
		ver.POST("", auth.RequirePrincipal(h.tokens), h.RequestVerification)
		ver.GET("/:id", h.GetRequest)
		ver.POST("/:id/complete", auth.RequirePrincipal(h.tokens), h.CompleteVerification)
	}
	creds := rg.Group("/credentials")
	{
		creds.GET("/:hash/status", h.CredentialStatus)
		creds.POST("/status/batch", h.BatchCredentialStatus)
	}
}

type requestVerificationRequest struct {
	CredentialHash   string                     `json:"credential_hash" binding:"required"`
	VerificationType string                     `json:"verification_type" binding:"required"`
	Proof            verification.Proof         `json:"proof"`
	PublicSignals    verification.PublicSignals `json:"public_signals"`
}

// RequestVerification handles POST /verifications.
func (h *VerificationHandler) RequestVerification(c *gin.Context) {
	var req requestVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requester := auth.CallerPrincipal(c)
	id, err := h.svc.RequestVerification(c.Request.Context(), requester,
		ledger.Hash(req.CredentialHash), req.VerificationType, req.Proof, req.PublicSignals)
	if err != nil {
		writeError(c, h.logger, "request verification", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"request_id": id,
		"state":      verification.StatePending,
	})
}

type completeVerificationRequest struct {
	Verified  *bool  `json:"verified" binding:"required"`
	ResultRef string `json:"result_ref"`
}

// CompleteVerification handles POST /verifications/:id/complete — verifier role required.
func (h *VerificationHandler) CompleteVerification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req completeVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verifier := auth.CallerPrincipal(c)
	if err := h.svc.CompleteVerification(c.Request.Context(), verifier, id, *req.Verified, req.ResultRef); err != nil {
		writeError(c, h.logger, "complete verification", err)
		return
	}

	RecordVerification(*req.Verified)
	c.JSON(http.StatusOK, gin.H{
		"request_id": id,
		"state":      verification.StateCompleted,
		"verified":   *req.Verified,
	})
}

// GetRequest handles GET /verifications/:id.
func (h *VerificationHandler) GetRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	req, err := h.svc.GetRequest(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "get verification request", err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// CredentialStatus handles GET /credentials/:hash/status. Unknown hashes
// report verified=false with a zero count rather than 404.
func (h *VerificationHandler) CredentialStatus(c *gin.Context) {
	hash := ledger.Hash(c.Param("hash"))

	verified, err := h.svc.IsCredentialVerified(c.Request.Context(), hash)
	if err != nil {
		writeError(c, h.logger, "credential status", err)
		return
	}
	count, err := h.svc.VerificationCount(c.Request.Context(), hash)
	if err != nil {
		writeError(c, h.logger, "credential verification count", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"credential_hash":    hash.Normalize(),
		"verified":           verified,
		"verification_count": count,
	})
}

type batchStatusRequest struct {
	Hashes []string `json:"hashes" binding:"required"`
}

// BatchCredentialStatus handles POST /credentials/status/batch.
func (h *VerificationHandler) BatchCredentialStatus(c *gin.Context) {
	var req batchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Hashes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hashes must be non-empty"})
		return
	}
	if len(req.Hashes) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most 100 hashes per batch"})
		return
	}

	hashes := make([]ledger.Hash, len(req.Hashes))
	for i, hs := range req.Hashes {
		hashes[i] = ledger.Hash(hs)
	}

	results, err := h.svc.AreCredentialsVerified(c.Request.Context(), hashes)
	if err != nil {
		writeError(c, h.logger, "batch credential status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": results})
}
