package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/anomaly"
	"github.com/credence-id/credence/internal/auth"
	"github.com/credence-id/credence/internal/ledger"
	"github.com/credence-id/credence/internal/reputation"
)

// ReputationHandler handles HTTP requests for the reputation ledger.
type ReputationHandler struct {
	svc    *reputation.Service
	scorer anomaly.Scorer
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewReputationHandler creates a new ReputationHandler.
func NewReputationHandler(svc *reputation.Service, scorer anomaly.Scorer, tokens *auth.TokenIssuer, logger *zap.Logger) *ReputationHandler {
	return &ReputationHandler{svc: svc, scorer: scorer, tokens: tokens, logger: logger}
}

// Register registers all reputation routes on the given router group.
func (h *ReputationHandler) Register(rg *gin.RouterGroup) {
	rep := rg.Group("/reputation")
	{
		rep.POST("/events", auth.RequirePrincipal(h.tokens), h.IssueEvent)
		rep.GET("/events/:id", h.GetEvent)
		rep.GET("/accounts/:principal", h.GetAccount)
		rep.GET("/accounts/:principal/events", h.ListEvents)
		rep.GET("/accounts/:principal/anomaly", h.AnomalyReport)
	}
}

type issueEventRequest struct {
	Target      string `json:"target" binding:"required"`
	Delta       int64  `json:"delta" binding:"required"`
	EventType   string `json:"event_type" binding:"required"`
	Description string `json:"description"`
	ProofRef    string `json:"proof_ref" binding:"required"`
}

// IssueEvent handles POST /reputation/events — issuer role required.
func (h *ReputationHandler) IssueEvent(c *gin.Context) {
	var req issueEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issuer := auth.CallerPrincipal(c)
	id, err := h.svc.IssueEvent(c.Request.Context(), issuer, ledger.Principal(req.Target),
		req.Delta, req.EventType, req.Description, req.ProofRef)
	if err != nil {
		writeError(c, h.logger, "issue reputation event", err)
		return
	}

	RecordReputationEvent(req.Delta)

	acct, err := h.svc.GetAccount(c.Request.Context(), ledger.Principal(req.Target))
	if err != nil {
		writeError(c, h.logger, "get account after event", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"event_id":    id,
		"target":      req.Target,
		"total_score": acct.TotalScore,
		"trust_level": acct.TrustLevel,
	})
}

// GetAccount handles GET /reputation/accounts/:principal.
func (h *ReputationHandler) GetAccount(c *gin.Context) {
	principal := ledger.Principal(c.Param("principal"))
	acct, err := h.svc.GetAccount(c.Request.Context(), principal)
	if err != nil {
		writeError(c, h.logger, "get reputation account", err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

// ListEvents handles GET /reputation/accounts/:principal/events.
func (h *ReputationHandler) ListEvents(c *gin.Context) {
	events, err := h.svc.GetEvents(c.Request.Context(), ledger.Principal(c.Param("principal")))
	if err != nil {
		writeError(c, h.logger, "list reputation events", err)
		return
	}
	if events == nil {
		events = []*reputation.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// AnomalyReport handles GET /reputation/accounts/:principal/anomaly — runs
// the heuristic scorer over the account's full event history.
func (h *ReputationHandler) AnomalyReport(c *gin.Context) {
	principal := ledger.Principal(c.Param("principal"))

	acct, err := h.svc.GetAccount(c.Request.Context(), principal)
	if err != nil {
		writeError(c, h.logger, "get account for anomaly report", err)
		return
	}
	events, err := h.svc.GetEvents(c.Request.Context(), principal)
	if err != nil {
		writeError(c, h.logger, "list events for anomaly report", err)
		return
	}

	report, err := h.scorer.Score(c.Request.Context(), acct, events)
	if err != nil {
		h.logger.Error("anomaly score", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyse account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"principal": principal,
		"report":    report,
	})
}

// GetEvent handles GET /reputation/events/:id.
func (h *ReputationHandler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	ev, err := h.svc.GetEvent(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "get reputation event", err)
		return
	}
	c.JSON(http.StatusOK, ev)
}
