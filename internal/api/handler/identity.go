package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/credence-id/credence/internal/auth"
	"github.com/credence-id/credence/internal/identity"
	"github.com/credence-id/credence/internal/ledger"
	"github.com/credence-id/credence/internal/metastore"
)

// IdentityHandler handles HTTP requests for the identity ledger.
type IdentityHandler struct {
	svc    *identity.Service
	meta   metastore.Store
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewIdentityHandler creates a new IdentityHandler.
func NewIdentityHandler(svc *identity.Service, meta metastore.Store, tokens *auth.TokenIssuer, logger *zap.Logger) *IdentityHandler {
	return &IdentityHandler{svc: svc, meta: meta, tokens: tokens, logger: logger}
}

// Register registers all identity routes on the given router group.
func (h *IdentityHandler) Register(rg *gin.RouterGroup) {
	ids := rg.Group("/identities")
	{
		ids.POST("", auth.RequirePrincipal(h.tokens), h.RegisterIdentity)
		ids.GET("/me", auth.RequirePrincipal(h.tokens), h.GetMyIdentity)
		ids.PATCH("/me", auth.RequirePrincipal(h.tokens), h.UpdateIdentity)
		ids.POST("/me/deactivate", auth.RequirePrincipal(h.tokens), h.DeactivateIdentity)
		ids.GET("/owner/:owner", h.GetByOwner)
		ids.GET("/hash/:hash", h.GetByHash)
		ids.GET("/hash/:hash/active", h.HashActive)
	}
	rg.GET("/metadata/:ref", h.GetMetadata)
}

type registerIdentityRequest struct {
	CredentialHash string          `json:"credential_hash" binding:"required"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	MetadataRef    string          `json:"metadata_ref,omitempty"`
}

// resolveMetadataRef stores an inline metadata document, if present, and
// returns its content-addressed ref. An explicit metadata_ref wins over
// inline metadata.
func (h *IdentityHandler) resolveMetadataRef(c *gin.Context, req *registerIdentityRequest) (string, bool) {
	if req.MetadataRef != "" {
		if _, err := metastore.ParseRef(req.MetadataRef); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed metadata_ref"})
			return "", false
		}
		return req.MetadataRef, true
	}
	if len(req.Metadata) == 0 {
		return "", true
	}
	ref, err := h.meta.Put(c.Request.Context(), req.Metadata)
	if err != nil {
		h.logger.Error("store metadata", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store metadata"})
		return "", false
	}
	return ref, true
}

// RegisterIdentity handles POST /identities — binds a credential hash to the caller.
func (h *IdentityHandler) RegisterIdentity(c *gin.Context) {
	var req registerIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref, ok := h.resolveMetadataRef(c, &req)
	if !ok {
		return
	}

	owner := auth.CallerPrincipal(c)
	id, err := h.svc.Register(c.Request.Context(), owner, ledger.Hash(req.CredentialHash), ref)
	if err != nil {
		writeError(c, h.logger, "register identity", err)
		return
	}

	h.refreshIdentitiesGauge(c)
	c.JSON(http.StatusCreated, gin.H{
		"id":           id,
		"owner":        owner,
		"metadata_ref": ref,
	})
}

// refreshIdentitiesGauge re-reads the identity counts after a mutation that
// changed them. A failed read only leaves the gauge stale.
func (h *IdentityHandler) refreshIdentitiesGauge(c *gin.Context) {
	active, inactive, err := h.svc.Counts(c.Request.Context())
	if err != nil {
		h.logger.Warn("refresh identities gauge", zap.Error(err))
		return
	}
	SetIdentitiesGauge("active", float64(active))
	SetIdentitiesGauge("inactive", float64(inactive))
}

// UpdateIdentity handles PATCH /identities/me — rotates the caller's credential hash.
func (h *IdentityHandler) UpdateIdentity(c *gin.Context) {
	var req registerIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref, ok := h.resolveMetadataRef(c, &req)
	if !ok {
		return
	}

	owner := auth.CallerPrincipal(c)
	if err := h.svc.Update(c.Request.Context(), owner, ledger.Hash(req.CredentialHash), ref); err != nil {
		writeError(c, h.logger, "update identity", err)
		return
	}

	ident, err := h.svc.GetByOwner(c.Request.Context(), owner)
	if err != nil {
		writeError(c, h.logger, "get identity after update", err)
		return
	}
	c.JSON(http.StatusOK, ident)
}

// DeactivateIdentity handles POST /identities/me/deactivate.
func (h *IdentityHandler) DeactivateIdentity(c *gin.Context) {
	owner := auth.CallerPrincipal(c)
	if err := h.svc.Deactivate(c.Request.Context(), owner); err != nil {
		writeError(c, h.logger, "deactivate identity", err)
		return
	}
	h.refreshIdentitiesGauge(c)
	c.JSON(http.StatusOK, gin.H{"owner": owner, "active": false})
}

// GetMyIdentity handles GET /identities/me.
func (h *IdentityHandler) GetMyIdentity(c *gin.Context) {
	ident, err := h.svc.GetByOwner(c.Request.Context(), auth.CallerPrincipal(c))
	if err != nil {
		writeError(c, h.logger, "get my identity", err)
		return
	}
	c.JSON(http.StatusOK, ident)
}

// GetByOwner handles GET /identities/owner/:owner.
func (h *IdentityHandler) GetByOwner(c *gin.Context) {
	owner := ledger.Principal(c.Param("owner"))
	ident, err := h.svc.GetByOwner(c.Request.Context(), owner)
	if err != nil {
		writeError(c, h.logger, "get identity by owner", err)
		return
	}
	c.JSON(http.StatusOK, ident)
}

// GetByHash handles GET /identities/hash/:hash.
func (h *IdentityHandler) GetByHash(c *gin.Context) {
	hash := ledger.Hash(c.Param("hash"))
	ident, err := h.svc.GetByHash(c.Request.Context(), hash)
	if err != nil {
		writeError(c, h.logger, "get identity by hash", err)
		return
	}
	c.JSON(http.StatusOK, ident)
}

// HashActive handles GET /identities/hash/:hash/active — reports whether the
// hash is bound to an active identity. Unknown hashes report false, not 404.
func (h *IdentityHandler) HashActive(c *gin.Context) {
	hash := ledger.Hash(c.Param("hash"))
	active, err := h.svc.HashIsBoundAndActive(c.Request.Context(), hash)
	if err != nil {
		writeError(c, h.logger, "check hash active", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hash": hash.Normalize(), "active": active})
}

// GetMetadata handles GET /metadata/:ref — returns a stored metadata blob.
func (h *IdentityHandler) GetMetadata(c *gin.Context) {
	data, err := h.meta.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		if errors.Is(err, metastore.ErrBadRef) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed metadata ref"})
			return
		}
		if errors.Is(err, metastore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "metadata not found"})
			return
		}
		h.logger.Error("get metadata", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load metadata"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
