package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pixapp "github.com/pix/backend/internal/application/pix"
	"github.com/pix/backend/internal/domain/shared"
	"github.com/pix/backend/internal/interfaces/http/dto"
)

// ClaimHandler handles claim negotiation HTTP requests
type ClaimHandler struct {
	BaseHandler
	claims      *pixapp.ClaimService
	waitTimeout time.Duration
}

// NewClaimHandler creates a new claim handler. waitTimeout caps how long a
// wait request may block regardless of the client's ask.
func NewClaimHandler(claims *pixapp.ClaimService, waitTimeout time.Duration) *ClaimHandler {
	return &ClaimHandler{claims: claims, waitTimeout: waitTimeout}
}

// RegisterRoutes registers claim routes on the given group
func (h *ClaimHandler) RegisterRoutes(rg *gin.RouterGroup) {
	claims := rg.Group("/claims")
	{
		claims.POST("", h.Start)
		claims.GET("", h.List)
		claims.GET("/:id", h.Get)
		claims.GET("/:id/wait", h.Wait)
		claims.POST("/:id/confirm", h.Confirm)
		claims.POST("/:id/cancel", h.Cancel)
	}
}

// Start opens a claim against a key held by another account
func (h *ClaimHandler) Start(c *gin.Context) {
	var req pixapp.StartClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.claims.StartClaim(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get retrieves a claim by ID
func (h *ClaimHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid claim ID")
		return
	}

	resp, err := h.claims.GetClaim(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// claimListQuery holds list filters for claims
type claimListQuery struct {
	dto.ListRequest
	Status    string `form:"status" binding:"omitempty,oneof=OPEN WAITING_RESOLUTION CONFIRMED CLOSING COMPLETED CANCELED"`
	ClaimType string `form:"claim_type" binding:"omitempty,oneof=OWNERSHIP PORTABILITY"`
	KeyValue  string `form:"key_value"`
}

// List lists claims with pagination and filters
func (h *ClaimHandler) List(c *gin.Context) {
	var query claimListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := shared.Filter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
		Filters:  map[string]interface{}{},
	}
	if query.Status != "" {
		filter.Filters["status"] = query.Status
	}
	if query.ClaimType != "" {
		filter.Filters["type"] = query.ClaimType
	}
	if query.KeyValue != "" {
		filter.Filters["key_value"] = query.KeyValue
	}

	claims, total, err := h.claims.ListClaims(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, claims, total, page, pageSize)
}

// Confirm records a party's acceptance of the claim
func (h *ClaimHandler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid claim ID")
		return
	}

	var req pixapp.ClaimActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.claims.ConfirmClaim(c.Request.Context(), id, req.Actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel cancels an open claim on behalf of either party
func (h *ClaimHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid claim ID")
		return
	}

	var req pixapp.ClaimActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.claims.CancelClaim(c.Request.Context(), id, req.Actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Wait blocks until the claim reaches a terminal status or the timeout
// elapses. A timeout is not an error; the response carries pending=true
// with the current snapshot.
func (h *ClaimHandler) Wait(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid claim ID")
		return
	}

	timeout := h.waitTimeout
	if raw := c.Query("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "Invalid timeout")
			return
		}
		if parsed < timeout {
			timeout = parsed
		}
	}

	result, err := h.claims.WaitForResolution(c.Request.Context(), id, timeout)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
