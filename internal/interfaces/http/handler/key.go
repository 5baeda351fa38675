package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pixapp "github.com/pix/backend/internal/application/pix"
	"github.com/pix/backend/internal/domain/shared"
	"github.com/pix/backend/internal/interfaces/http/dto"
)

// KeyHandler handles Pix key lifecycle HTTP requests
type KeyHandler struct {
	BaseHandler
	keys *pixapp.KeyService
}

// NewKeyHandler creates a new key handler
func NewKeyHandler(keys *pixapp.KeyService) *KeyHandler {
	return &KeyHandler{keys: keys}
}

// RegisterRoutes registers key routes on the given group
func (h *KeyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	keys := rg.Group("/keys")
	{
		keys.POST("", h.Register)
		keys.GET("", h.List)
		keys.GET("/resolve", h.Resolve)
		keys.GET("/:id", h.Get)
		keys.DELETE("/:id", h.Delete)
	}
}

// Register creates a tentative key registration. The key stays PENDING until
// the Directory answers through the webhook.
func (h *KeyHandler) Register(c *gin.Context) {
	var req pixapp.RegisterKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.keys.RegisterKey(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get retrieves a key by ID
func (h *KeyHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid key ID")
		return
	}

	resp, err := h.keys.GetKey(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Resolve looks up the active key holding an alias. The alias travels as a
// query parameter because email aliases contain path-hostile characters.
func (h *KeyHandler) Resolve(c *gin.Context) {
	value := c.Query("value")
	if value == "" {
		h.BadRequest(c, "Missing value query parameter")
		return
	}

	resp, err := h.keys.GetKeyByValue(c.Request.Context(), value)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// keyListQuery holds list filters for keys
type keyListQuery struct {
	dto.ListRequest
	State   string `form:"state" binding:"omitempty,oneof=PENDING ADDED CLAIM_PENDING CLAIM_CLOSING CANCELED DELETED"`
	KeyType string `form:"key_type" binding:"omitempty,oneof=CPF CNPJ PHONE EMAIL EVP"`
}

// List lists the authenticated user's keys
func (h *KeyHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query keyListQuery
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
	if query.State != "" {
		filter.Filters["state"] = query.State
	}
	if query.KeyType != "" {
		filter.Filters["key_type"] = query.KeyType
	}

	keys, total, err := h.keys.ListKeys(c.Request.Context(), userID, filter)
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
	h.SuccessWithMeta(c, keys, total, page, pageSize)
}

// deleteKeyRequest carries the acting account for a key deletion
type deleteKeyRequest struct {
	Actor pixapp.AccountRequest `json:"actor" binding:"required"`
}

// Delete releases a key at the owner's request
func (h *KeyHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid key ID")
		return
	}

	var req deleteKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.keys.DeleteKey(c.Request.Context(), id, req.Actor); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
