package handler

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
)

// WebhookSignatureHeader carries the Directory's shared webhook secret
const WebhookSignatureHeader = "X-Webhook-Token"

// NotificationHandler receives the Directory's asynchronous callbacks and
// republishes them on the event bus. Handlers downstream are wrapped with
// idempotent delivery, so a webhook retried by the Directory is absorbed.
type NotificationHandler struct {
	BaseHandler
	publisher shared.EventPublisher
	secret    string
	logger    *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(publisher shared.EventPublisher, secret string, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		publisher: publisher,
		secret:    secret,
		logger:    logger,
	}
}

// RegisterRoutes registers webhook routes on the given group
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks/directory")
	{
		webhooks.POST("/claims", h.ClaimNotification)
		webhooks.POST("/keys", h.KeyNotification)
	}
}

// authorize verifies the shared webhook secret when one is configured
func (h *NotificationHandler) authorize(c *gin.Context) bool {
	if h.secret == "" {
		return true
	}
	token := c.GetHeader(WebhookSignatureHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		h.Unauthorized(c, "Invalid webhook token")
		return false
	}
	return true
}

// claimNotificationRequest is the Directory's claim status callback payload
type claimNotificationRequest struct {
	ExternalID string    `json:"external_id" binding:"required"`
	Status     string    `json:"status" binding:"required"`
	Timestamp  time.Time `json:"timestamp" binding:"required"`
}

// ClaimNotification accepts a claim status change from the Directory.
// The notification is acknowledged once it is on the bus; reconciliation
// happens asynchronously.
func (h *NotificationHandler) ClaimNotification(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	var req claimNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	status := pix.ClaimStatus(req.Status)
	if !status.IsValid() {
		h.BadRequest(c, "Unknown claim status "+req.Status)
		return
	}

	notification := pix.DirectoryNotification{
		ExternalID: req.ExternalID,
		Status:     status,
		Timestamp:  req.Timestamp,
	}

	event := pix.NewDirectoryNotificationEvent(notification)
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.logger.Error("Failed to publish directory notification",
			zap.String("external_id", req.ExternalID),
			zap.Error(err))
		h.InternalError(c, "Failed to enqueue notification")
		return
	}

	h.Accepted(c, gin.H{"event_id": event.EventID()})
}

// keyNotificationRequest is the Directory's key registration verdict payload
type keyNotificationRequest struct {
	KeyID     uuid.UUID `json:"key_id" binding:"required"`
	Accepted  *bool     `json:"accepted" binding:"required"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
}

// KeyNotification accepts a key registration verdict from the Directory
func (h *NotificationHandler) KeyNotification(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	var req keyNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	notification := pix.KeyNotification{
		KeyID:     req.KeyID,
		Accepted:  *req.Accepted,
		Timestamp: req.Timestamp,
	}

	event := pix.NewDirectoryKeyNotificationEvent(notification)
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.logger.Error("Failed to publish key notification",
			zap.String("key_id", req.KeyID.String()),
			zap.Error(err))
		h.InternalError(c, "Failed to enqueue notification")
		return
	}

	h.Accepted(c, gin.H{"event_id": event.EventID()})
}
