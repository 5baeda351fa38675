package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pix/backend/internal/domain/shared"
)

func setupNotificationRouter(publisher shared.EventPublisher, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewNotificationHandler(publisher, secret, zap.NewNop()).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func claimNotificationBody(t *testing.T, externalID, status string) *bytes.Reader {
	t.Helper()
	return jsonBody(t, map[string]any{
		"external_id": externalID,
		"status":      status,
		"timestamp":   time.Now().UTC(),
	})
}

func TestNotificationHandler_ClaimNotification(t *testing.T) {
	publisher := new(mockEventPublisher)
	engine := setupNotificationRouter(publisher, "")

	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest("POST", "/api/v1/webhooks/directory/claims",
		claimNotificationBody(t, "EXT-001", "CANCELED"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]any)
	assert.NotEmpty(t, data["event_id"])
	publisher.AssertExpectations(t)
}

func TestNotificationHandler_ClaimNotification_UnknownStatus(t *testing.T) {
	publisher := new(mockEventPublisher)
	engine := setupNotificationRouter(publisher, "")

	req := httptest.NewRequest("POST", "/api/v1/webhooks/directory/claims",
		claimNotificationBody(t, "EXT-001", "DISPUTED"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestNotificationHandler_ClaimNotification_MissingFields(t *testing.T) {
	publisher := new(mockEventPublisher)
	engine := setupNotificationRouter(publisher, "")

	req := httptest.NewRequest("POST", "/api/v1/webhooks/directory/claims",
		bytes.NewReader([]byte(`{"status":"CANCELED"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationHandler_WebhookToken(t *testing.T) {
	publisher := new(mockEventPublisher)
	engine := setupNotificationRouter(publisher, "s3cret")

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/webhooks/directory/claims",
			claimNotificationBody(t, "EXT-001", "CANCELED"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/webhooks/directory/claims",
			claimNotificationBody(t, "EXT-001", "CANCELED"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(WebhookSignatureHeader, "wrong")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		req := httptest.NewRequest("POST", "/api/v1/webhooks/directory/claims",
			claimNotificationBody(t, "EXT-001", "CANCELED"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(WebhookSignatureHeader, "s3cret")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
	})
}

func TestNotificationHandler_ClaimNotification_PublishError(t *testing.T) {
	publisher := new(mockEventPublisher)
	engine := setupNotificationRouter(publisher, "")

	publisher.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

	req := httptest.NewRequest("POST", "/api/v1/webhooks/directory/claims",
		claimNotificationBody(t, "EXT-001", "CANCELED"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNotificationHandler_KeyNotification(t *testing.T) {
	publisher := new(mockEventPublisher)
	engine := setupNotificationRouter(publisher, "")

	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	body := jsonBody(t, map[string]any{
		"key_id":    uuid.New(),
		"accepted":  true,
		"timestamp": time.Now().UTC(),
	})
	req := httptest.NewRequest("POST", "/api/v1/webhooks/directory/keys", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	publisher.AssertExpectations(t)
}

func TestNotificationHandler_KeyNotification_RejectionVerdict(t *testing.T) {
	publisher := new(mockEventPublisher)
	engine := setupNotificationRouter(publisher, "")

	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	body := jsonBody(t, map[string]any{
		"key_id":    uuid.New(),
		"accepted":  false,
		"timestamp": time.Now().UTC(),
	})
	req := httptest.NewRequest("POST", "/api/v1/webhooks/directory/keys", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	publisher.AssertExpectations(t)
}

func TestNotificationHandler_KeyNotification_MissingKeyID(t *testing.T) {
	publisher := new(mockEventPublisher)
	engine := setupNotificationRouter(publisher, "")

	body := jsonBody(t, map[string]any{
		"accepted":  true,
		"timestamp": time.Now().UTC(),
	})
	req := httptest.NewRequest("POST", "/api/v1/webhooks/directory/keys", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
