package pix

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
)

const (
	notificationMaxAttempts = 3
	notificationRetryDelay  = 50 * time.Millisecond
)

// ClaimNotificationHandler consumes Directory claim-status events from the
// bus and reconciles them onto local claims. It is wrapped with the
// idempotent handler so redelivered notifications are dropped before they
// reach the reconciliation path.
type ClaimNotificationHandler struct {
	claims *ClaimService
	logger *zap.Logger
}

// NewClaimNotificationHandler creates a new ClaimNotificationHandler
func NewClaimNotificationHandler(claims *ClaimService, logger *zap.Logger) *ClaimNotificationHandler {
	return &ClaimNotificationHandler{claims: claims, logger: logger}
}

// EventTypes returns the event types this handler subscribes to
func (h *ClaimNotificationHandler) EventTypes() []string {
	return []string{pix.EventTypeDirectoryNotice}
}

// Handle reconciles one Directory claim notification
func (h *ClaimNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	notice, ok := event.(*pix.DirectoryNotificationEvent)
	if !ok {
		h.logger.Warn("Unexpected event payload",
			zap.String("event_type", event.EventType()))
		return nil
	}

	n := pix.DirectoryNotification{
		ExternalID: notice.ExternalID,
		Status:     notice.Status,
		Timestamp:  notice.EventTime,
	}

	err := withRetry(ctx, func() error {
		return h.claims.ApplyDirectoryNotification(ctx, n)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, shared.ErrStaleNotification):
		// Expected under at-least-once delivery; not a failure
		h.logger.Debug("Discarded stale directory notification",
			zap.String("external_id", n.ExternalID),
			zap.String("status", n.Status.String()),
			zap.Time("timestamp", n.Timestamp))
		return nil
	case errors.Is(err, pix.ErrClaimNotFound):
		h.logger.Warn("Directory notification for unknown claim",
			zap.String("external_id", n.ExternalID))
		return nil
	default:
		return err
	}
}

// KeyNotificationHandler consumes the Directory's key registration verdicts
type KeyNotificationHandler struct {
	keys   *KeyService
	logger *zap.Logger
}

// NewKeyNotificationHandler creates a new KeyNotificationHandler
func NewKeyNotificationHandler(keys *KeyService, logger *zap.Logger) *KeyNotificationHandler {
	return &KeyNotificationHandler{keys: keys, logger: logger}
}

// EventTypes returns the event types this handler subscribes to
func (h *KeyNotificationHandler) EventTypes() []string {
	return []string{pix.EventTypeKeyNotice}
}

// Handle applies one Directory key registration verdict
func (h *KeyNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	notice, ok := event.(*pix.DirectoryKeyNotificationEvent)
	if !ok {
		h.logger.Warn("Unexpected event payload",
			zap.String("event_type", event.EventType()))
		return nil
	}

	err := withRetry(ctx, func() error {
		var applyErr error
		if notice.Accepted {
			_, applyErr = h.keys.ConfirmKey(ctx, notice.KeyID)
		} else {
			_, applyErr = h.keys.RejectKey(ctx, notice.KeyID)
		}
		return applyErr
	})

	var de *shared.DomainError
	if errors.As(err, &de) && de.Code == shared.CodeInvalidState {
		// Duplicate verdict for a key that already settled
		h.logger.Debug("Ignored key notification in settled state",
			zap.String("key_id", notice.KeyID.String()))
		return nil
	}
	return err
}

// withRetry retries transient failures (version conflicts, Directory
// outages) a few times before giving up
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < notificationMaxAttempts; attempt++ {
		if err = fn(); err == nil || !shared.IsRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(notificationRetryDelay << uint(attempt)):
		}
	}
	return err
}
