package pix

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
)

// ClaimService orchestrates the claim negotiation protocol.
//
// Per-claim serialization relies on the repositories' optimistic version
// checks: competing transitions lose with a retryable CONCURRENT_MODIFICATION
// error or are absorbed by the monotonic reconciliation rules. Directory
// calls never run inside a transaction.
type ClaimService struct {
	claimRepo pix.ClaimRepository
	keyRepo   pix.KeyRepository
	directory pix.DirectoryGateway
	policy    ClaimPolicy
	waiter    *ClaimWaiter
	logger    *zap.Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	claimRepo pix.ClaimRepository,
	keyRepo pix.KeyRepository,
	directory pix.DirectoryGateway,
	policy ClaimPolicy,
	waiter *ClaimWaiter,
	logger *zap.Logger,
) *ClaimService {
	return &ClaimService{
		claimRepo: claimRepo,
		keyRepo:   keyRepo,
		directory: directory,
		policy:    policy,
		waiter:    waiter,
		logger:    logger,
	}
}

// StartClaim opens a claim against a key owned elsewhere.
//
// The claim and the key's CLAIM_PENDING transition are committed first; the
// Directory request follows outside the transaction. If the Directory cannot
// be reached the tentative transition is rolled back and the retryable error
// is surfaced.
func (s *ClaimService) StartClaim(ctx context.Context, req StartClaimRequest) (*ClaimResponse, error) {
	key, err := s.keyRepo.FindActiveByValue(ctx, req.KeyValue)
	if err != nil {
		if errors.Is(err, pix.ErrKeyNotFound) {
			return nil, pix.ErrKeyNotFound
		}
		return nil, err
	}
	if key.ClaimID != nil {
		return nil, pix.ErrClaimAlreadyInProgress
	}

	claim, err := pix.NewClaim(key, req.Claimant.ToAccount(), pix.ClaimType(req.ClaimType), pix.ClaimReason(req.Reason), s.policy.WindowsFor(pix.ClaimType(req.ClaimType)))
	if err != nil {
		return nil, err
	}

	if err := key.AttachClaim(claim.ID); err != nil {
		return nil, err
	}

	events := collectEvents(claim, key)
	if err := s.claimRepo.SaveResolution(ctx, claim, []*pix.PixKey{key}, events); err != nil {
		return nil, err
	}

	externalID, err := s.directory.RequestClaim(ctx, claim)
	if err != nil {
		s.rollbackOpenClaim(ctx, claim, key)
		return nil, err
	}

	claim.SetExternalID(externalID)
	if err := claim.MarkWaitingResolution(time.Now()); err != nil {
		return nil, err
	}
	if err := s.claimRepo.SaveWithLock(ctx, claim); err != nil {
		return nil, err
	}

	s.logger.Info("Claim opened",
		zap.String("claim_id", claim.ID.String()),
		zap.String("external_id", externalID),
		zap.String("key_value", claim.KeyValue),
		zap.String("claim_type", claim.Type.String()))

	resp := ToClaimResponse(claim)
	return &resp, nil
}

// rollbackOpenClaim reverts a freshly opened claim after a failed Directory
// request so the key returns to ADDED and the alias stays claimable
func (s *ClaimService) rollbackOpenClaim(ctx context.Context, claim *pix.Claim, key *pix.PixKey) {
	now := time.Now()
	if err := claim.Cancel(claim.Claimant, now); err != nil {
		s.logger.Error("Failed to cancel claim during rollback",
			zap.String("claim_id", claim.ID.String()), zap.Error(err))
		return
	}
	if err := key.ResolveClaim(pix.ClaimStatusCanceled, claim.Claimant); err != nil {
		s.logger.Error("Failed to restore key during rollback",
			zap.String("key_id", key.ID.String()), zap.Error(err))
		return
	}
	events := collectEvents(claim, key)
	if err := s.claimRepo.SaveResolution(ctx, claim, []*pix.PixKey{key}, events); err != nil {
		s.logger.Error("Failed to persist claim rollback",
			zap.String("claim_id", claim.ID.String()), zap.Error(err))
	}
}

// ConfirmClaim records a party's acceptance of the claim.
//
// Validation happens first without mutation, then the Directory is told,
// then the local transition commits. A Directory failure leaves the claim
// unchanged so the caller can retry safely.
func (s *ClaimService) ConfirmClaim(ctx context.Context, claimID uuid.UUID, actor AccountRequest) (*ClaimResponse, error) {
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	actorAccount := actor.ToAccount()
	if err := claim.AuthorizeActor(actorAccount); err != nil {
		return nil, err
	}
	if claim.Status != pix.ClaimStatusOpen && claim.Status != pix.ClaimStatusWaitingResolution {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			"Cannot confirm claim in status "+claim.Status.String())
	}
	if claim.ExternalID == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			"Claim has no Directory identifier yet")
	}

	if err := s.directory.ConfirmClaim(ctx, *claim.ExternalID); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := claim.Confirm(actorAccount, now); err != nil {
		return nil, err
	}

	key, err := s.keyRepo.FindByID(ctx, claim.KeyID)
	if err != nil {
		return nil, err
	}
	if err := key.BeginClaimClosing(); err != nil {
		return nil, err
	}

	events := collectEvents(claim, key)
	if err := s.claimRepo.SaveResolution(ctx, claim, []*pix.PixKey{key}, events); err != nil {
		return nil, err
	}

	resp := ToClaimResponse(claim)
	return &resp, nil
}

// CancelClaim cancels an open claim on behalf of either party.
// Canceling an already canceled claim is an idempotent no-op.
func (s *ClaimService) CancelClaim(ctx context.Context, claimID uuid.UUID, actor AccountRequest) (*ClaimResponse, error) {
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if claim.Status == pix.ClaimStatusCanceled {
		resp := ToClaimResponse(claim)
		return &resp, nil
	}

	actorAccount := actor.ToAccount()
	if err := claim.AuthorizeActor(actorAccount); err != nil {
		return nil, err
	}
	if claim.Status != pix.ClaimStatusOpen && claim.Status != pix.ClaimStatusWaitingResolution {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			"Cannot cancel claim in status "+claim.Status.String())
	}

	if claim.ExternalID != nil {
		if err := s.directory.CancelClaim(ctx, *claim.ExternalID, claim.Reason); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if err := claim.Cancel(actorAccount, now); err != nil {
		return nil, err
	}

	keys, err := s.resolveKeyFor(ctx, claim)
	if err != nil {
		return nil, err
	}

	events := collectEvents(claim, keys...)
	if err := s.claimRepo.SaveResolution(ctx, claim, keys, events); err != nil {
		return nil, err
	}

	s.waiter.Notify(claim)

	resp := ToClaimResponse(claim)
	return &resp, nil
}

// ApplyDirectoryNotification reconciles an inbound Directory status report.
// Stale notifications surface STALE_NOTIFICATION; the caller decides whether
// to swallow it. Unchanged claims return without touching storage.
func (s *ClaimService) ApplyDirectoryNotification(ctx context.Context, n pix.DirectoryNotification) error {
	claim, err := s.claimRepo.FindByExternalID(ctx, n.ExternalID)
	if err != nil {
		return err
	}
	return s.applyStatus(ctx, claim, n.Status, n.Timestamp)
}

// applyStatus is the single reconciliation path shared by Directory
// notifications and the expiry reconciler
func (s *ClaimService) applyStatus(ctx context.Context, claim *pix.Claim, status pix.ClaimStatus, eventTimestamp time.Time) error {
	changed, err := claim.ApplyDirectoryStatus(status, eventTimestamp)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	var keys []*pix.PixKey
	if claim.Status.IsTerminal() {
		keys, err = s.resolveKeyFor(ctx, claim)
		if err != nil {
			return err
		}
	} else if claim.Status == pix.ClaimStatusConfirmed || claim.Status == pix.ClaimStatusClosing {
		key, err := s.keyRepo.FindByID(ctx, claim.KeyID)
		if err != nil {
			return err
		}
		if key.ClaimID != nil && *key.ClaimID == claim.ID {
			if err := key.BeginClaimClosing(); err != nil {
				return err
			}
			keys = append(keys, key)
		}
	}

	events := collectEvents(claim, keys...)
	if err := s.claimRepo.SaveResolution(ctx, claim, keys, events); err != nil {
		return err
	}

	if claim.Status.IsTerminal() {
		s.waiter.Notify(claim)
	}
	return nil
}

// resolveKeyFor applies a terminal claim outcome to the claimed key.
// Completing a single-ownership key retires the donor record and issues a
// fresh record for the claimant.
func (s *ClaimService) resolveKeyFor(ctx context.Context, claim *pix.Claim) ([]*pix.PixKey, error) {
	key, err := s.keyRepo.FindByID(ctx, claim.KeyID)
	if err != nil {
		return nil, err
	}
	if key.ClaimID == nil || *key.ClaimID != claim.ID {
		// Key already resolved by a competing transition
		return nil, nil
	}

	if err := key.ResolveClaim(claim.Status, claim.Claimant); err != nil {
		return nil, err
	}

	keys := []*pix.PixKey{key}
	if claim.Status == pix.ClaimStatusCompleted && key.KeyType.SingleOwnership() {
		keys = append(keys, key.TransferredCopy(claim.Claimant))
	}
	return keys, nil
}

// ResolveExpired forces the configured default outcome on an expired claim.
// It runs through the same monotonic reconciliation path as Directory
// notifications, so a repeated sweep is a no-op.
func (s *ClaimService) ResolveExpired(ctx context.Context, claimID uuid.UUID, now time.Time) (bool, error) {
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return false, err
	}
	if !claim.IsExpired(now) {
		return false, nil
	}

	outcome := s.policy.ExpiryOutcomeFor(claim.Type)
	if err := s.applyStatus(ctx, claim, outcome, now); err != nil {
		return false, err
	}
	return true, nil
}

// GetClaim retrieves a claim by its internal ID
func (s *ClaimService) GetClaim(ctx context.Context, claimID uuid.UUID) (*ClaimResponse, error) {
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	resp := ToClaimResponse(claim)
	return &resp, nil
}

// ListClaims lists claims with pagination
func (s *ClaimService) ListClaims(ctx context.Context, filter shared.Filter) ([]ClaimResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	claims, total, err := s.claimRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ClaimResponse, len(claims))
	for i := range claims {
		responses[i] = ToClaimResponse(&claims[i])
	}
	return responses, total, nil
}

// WaitForResolution blocks until the claim reaches a terminal status or the
// timeout elapses. A timeout returns the current snapshot flagged pending,
// never an error; abandoning the wait leaves the claim untouched.
func (s *ClaimService) WaitForResolution(ctx context.Context, claimID uuid.UUID, timeout time.Duration) (*WaitResult, error) {
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status.IsTerminal() {
		return &WaitResult{Claim: ToClaimResponse(claim), Pending: false}, nil
	}

	ch := s.waiter.Register(claimID)
	defer s.waiter.Deregister(claimID, ch)

	// Re-check after registering: the claim may have resolved in between
	claim, err = s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status.IsTerminal() {
		return &WaitResult{Claim: ToClaimResponse(claim), Pending: false}, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resolved := <-ch:
		return &WaitResult{Claim: ToClaimResponse(resolved), Pending: false}, nil
	case <-timer.C:
		return &WaitResult{Claim: ToClaimResponse(claim), Pending: true}, nil
	case <-ctx.Done():
		return &WaitResult{Claim: ToClaimResponse(claim), Pending: true}, nil
	}
}

// collectEvents drains pending domain events from the claim and keys
func collectEvents(claim *pix.Claim, keys ...*pix.PixKey) []shared.DomainEvent {
	var events []shared.DomainEvent
	events = append(events, claim.GetDomainEvents()...)
	claim.ClearDomainEvents()
	for _, k := range keys {
		if k == nil {
			continue
		}
		events = append(events, k.GetDomainEvents()...)
		k.ClearDomainEvents()
	}
	return events
}
