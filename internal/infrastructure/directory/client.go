package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
	"github.com/pix/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the Directory (1MB)
const maxResponseSize = 1 * 1024 * 1024

// Client implements pix.DirectoryGateway over the Directory's REST API.
//
// The Directory answers key registrations asynchronously through webhooks;
// a 2xx here only means the request was accepted. Transport failures and
// 5xx responses surface as DIRECTORY_UNAVAILABLE so callers can retry.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Directory client from configuration
func NewClient(cfg config.DirectoryConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// keyRequest is the wire format for key registration and removal
type keyRequest struct {
	KeyType     string `json:"key_type"`
	KeyValue    string `json:"key_value"`
	Participant string `json:"participant"`
	Branch      string `json:"branch"`
	Number      string `json:"number"`
	AccountType string `json:"account_type"`
	UserTaxID   string `json:"user_tax_id"`
}

func newKeyRequest(key *pix.PixKey) keyRequest {
	return keyRequest{
		KeyType:     key.KeyType.String(),
		KeyValue:    key.KeyValue,
		Participant: key.Owner.Participant,
		Branch:      key.Owner.Branch,
		Number:      key.Owner.Number,
		AccountType: string(key.Owner.Type),
		UserTaxID:   key.Owner.UserTaxID,
	}
}

// claimRequest is the wire format for opening a claim
type claimRequest struct {
	KeyValue           string `json:"key_value"`
	Type               string `json:"type"`
	Reason             string `json:"reason"`
	ClaimerParticipant string `json:"claimer_participant"`
	ClaimerBranch      string `json:"claimer_branch"`
	ClaimerNumber      string `json:"claimer_number"`
	ClaimerAccountType string `json:"claimer_account_type"`
	ClaimerUserTaxID   string `json:"claimer_user_tax_id"`
	ResolutionDeadline string `json:"resolution_deadline"`
	CompletionDeadline string `json:"completion_deadline"`
}

// claimResponse carries the Directory-assigned claim identifier
type claimResponse struct {
	ClaimID string `json:"claim_id"`
}

// RequestKeyRegistration asks the Directory to bind the alias.
// The verdict arrives later as a webhook notification.
func (c *Client) RequestKeyRegistration(ctx context.Context, key *pix.PixKey) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/v1/keys", newKeyRequest(key))
	return err
}

// RemoveKey releases the alias binding in the Directory
func (c *Client) RemoveKey(ctx context.Context, key *pix.PixKey) error {
	path := "/api/v1/keys/" + url.PathEscape(key.KeyValue)
	_, err := c.doRequest(ctx, http.MethodDelete, path, newKeyRequest(key))
	return err
}

// RequestClaim opens the claim in the Directory and returns its identifier
func (c *Client) RequestClaim(ctx context.Context, claim *pix.Claim) (string, error) {
	body := claimRequest{
		KeyValue:           claim.KeyValue,
		Type:               claim.Type.String(),
		Reason:             string(claim.Reason),
		ClaimerParticipant: claim.Claimant.Participant,
		ClaimerBranch:      claim.Claimant.Branch,
		ClaimerNumber:      claim.Claimant.Number,
		ClaimerAccountType: string(claim.Claimant.Type),
		ClaimerUserTaxID:   claim.Claimant.UserTaxID,
		ResolutionDeadline: claim.ResolutionDeadline.Format(time.RFC3339),
		CompletionDeadline: claim.CompletionDeadline.Format(time.RFC3339),
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/v1/claims", body)
	if err != nil {
		return "", err
	}

	var resp claimResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("directory: failed to decode claim response: %w", err)
	}
	if resp.ClaimID == "" {
		return "", fmt.Errorf("directory: claim response missing claim_id")
	}
	return resp.ClaimID, nil
}

// CancelClaim cancels the claim in the Directory
func (c *Client) CancelClaim(ctx context.Context, externalID string, reason pix.ClaimReason) error {
	path := "/api/v1/claims/" + url.PathEscape(externalID) + "/cancel"
	_, err := c.doRequest(ctx, http.MethodPost, path, map[string]string{
		"reason": string(reason),
	})
	return err
}

// ConfirmClaim confirms the claim in the Directory
func (c *Client) ConfirmClaim(ctx context.Context, externalID string) error {
	path := "/api/v1/claims/" + url.PathEscape(externalID) + "/confirm"
	_, err := c.doRequest(ctx, http.MethodPost, path, nil)
	return err
}

// doRequest performs an HTTP request against the Directory API
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("directory: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("directory: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("directory request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", shared.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("directory: failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		c.logger.Warn("directory returned server error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: HTTP %d", shared.ErrDirectoryUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("directory: HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Ensure Client implements DirectoryGateway
var _ pix.DirectoryGateway = (*Client)(nil)
