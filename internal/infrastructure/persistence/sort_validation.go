package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
// Sort fields reach the query as raw SQL, so everything not whitelisted is dropped.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// PixKeySortFields contains allowed sort fields for Pix keys
var PixKeySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"key_type":   true,
	"key_value":  true,
	"state":      true,
}

// ClaimSortFields contains allowed sort fields for claims
var ClaimSortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"status":              true,
	"type":                true,
	"key_value":           true,
	"opening_date":        true,
	"resolution_deadline": true,
	"completion_deadline": true,
}
