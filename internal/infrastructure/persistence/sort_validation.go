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

// ContactSortFields contains allowed sort fields for contact records
var ContactSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"company":     true,
	"title":       true,
	"external_id": true,
}

// SyncConfigSortFields contains allowed sort fields for sync configurations
var SyncConfigSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"platform":     true,
	"is_active":    true,
	"last_sync_at": true,
}

// SyncJobRunSortFields contains allowed sort fields for sync job runs
var SyncJobRunSortFields = map[string]bool{
	"id":          true,
	"config_id":   true,
	"started_at":  true,
	"finished_at": true,
	"status":      true,
}
