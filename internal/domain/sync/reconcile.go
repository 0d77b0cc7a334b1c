package sync

import (
	"github.com/google/uuid"

	"github.com/membercard/backend/internal/domain/contact"
)

// ---------------------------------------------------------------------------
// Reconciliation Types
// ---------------------------------------------------------------------------

// ReconcileAction tells whether reconciliation created a new contact or
// merged into an existing one
type ReconcileAction string

const (
	// ActionCreated indicates a new contact was created
	ActionCreated ReconcileAction = "created"
	// ActionUpdated indicates an existing contact was merged into
	ActionUpdated ReconcileAction = "updated"
)

// ReconciliationResult is the outcome of reconciling one raw record
type ReconciliationResult struct {
	Action ReconcileAction
	Record *contact.ContactRecord
}

// ---------------------------------------------------------------------------
// ReconciliationEngine
// ---------------------------------------------------------------------------

// ReconciliationEngine applies the field merge policy. It is a pure, in-memory
// service: it never touches the repository, so callers control write timing.
//
// The merge is a fixed point: reconciling an identical incoming record against
// the already-merged contact changes nothing, which is what makes job retries
// safe.
type ReconciliationEngine struct{}

// NewReconciliationEngine creates a reconciliation engine
func NewReconciliationEngine() *ReconciliationEngine {
	return &ReconciliationEngine{}
}

// Reconcile merges the incoming record into existing, or creates a new
// contact for userID when existing is nil. Scalar fields are overwritten only
// by non-empty incoming values; set fields (emails, phones, tags) grow by
// union and never shrink. The provenance tag is always added.
//
// Records carrying neither an email nor a phone are rejected with
// ErrRecordUnusable: they could never be matched on a re-run, so storing them
// would break idempotence.
func (e *ReconciliationEngine) Reconcile(userID uuid.UUID, existing *contact.ContactRecord, incoming RawExternalContact, provenance string) (*ReconciliationResult, error) {
	if contact.NormalizeEmail(incoming.Email) == "" && contact.NormalizePhone(incoming.Phone) == "" {
		return nil, ErrRecordUnusable
	}

	if existing == nil {
		record, err := e.create(userID, incoming, provenance)
		if err != nil {
			return nil, err
		}
		return &ReconciliationResult{Action: ActionCreated, Record: record}, nil
	}

	e.merge(existing, incoming, provenance)
	return &ReconciliationResult{Action: ActionUpdated, Record: existing}, nil
}

func (e *ReconciliationEngine) create(userID uuid.UUID, incoming RawExternalContact, provenance string) (*contact.ContactRecord, error) {
	name := incoming.Name
	if name == "" {
		// A contact needs a display name; fall back on what identifies it
		if incoming.Email != "" {
			name = incoming.Email
		} else {
			name = incoming.Phone
		}
	}

	record, err := contact.NewContactRecord(userID, name)
	if err != nil {
		return nil, err
	}

	if incoming.Company != "" {
		record.SetCompany(incoming.Company)
	}
	if incoming.Title != "" {
		record.SetTitle(incoming.Title)
	}
	if incoming.Address != "" {
		record.SetAddress(incoming.Address)
	}
	if incoming.Website != "" {
		record.SetWebsite(incoming.Website)
	}
	if incoming.Notes != "" {
		record.SetNotes(incoming.Notes)
	}
	if incoming.ExternalID != "" {
		record.SetExternalID(incoming.ExternalID)
	}
	record.AddEmail(incoming.Email)
	record.AddPhone(incoming.Phone)
	if provenance != "" {
		record.AddTag(provenance)
	}

	return record, nil
}

func (e *ReconciliationEngine) merge(existing *contact.ContactRecord, incoming RawExternalContact, provenance string) {
	// Non-empty incoming scalars overwrite; empty ones preserve the stored
	// value. Skipping equal values keeps the merge a fixed point.
	if incoming.Name != "" && incoming.Name != existing.Name {
		_ = existing.SetName(incoming.Name)
	}
	if incoming.Company != "" && incoming.Company != existing.Company {
		existing.SetCompany(incoming.Company)
	}
	if incoming.Title != "" && incoming.Title != existing.Title {
		existing.SetTitle(incoming.Title)
	}
	if incoming.Address != "" && incoming.Address != existing.Address {
		existing.SetAddress(incoming.Address)
	}
	if incoming.Website != "" && incoming.Website != existing.Website {
		existing.SetWebsite(incoming.Website)
	}
	if incoming.Notes != "" && incoming.Notes != existing.Notes {
		existing.SetNotes(incoming.Notes)
	}
	if incoming.ExternalID != "" && incoming.ExternalID != existing.ExternalID {
		existing.SetExternalID(incoming.ExternalID)
	}
	existing.AddEmail(incoming.Email)
	existing.AddPhone(incoming.Phone)
	if provenance != "" {
		existing.AddTag(provenance)
	}
}
