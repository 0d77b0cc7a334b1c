package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/membercard/backend/internal/domain/contact"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotRegistered = errors.New("sync: platform adapter not registered")
	ErrPlatformNotSupported  = errors.New("sync: platform not supported")

	// Configuration errors
	ErrConfigNotFound   = errors.New("sync: configuration not found")
	ErrConfigNotActive  = errors.New("sync: configuration not active")
	ErrConfigDuplicate  = errors.New("sync: active configuration already exists for user and platform")
	ErrInvalidDirection = errors.New("sync: invalid sync direction")
	ErrInvalidInterval  = errors.New("sync: sync interval must be positive")

	// Job errors
	ErrJobAlreadyRunning = errors.New("sync: a job is already running for this configuration")
	ErrRunFinalized      = errors.New("sync: job run already finalized")

	// Record errors
	ErrRecordUnusable = errors.New("sync: record has no email and no phone")
)

// ConnectionError marks a stream-level adapter failure: the remote system is
// unreachable, authentication failed, or the call timed out before (or while)
// records were being read. It aborts the whole job, as opposed to a
// RecordError which only fails one record.
type ConnectionError struct {
	Platform PlatformCode
	Err      error
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("sync: connection to %s failed: %v", e.Platform, e.Err)
}

// Unwrap returns the underlying cause
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NewConnectionError wraps err as a whole-job connection failure
func NewConnectionError(platform PlatformCode, err error) *ConnectionError {
	return &ConnectionError{Platform: platform, Err: err}
}

// IsConnectionError reports whether err is (or wraps) a ConnectionError
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// RecordError describes the failure of a single record within a job run.
// The run keeps processing after a RecordError; the entry is appended to the
// run's error list with a reference to the offending record (external ID,
// line index or similar).
type RecordError struct {
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// Error implements the error interface
func (e RecordError) Error() string {
	return fmt.Sprintf("sync: record %s: %s", e.Reference, e.Message)
}

// NewRecordError creates a record-level error
func NewRecordError(reference, message string) RecordError {
	return RecordError{Reference: reference, Message: message}
}

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies an external contact source or destination
type PlatformCode string

const (
	// PlatformDirectory is the corporate directory service
	PlatformDirectory PlatformCode = "DIRECTORY"
	// PlatformMobile is the CardDAV-style mobile sync endpoint
	PlatformMobile PlatformCode = "MOBILE"
	// PlatformGoogle is the Google Contacts CRM connector
	PlatformGoogle PlatformCode = "GOOGLE"
	// PlatformOutlook is the Outlook/Microsoft 365 CRM connector
	PlatformOutlook PlatformCode = "OUTLOOK"
	// PlatformSalesforce is the Salesforce CRM connector
	PlatformSalesforce PlatformCode = "SALESFORCE"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformDirectory, PlatformMobile, PlatformGoogle, PlatformOutlook, PlatformSalesforce:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformDirectory:
		return "Directory Service"
	case PlatformMobile:
		return "Mobile Sync"
	case PlatformGoogle:
		return "Google Contacts"
	case PlatformOutlook:
		return "Outlook"
	case PlatformSalesforce:
		return "Salesforce"
	default:
		return string(c)
	}
}

// ProvenanceTag returns the tag recorded on contacts produced or touched by
// this platform.
func (c PlatformCode) ProvenanceTag() string {
	switch c {
	case PlatformDirectory:
		return "source:directory"
	case PlatformMobile:
		return "source:iphone_sync"
	case PlatformGoogle:
		return "source:google"
	case PlatformOutlook:
		return "source:outlook"
	case PlatformSalesforce:
		return "source:salesforce"
	default:
		return "source:unknown"
	}
}

// IsCRM returns true for the OAuth CRM connector platforms
func (c PlatformCode) IsCRM() bool {
	switch c {
	case PlatformGoogle, PlatformOutlook, PlatformSalesforce:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// RawExternalContact is the adapter-supplied, best-effort shape of one remote
// record before normalization. It is transient and never persisted; field
// mapping from platform-specific attributes happens in the adapter.
type RawExternalContact struct {
	// ExternalID is the record's identifier on the source, if any
	ExternalID string
	// Name is the display name
	Name string
	// Company is the organization name
	Company string
	// Title is the job title
	Title string
	// Email is the primary email address
	Email string
	// Phone is the primary phone number
	Phone string
	// Address is a single free-text address
	Address string
	// Website is the contact's URL
	Website string
	// Notes is free-text notes
	Notes string
	// ParseFailure carries the adapter's diagnosis when the source record
	// could not be decoded at all. A non-empty value means the record is
	// pre-failed: the reconciler must surface this message on the run
	// instead of attempting to reconcile the (empty) fields.
	ParseFailure string
}

// IsEmpty returns true when the record carries no field at all
func (r RawExternalContact) IsEmpty() bool {
	return r.Name == "" && r.Company == "" && r.Title == "" && r.Email == "" &&
		r.Phone == "" && r.Address == "" && r.Website == "" && r.Notes == ""
}

// Reference returns the best identifier for error reporting: the external ID
// when present, otherwise the email, phone or name.
func (r RawExternalContact) Reference() string {
	switch {
	case r.ExternalID != "":
		return r.ExternalID
	case r.Email != "":
		return r.Email
	case r.Phone != "":
		return r.Phone
	case r.Name != "":
		return r.Name
	default:
		return "(empty record)"
	}
}

// PushAck is the per-item acknowledgement returned by PushLocalContacts
type PushAck struct {
	// Record is the contact that was pushed
	Record *contact.ContactRecord
	// OK indicates whether the remote accepted the record
	OK bool
	// Message carries the remote rejection reason when OK is false
	Message string
}

// ---------------------------------------------------------------------------
// PlatformAdapter Port Interface
// ---------------------------------------------------------------------------

// PlatformAdapter is the port to one external contact platform. Concrete
// adapters own the transport (directory search, CardDAV exchange, CRM REST
// calls) and the mapping of platform attributes into RawExternalContact.
//
// Adapters report stream-level failures (unreachable host, auth failure,
// timeout) as *ConnectionError; the caller treats anything else from
// FetchRemoteContacts the same way. Per-record problems are not the
// adapter's concern: it returns best-effort records and the engine decides
// which ones are unusable.
type PlatformAdapter interface {
	// Platform returns the code this adapter handles
	Platform() PlatformCode

	// FetchRemoteContacts retrieves the remote record set for the given
	// configuration. Implementations must honor ctx cancellation and
	// deadline.
	FetchRemoteContacts(ctx context.Context, config *SyncConfiguration) ([]RawExternalContact, error)

	// PushLocalContacts uploads local records and returns one ack per
	// record. The push is not all-or-nothing: individual rejections are
	// reported in the acks, only transport failure returns an error.
	PushLocalContacts(ctx context.Context, config *SyncConfiguration, records []contact.ContactRecord) ([]PushAck, error)
}

// AdapterRegistry provides access to configured platform adapters
type AdapterRegistry interface {
	// Get returns the adapter for the specified platform code
	Get(platform PlatformCode) (PlatformAdapter, error)

	// List returns all registered adapters
	List() []PlatformAdapter
}
