package contact

import (
	"strings"

	"github.com/google/uuid"

	"github.com/membercard/backend/internal/domain/shared"
)

// ContactRecord is the canonical internal contact, the aggregate root for
// all reconciliation operations. Emails, phones and tags behave as sets:
// adding an element that is already present (under normalization) is a no-op,
// and elements are never removed by the sync engine.
type ContactRecord struct {
	shared.OwnedAggregateRoot
	Name    string
	Company string
	Title   string
	// Emails holds addresses in the form they arrived; uniqueness is
	// decided on the normalized key.
	Emails []string
	// Phones holds numbers in the form they arrived; uniqueness is decided
	// on the digit-only key.
	Phones  []string
	Address string
	Website string
	Notes   string
	// Tags carries free-form labels including provenance markers such as
	// "source:iphone_sync".
	Tags []string
	// ExternalID is the identifier of this contact on the external source
	// that last produced it, if any.
	ExternalID string
}

// NewContactRecord creates a new contact owned by the given user.
func NewContactRecord(userID uuid.UUID, name string) (*ContactRecord, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Contact owner cannot be empty")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	return &ContactRecord{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		Name:               name,
		Emails:             make([]string, 0),
		Phones:             make([]string, 0),
		Tags:               make([]string, 0),
	}, nil
}

// SetName updates the contact name. Empty input is rejected; names are never
// blanked once set.
func (c *ContactRecord) SetName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	c.Name = name
	c.touch()
	return nil
}

// SetCompany updates the company field
func (c *ContactRecord) SetCompany(company string) {
	c.Company = company
	c.touch()
}

// SetTitle updates the job title field
func (c *ContactRecord) SetTitle(title string) {
	c.Title = title
	c.touch()
}

// SetAddress updates the free-text address field
func (c *ContactRecord) SetAddress(address string) {
	c.Address = address
	c.touch()
}

// SetWebsite updates the website field
func (c *ContactRecord) SetWebsite(website string) {
	c.Website = website
	c.touch()
}

// SetNotes updates the notes field
func (c *ContactRecord) SetNotes(notes string) {
	c.Notes = notes
	c.touch()
}

// SetExternalID records the external source identifier
func (c *ContactRecord) SetExternalID(externalID string) {
	c.ExternalID = externalID
	c.touch()
}

// AddEmail adds an email address if its normalized key is not already
// present. Returns true when the set changed.
func (c *ContactRecord) AddEmail(email string) bool {
	key := NormalizeEmail(email)
	if key == "" {
		return false
	}
	for _, existing := range c.Emails {
		if NormalizeEmail(existing) == key {
			return false
		}
	}
	c.Emails = append(c.Emails, strings.TrimSpace(email))
	c.touch()
	return true
}

// AddPhone adds a phone number if its digit-only key is not already present.
// Returns true when the set changed.
func (c *ContactRecord) AddPhone(phone string) bool {
	key := NormalizePhone(phone)
	if key == "" {
		return false
	}
	for _, existing := range c.Phones {
		if NormalizePhone(existing) == key {
			return false
		}
	}
	c.Phones = append(c.Phones, strings.TrimSpace(phone))
	c.touch()
	return true
}

// AddTag adds a tag if not already present. Returns true when the set changed.
func (c *ContactRecord) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, existing := range c.Tags {
		if existing == tag {
			return false
		}
	}
	c.Tags = append(c.Tags, tag)
	c.touch()
	return true
}

// HasEmail reports whether the normalized key of the given address is in the
// email set.
func (c *ContactRecord) HasEmail(email string) bool {
	key := NormalizeEmail(email)
	if key == "" {
		return false
	}
	for _, existing := range c.Emails {
		if NormalizeEmail(existing) == key {
			return true
		}
	}
	return false
}

// HasPhone reports whether the digit-only key of the given number is in the
// phone set.
func (c *ContactRecord) HasPhone(phone string) bool {
	key := NormalizePhone(phone)
	if key == "" {
		return false
	}
	for _, existing := range c.Phones {
		if NormalizePhone(existing) == key {
			return true
		}
	}
	return false
}

// HasTag reports whether the tag is present
func (c *ContactRecord) HasTag(tag string) bool {
	for _, existing := range c.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// EmailKeys returns the normalized keys of all stored emails
func (c *ContactRecord) EmailKeys() []string {
	keys := make([]string, 0, len(c.Emails))
	for _, e := range c.Emails {
		if key := NormalizeEmail(e); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// PhoneKeys returns the digit-only keys of all stored phones
func (c *ContactRecord) PhoneKeys() []string {
	keys := make([]string, 0, len(c.Phones))
	for _, p := range c.Phones {
		if key := NormalizePhone(p); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func (c *ContactRecord) touch() {
	c.Touch()
	c.IncrementVersion()
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Contact name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Contact name cannot exceed 200 characters")
	}
	return nil
}
