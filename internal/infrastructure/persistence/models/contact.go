package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/membercard/backend/internal/domain/contact"
)

// Contact key kinds stored in the lookup table
const (
	ContactKeyKindEmail = "email"
	ContactKeyKindPhone = "phone"
)

// ContactRecordModel is the persistence model for the ContactRecord aggregate.
// Emails, phones and tags are stored as JSON arrays in their original
// presentation form; the normalized matching keys live in contact_keys.
type ContactRecordModel struct {
	OwnedAggregateModel
	Name       string `gorm:"type:varchar(200);not null"`
	Company    string `gorm:"type:varchar(200)"`
	Title      string `gorm:"type:varchar(200)"`
	EmailsJSON string `gorm:"type:jsonb;column:emails"`
	PhonesJSON string `gorm:"type:jsonb;column:phones"`
	Address    string `gorm:"type:text"`
	Website    string `gorm:"type:varchar(500)"`
	Notes      string `gorm:"type:text"`
	TagsJSON   string `gorm:"type:jsonb;column:tags"`
	ExternalID string `gorm:"type:varchar(255);index"`
}

// TableName returns the table name for GORM
func (ContactRecordModel) TableName() string {
	return "contact_records"
}

// ToDomain converts the persistence model to a domain ContactRecord aggregate.
func (m *ContactRecordModel) ToDomain() *contact.ContactRecord {
	record := &contact.ContactRecord{
		Name:       m.Name,
		Company:    m.Company,
		Title:      m.Title,
		Emails:     decodeStringList(m.EmailsJSON),
		Phones:     decodeStringList(m.PhonesJSON),
		Address:    m.Address,
		Website:    m.Website,
		Notes:      m.Notes,
		Tags:       decodeStringList(m.TagsJSON),
		ExternalID: m.ExternalID,
	}
	m.PopulateOwnedAggregateRoot(&record.OwnedAggregateRoot)
	return record
}

// FromDomain populates the persistence model from a domain ContactRecord.
func (m *ContactRecordModel) FromDomain(record *contact.ContactRecord) {
	m.FromDomainOwnedAggregateRoot(record.OwnedAggregateRoot)
	m.Name = record.Name
	m.Company = record.Company
	m.Title = record.Title
	m.EmailsJSON = encodeStringList(record.Emails)
	m.PhonesJSON = encodeStringList(record.Phones)
	m.Address = record.Address
	m.Website = record.Website
	m.Notes = record.Notes
	m.TagsJSON = encodeStringList(record.Tags)
	m.ExternalID = record.ExternalID
}

// ContactRecordModelFromDomain creates a new persistence model from a domain ContactRecord.
func ContactRecordModelFromDomain(record *contact.ContactRecord) *ContactRecordModel {
	m := &ContactRecordModel{}
	m.FromDomain(record)
	return m
}

// ContactKeyModel is a normalized lookup row for contact matching. Each
// contact owns one row per normalized email key and one per phone key;
// the rows are rebuilt on every save.
type ContactKeyModel struct {
	ID        int64     `gorm:"primary_key;autoIncrement"`
	ContactID uuid.UUID `gorm:"type:uuid;not null;index:idx_contact_keys_contact"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_contact_keys_lookup,priority:1"`
	Kind      string    `gorm:"type:varchar(10);not null;index:idx_contact_keys_lookup,priority:2"`
	KeyValue  string    `gorm:"type:varchar(255);not null;index:idx_contact_keys_lookup,priority:3"`
}

// TableName returns the table name for GORM
func (ContactKeyModel) TableName() string {
	return "contact_keys"
}

// ContactKeyModelsFromDomain derives the normalized key rows for a contact.
func ContactKeyModelsFromDomain(record *contact.ContactRecord) []ContactKeyModel {
	emailKeys := record.EmailKeys()
	phoneKeys := record.PhoneKeys()
	keys := make([]ContactKeyModel, 0, len(emailKeys)+len(phoneKeys))
	for _, key := range emailKeys {
		keys = append(keys, ContactKeyModel{
			ContactID: record.ID,
			UserID:    record.UserID,
			Kind:      ContactKeyKindEmail,
			KeyValue:  key,
		})
	}
	for _, key := range phoneKeys {
		keys = append(keys, ContactKeyModel{
			ContactID: record.ID,
			UserID:    record.UserID,
			Kind:      ContactKeyKindPhone,
			KeyValue:  key,
		})
	}
	return keys
}

func encodeStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	if jsonBytes, err := json.Marshal(values); err == nil {
		return string(jsonBytes)
	}
	return "[]"
}

func decodeStringList(raw string) []string {
	values := make([]string, 0)
	if raw == "" {
		return values
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return make([]string, 0)
	}
	return values
}
