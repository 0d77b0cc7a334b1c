package sync

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/membercard/backend/internal/domain/contact"
)

// ContactMatcher decides whether an incoming raw record refers to a contact
// the user already has. A stored contact matches when any normalized incoming
// email is in its email set or any normalized incoming phone is in its phone
// set. Matching never crosses the user boundary.
type ContactMatcher struct {
	contacts contact.Repository
}

// NewContactMatcher creates a matcher backed by the given contact repository
func NewContactMatcher(contacts contact.Repository) *ContactMatcher {
	return &ContactMatcher{contacts: contacts}
}

// Find returns the best matching stored contact for the incoming record, or
// nil when nothing matches. When several contacts match (possible after
// independent partial merges) the one with the most recent update wins; ties
// on the timestamp are broken by lexicographically smallest ID so the result
// is deterministic regardless of repository iteration order.
func (m *ContactMatcher) Find(ctx context.Context, userID uuid.UUID, incoming RawExternalContact) (*contact.ContactRecord, error) {
	emailKey := contact.NormalizeEmail(incoming.Email)
	phoneKey := contact.NormalizePhone(incoming.Phone)
	if emailKey == "" && phoneKey == "" {
		return nil, nil
	}

	var emailKeys, phoneKeys []string
	if emailKey != "" {
		emailKeys = []string{emailKey}
	}
	if phoneKey != "" {
		phoneKeys = []string{phoneKey}
	}

	candidates, err := m.contacts.FindByKeys(ctx, userID, emailKeys, phoneKeys)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if moreRecent(&candidates[i], &candidates[best]) {
			best = i
		}
	}
	return &candidates[best], nil
}

// moreRecent reports whether a should be preferred over b
func moreRecent(a, b *contact.ContactRecord) bool {
	if a.UpdatedAt.Equal(b.UpdatedAt) {
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}
