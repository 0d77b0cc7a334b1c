package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/membercard/backend/internal/domain/contact"
	syncdomain "github.com/membercard/backend/internal/domain/sync"
)

// ErrDirectoryReadOnly is returned when a push is attempted against the
// corporate directory, which only serves as a contact source.
var ErrDirectoryReadOnly = errors.New("adapters: directory platform does not accept pushes")

// DirectoryEntry is one raw search result from the corporate directory.
// Attribute names follow the directory schema.
type DirectoryEntry struct {
	DN              string
	CN              string
	Mail            string
	TelephoneNumber string
	Department      string
	Title           string
	Company         string
}

// DirectoryClient is the injected directory search transport. The concrete
// client owns connection, bind and query-language details.
type DirectoryClient interface {
	SearchUsers(ctx context.Context, baseDN, filter string) ([]DirectoryEntry, error)
}

// directorySettings are the connection parameters carried in the
// configuration's opaque settings JSON.
type directorySettings struct {
	BaseDN string `json:"base_dn"`
	Filter string `json:"filter"`
}

// DirectoryAdapter implements PlatformAdapter for the corporate directory
type DirectoryAdapter struct {
	client DirectoryClient
}

// NewDirectoryAdapter creates a new directory adapter
func NewDirectoryAdapter(client DirectoryClient) *DirectoryAdapter {
	return &DirectoryAdapter{client: client}
}

// Platform returns the code this adapter handles
func (a *DirectoryAdapter) Platform() syncdomain.PlatformCode {
	return syncdomain.PlatformDirectory
}

// FetchRemoteContacts searches the directory and maps entries into the
// neutral contact shape: cn to name, mail to email, telephoneNumber to phone.
func (a *DirectoryAdapter) FetchRemoteContacts(ctx context.Context, config *syncdomain.SyncConfiguration) ([]syncdomain.RawExternalContact, error) {
	settings, err := parseDirectorySettings(config.Settings)
	if err != nil {
		return nil, syncdomain.NewConnectionError(a.Platform(), err)
	}

	entries, err := a.client.SearchUsers(ctx, settings.BaseDN, settings.Filter)
	if err != nil {
		return nil, syncdomain.NewConnectionError(a.Platform(), err)
	}

	records := make([]syncdomain.RawExternalContact, 0, len(entries))
	for _, entry := range entries {
		records = append(records, syncdomain.RawExternalContact{
			ExternalID: entry.DN,
			Name:       entry.CN,
			Company:    entry.Company,
			Title:      entry.Title,
			Email:      entry.Mail,
			Phone:      entry.TelephoneNumber,
		})
	}
	return records, nil
}

// PushLocalContacts always fails: the directory is a read-only source
func (a *DirectoryAdapter) PushLocalContacts(_ context.Context, _ *syncdomain.SyncConfiguration, _ []contact.ContactRecord) ([]syncdomain.PushAck, error) {
	return nil, ErrDirectoryReadOnly
}

func parseDirectorySettings(raw string) (directorySettings, error) {
	var settings directorySettings
	if raw == "" {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return settings, fmt.Errorf("directory: invalid settings: %w", err)
	}
	return settings, nil
}

// Ensure DirectoryAdapter implements PlatformAdapter
var _ syncdomain.PlatformAdapter = (*DirectoryAdapter)(nil)
