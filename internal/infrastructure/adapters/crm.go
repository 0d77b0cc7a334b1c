package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/membercard/backend/internal/domain/contact"
	syncdomain "github.com/membercard/backend/internal/domain/sync"
)

// maxCRMResponseSize limits the response body size to prevent memory exhaustion
const maxCRMResponseSize = 10 * 1024 * 1024 // 10MB max response

// crmSettings are the connection parameters carried in the configuration's
// opaque settings JSON.
type crmSettings struct {
	APIBaseURL string `json:"api_base_url"`
}

// crmContact is the wire shape of one contact on the CRM REST surface
type crmContact struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Title   string `json:"title,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Website string `json:"website,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// crmListResponse is the response of GET /contacts
type crmListResponse struct {
	Contacts []crmContact `json:"contacts"`
}

// crmPushResult is one per-item result of POST /contacts/batch
type crmPushResult struct {
	Index   int    `json:"index"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// crmPushResponse is the response of POST /contacts/batch
type crmPushResponse struct {
	Results []crmPushResult `json:"results"`
}

// CRMAdapter implements PlatformAdapter for the OAuth CRM connectors
// (Google Contacts, Outlook, Salesforce). The three platforms share one
// JSON REST shape behind per-platform base URLs; token acquisition and
// refresh happen inside the injected token source.
type CRMAdapter struct {
	platform   syncdomain.PlatformCode
	httpClient *http.Client
	tokens     oauth2.TokenSource
}

// NewCRMAdapter creates a CRM adapter for one of the CRM platform codes
func NewCRMAdapter(platform syncdomain.PlatformCode, httpClient *http.Client, tokens oauth2.TokenSource) (*CRMAdapter, error) {
	if !platform.IsCRM() {
		return nil, syncdomain.ErrPlatformNotSupported
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CRMAdapter{platform: platform, httpClient: httpClient, tokens: tokens}, nil
}

// Platform returns the code this adapter handles
func (a *CRMAdapter) Platform() syncdomain.PlatformCode {
	return a.platform
}

// FetchRemoteContacts lists the remote contact set
func (a *CRMAdapter) FetchRemoteContacts(ctx context.Context, config *syncdomain.SyncConfiguration) ([]syncdomain.RawExternalContact, error) {
	settings, err := parseCRMSettings(config.Settings)
	if err != nil {
		return nil, syncdomain.NewConnectionError(a.platform, err)
	}

	body, err := a.doRequest(ctx, http.MethodGet, settings.APIBaseURL+"/contacts", nil)
	if err != nil {
		return nil, err
	}

	var resp crmListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, syncdomain.NewConnectionError(a.platform, fmt.Errorf("invalid response: %w", err))
	}

	records := make([]syncdomain.RawExternalContact, 0, len(resp.Contacts))
	for _, c := range resp.Contacts {
		records = append(records, syncdomain.RawExternalContact{
			ExternalID: c.ID,
			Name:       c.Name,
			Company:    c.Company,
			Title:      c.Title,
			Email:      c.Email,
			Phone:      c.Phone,
			Address:    c.Address,
			Website:    c.Website,
			Notes:      c.Notes,
		})
	}
	return records, nil
}

// PushLocalContacts uploads the records in one batch call and maps the
// per-item results back onto acks. Missing results count as accepted.
func (a *CRMAdapter) PushLocalContacts(ctx context.Context, config *syncdomain.SyncConfiguration, records []contact.ContactRecord) ([]syncdomain.PushAck, error) {
	if len(records) == 0 {
		return []syncdomain.PushAck{}, nil
	}

	settings, err := parseCRMSettings(config.Settings)
	if err != nil {
		return nil, syncdomain.NewConnectionError(a.platform, err)
	}

	payload := make([]crmContact, len(records))
	for i, record := range records {
		payload[i] = crmContact{
			ID:      record.ExternalID,
			Name:    record.Name,
			Company: record.Company,
			Title:   record.Title,
			Email:   firstOf(record.Emails),
			Phone:   firstOf(record.Phones),
			Address: record.Address,
			Website: record.Website,
			Notes:   record.Notes,
		}
	}

	bodyBytes, err := json.Marshal(map[string]any{"contacts": payload})
	if err != nil {
		return nil, syncdomain.NewConnectionError(a.platform, fmt.Errorf("failed to marshal request: %w", err))
	}

	body, err := a.doRequest(ctx, http.MethodPost, settings.APIBaseURL+"/contacts/batch", bodyBytes)
	if err != nil {
		return nil, err
	}

	var resp crmPushResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, syncdomain.NewConnectionError(a.platform, fmt.Errorf("invalid response: %w", err))
	}

	acks := make([]syncdomain.PushAck, len(records))
	for i := range records {
		acks[i] = syncdomain.PushAck{Record: &records[i], OK: true}
	}
	for _, result := range resp.Results {
		if result.Index < 0 || result.Index >= len(acks) {
			continue
		}
		acks[result.Index].OK = result.OK
		acks[result.Index].Message = result.Message
	}
	return acks, nil
}

// doRequest performs one authenticated call and returns the response body
func (a *CRMAdapter) doRequest(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	token, err := a.tokens.Token()
	if err != nil {
		return nil, syncdomain.NewConnectionError(a.platform, fmt.Errorf("token source: %w", err))
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, syncdomain.NewConnectionError(a.platform, err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, syncdomain.NewConnectionError(a.platform, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxCRMResponseSize))
	if err != nil {
		return nil, syncdomain.NewConnectionError(a.platform, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, syncdomain.NewConnectionError(a.platform, fmt.Errorf("authentication failed: HTTP %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, syncdomain.NewConnectionError(a.platform, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	return respBody, nil
}

func parseCRMSettings(raw string) (crmSettings, error) {
	var settings crmSettings
	if raw == "" {
		return settings, fmt.Errorf("crm: settings missing api_base_url")
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return settings, fmt.Errorf("crm: invalid settings: %w", err)
	}
	settings.APIBaseURL = strings.TrimRight(settings.APIBaseURL, "/")
	if settings.APIBaseURL == "" {
		return settings, fmt.Errorf("crm: settings missing api_base_url")
	}
	return settings, nil
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Ensure CRMAdapter implements PlatformAdapter
var _ syncdomain.PlatformAdapter = (*CRMAdapter)(nil)
