package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDirectoryClient implements DirectoryClient against the directory
// search gateway, a JSON HTTP facade in front of the corporate directory.
type HTTPDirectoryClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPDirectoryClient creates a directory client for the given gateway URL
func NewHTTPDirectoryClient(baseURL string, httpClient *http.Client) *HTTPDirectoryClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPDirectoryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// directorySearchRequest is the body of POST /search
type directorySearchRequest struct {
	BaseDN string `json:"base_dn"`
	Filter string `json:"filter"`
}

// directoryWireEntry is one search result on the wire. Field names follow
// the gateway's snake_case rendering of the directory attributes.
type directoryWireEntry struct {
	DN              string `json:"dn"`
	CN              string `json:"cn"`
	Mail            string `json:"mail"`
	TelephoneNumber string `json:"telephone_number"`
	Department      string `json:"department"`
	Title           string `json:"title"`
	Company         string `json:"company"`
}

// directorySearchResponse is the response of POST /search
type directorySearchResponse struct {
	Entries []directoryWireEntry `json:"entries"`
}

// SearchUsers runs a scoped search through the gateway
func (c *HTTPDirectoryClient) SearchUsers(ctx context.Context, baseDN, filter string) ([]DirectoryEntry, error) {
	body, err := json.Marshal(directorySearchRequest{BaseDN: baseDN, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("directory: encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("directory: build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory: search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory: search returned status %d", resp.StatusCode)
	}

	var decoded directorySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("directory: decode search response: %w", err)
	}

	entries := make([]DirectoryEntry, 0, len(decoded.Entries))
	for _, e := range decoded.Entries {
		entries = append(entries, DirectoryEntry{
			DN:              e.DN,
			CN:              e.CN,
			Mail:            e.Mail,
			TelephoneNumber: e.TelephoneNumber,
			Department:      e.Department,
			Title:           e.Title,
			Company:         e.Company,
		})
	}
	return entries, nil
}

// Ensure HTTPDirectoryClient implements DirectoryClient
var _ DirectoryClient = (*HTTPDirectoryClient)(nil)

const vcardContentType = "text/vcard; charset=utf-8"

// HTTPMobileTransport implements MobileTransport over plain HTTP: the
// per-user endpoint publishes one vCard document, GET reads it and PUT
// replaces it.
type HTTPMobileTransport struct {
	httpClient *http.Client
}

// NewHTTPMobileTransport creates a mobile transport using the given client
func NewHTTPMobileTransport(httpClient *http.Client) *HTTPMobileTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPMobileTransport{httpClient: httpClient}
}

// Download fetches the published vCard document. A missing document is not
// an error: a fresh endpoint simply has no contacts yet.
func (t *HTTPMobileTransport) Download(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("mobile: build download request: %w", err)
	}
	req.Header.Set("Accept", vcardContentType)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mobile: download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mobile: download returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("mobile: read download body: %w", err)
	}
	return string(payload), nil
}

// Upload replaces the published document
func (t *HTTPMobileTransport) Upload(ctx context.Context, endpoint, payload string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, strings.NewReader(payload))
	if err != nil {
		return fmt.Errorf("mobile: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", vcardContentType)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mobile: upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("mobile: upload returned status %d", resp.StatusCode)
	}
	return nil
}

// Ensure HTTPMobileTransport implements MobileTransport
var _ MobileTransport = (*HTTPMobileTransport)(nil)
