package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/membercard/backend/internal/domain/contact"
	"github.com/membercard/backend/internal/domain/shared"
	"github.com/membercard/backend/internal/domain/sync"
	"github.com/membercard/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*sync.SyncConfiguration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sync.SyncConfiguration), args.Error(1)
}

func (m *MockConfigRepository) FindActiveByUserAndPlatform(ctx context.Context, userID uuid.UUID, platform sync.PlatformCode) (*sync.SyncConfiguration, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sync.SyncConfiguration), args.Error(1)
}

func (m *MockConfigRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]sync.SyncConfiguration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sync.SyncConfiguration), args.Error(1)
}

func (m *MockConfigRepository) FindAllActive(ctx context.Context) ([]sync.SyncConfiguration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sync.SyncConfiguration), args.Error(1)
}

func (m *MockConfigRepository) Save(ctx context.Context, config *sync.SyncConfiguration) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*contact.ContactRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contact.ContactRecord), args.Error(1)
}

func (m *MockContactRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]contact.ContactRecord, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contact.ContactRecord), args.Error(1)
}

func (m *MockContactRepository) FindByKeys(ctx context.Context, userID uuid.UUID, emailKeys, phoneKeys []string) ([]contact.ContactRecord, error) {
	args := m.Called(ctx, userID, emailKeys, phoneKeys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contact.ContactRecord), args.Error(1)
}

func (m *MockContactRepository) Save(ctx context.Context, record *contact.ContactRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockContactRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockLogRecorder struct {
	mock.Mock
}

func (m *MockLogRecorder) Append(ctx context.Context, run *sync.SyncJobRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockLogRecorder) Recent(ctx context.Context, configID uuid.UUID, limit int) ([]sync.SyncJobRun, error) {
	args := m.Called(ctx, configID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sync.SyncJobRun), args.Error(1)
}

type MockPlatformAdapter struct {
	mock.Mock
	platform sync.PlatformCode
}

func (m *MockPlatformAdapter) Platform() sync.PlatformCode {
	return m.platform
}

func (m *MockPlatformAdapter) FetchRemoteContacts(ctx context.Context, config *sync.SyncConfiguration) ([]sync.RawExternalContact, error) {
	args := m.Called(ctx, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sync.RawExternalContact), args.Error(1)
}

func (m *MockPlatformAdapter) PushLocalContacts(ctx context.Context, config *sync.SyncConfiguration, records []contact.ContactRecord) ([]sync.PushAck, error) {
	args := m.Called(ctx, config, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sync.PushAck), args.Error(1)
}

type MockAdapterRegistry struct {
	mock.Mock
}

func (m *MockAdapterRegistry) Get(platform sync.PlatformCode) (sync.PlatformAdapter, error) {
	args := m.Called(platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(sync.PlatformAdapter), args.Error(1)
}

func (m *MockAdapterRegistry) List() []sync.PlatformAdapter {
	args := m.Called()
	return args.Get(0).([]sync.PlatformAdapter)
}

type MockJobLocker struct {
	mock.Mock
}

func (m *MockJobLocker) TryLock(ctx context.Context, configID uuid.UUID) (func(), error) {
	args := m.Called(ctx, configID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// doRequest performs a request against the router with the user's identity
// supplied via the development header fallback
func doRequest(t *testing.T, router *gin.Engine, method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeResponse unmarshals the response envelope
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// errorCode extracts the error code from a failure response
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func newActiveConfig(t *testing.T, userID uuid.UUID, platform sync.PlatformCode, direction sync.Direction) *sync.SyncConfiguration {
	t.Helper()
	config, err := sync.NewSyncConfiguration(userID, platform, direction, 3600)
	require.NoError(t, err)
	return config
}
