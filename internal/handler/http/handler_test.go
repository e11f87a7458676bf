package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ghstore/internal/domain"
	"github.com/utafrali/ghstore/internal/service"
	"github.com/utafrali/ghstore/pkg/health"
	"github.com/utafrali/ghstore/pkg/httputil"
	"github.com/utafrali/ghstore/pkg/middleware"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	args := m.Called(ctx, cart, expectedVersion)
	if args.Bool(0) && args.Error(1) == nil {
		cart.Version = expectedVersion + 1
	}
	return args.Bool(0), args.Error(1)
}


type mockAddressRepository struct {
	mock.Mock
}

func (m *mockAddressRepository) Create(ctx context.Context, address *domain.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *mockAddressRepository) GetByID(ctx context.Context, id string) (*domain.Address, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *mockAddressRepository) Update(ctx context.Context, address *domain.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *mockAddressRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockAddressRepository) SetDefault(ctx context.Context, userID, addressID string) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

// ============================================================================
// Test helpers
// ============================================================================

const testUserID = "user-123"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	carts     *mockCartRepository
	addresses *mockAddressRepository
	handler   http.Handler
}

// newTestServer builds the production router over mocked repositories, so
// middleware behaviour is exercised end-to-end.
func newTestServer() *testServer {
	return newLimitedTestServer(middleware.RateLimitConfig{})
}

// newLimitedTestServer is newTestServer with a phone rate limit.
func newLimitedTestServer(phoneLimit middleware.RateLimitConfig) *testServer {
	logger := testLogger()
	carts := new(mockCartRepository)
	addresses := new(mockAddressRepository)

	cartSvc := service.NewCartService(carts, nil, nil, service.CartSettings{
		Currency: "GHS",
		CartTTL:  24 * time.Hour,
		Pricing:  domain.DefaultPricingConfig(),
	}, logger)
	addressSvc := service.NewAddressService(addresses, nil, nil, logger)
	phoneSvc := service.NewPhoneService(nil)

	return &testServer{
		carts:     carts,
		addresses: addresses,
		handler:   NewRouter(cartSvc, addressSvc, phoneSvc, health.NewHandler(), logger, []string{"http://localhost:3000"}, phoneLimit),
	}
}

// do sends a request as testUserID. An empty user sends no identity header.
func (s *testServer) do(method, path, user string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(middleware.UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// doRaw sends body with an explicit Content-Type as testUserID.
func (s *testServer) doRaw(method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(middleware.UserIDHeader, testUserID)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage         `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

// decodeResponse reads the response envelope; when out is non-nil the data
// member is decoded into it.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	if out != nil {
		require.NotNil(t, env.Data)
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}
