package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	handler "github.com/vasiliy-maslov/freshcart/internal/handler/http"
)

type testServer struct {
	router   *chi.Mux
	tokens   *auth.TokenManager
	users    *MockUserService
	products *MockProductService
	orders   *MockOrderService
	carts    *MockCartService
	reports  *MockReportService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		tokens:   auth.NewTokenManager("handler-test-secret", time.Hour),
		users:    new(MockUserService),
		products: new(MockProductService),
		orders:   new(MockOrderService),
		carts:    new(MockCartService),
		reports:  new(MockReportService),
	}
	s.router = handler.NewRouter(handler.NewGuard(s.tokens), handler.Handlers{
		Auth:    handler.NewAuthHandler(s.users),
		Product: handler.NewProductHandler(s.products),
		Order:   handler.NewOrderHandler(s.orders),
		Cart:    handler.NewCartHandler(s.carts),
		Report:  handler.NewReportHandler(s.reports),
	}, handler.RouterOptions{AllowedOrigins: []string{"http://localhost:5173"}})

	t.Cleanup(func() {
		s.users.AssertExpectations(t)
		s.products.AssertExpectations(t)
		s.orders.AssertExpectations(t)
		s.carts.AssertExpectations(t)
		s.reports.AssertExpectations(t)
	})
	return s
}

func (s *testServer) principal(t *testing.T, role auth.Role) (auth.Principal, string) {
	t.Helper()
	p := auth.Principal{UserID: uuid.Must(uuid.NewV4()), Role: role}
	token, _, err := s.tokens.Issue(p.UserID, p.Role)
	require.NoError(t, err)
	return p, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		jsonBody, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "Failed to decode response body: %s", rr.Body.String())
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[handler.ErrorResponse](t, rr).Error
}

func newRequest(t *testing.T, method, path, authorization string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}
