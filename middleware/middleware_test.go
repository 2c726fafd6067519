package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"teashop/models"
	"teashop/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	utils.JwtKey = []byte("test-secret")
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func sessionCookie(t *testing.T, s *Sessions, claims *utils.Claims) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	require.NoError(t, s.SetCookie(rr, claims))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessions_RefreshesValidCookie(t *testing.T) {
	s := NewSessions("session", true, nil)
	cookie := sessionCookie(t, s, &utils.Claims{ID: "u1", Email: "a@b.co", Name: "Ann", Membership: "vip"})

	var seen *utils.Claims
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)
	assert.Equal(t, "vip", seen.Membership)

	refreshed := rr.Result().Cookies()
	require.Len(t, refreshed, 1)
	assert.Equal(t, "session", refreshed[0].Name)
	assert.True(t, refreshed[0].HttpOnly)
	assert.True(t, refreshed[0].Secure)
	assert.Greater(t, refreshed[0].MaxAge, 6*24*3600)
}

func TestSessions_ClearsInvalidCookie(t *testing.T) {
	s := NewSessions("session", false, nil)
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := ClaimsFrom(r.Context())
		assert.False(t, ok)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "garbage"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

type userMap map[primitive.ObjectID]*models.User

func (m userMap) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, utils.ErrNotFound
}

func TestSessions_ReloadsAccount(t *testing.T) {
	demoted := &models.User{ID: primitive.NewObjectID(), Email: "ex@b.co", Name: "Ex", IsAdmin: false, Membership: "standard"}
	users := userMap{demoted.ID: demoted}
	s := NewSessions("session", false, users)

	serve := func(cookie *http.Cookie) (*utils.Claims, *httptest.ResponseRecorder) {
		var seen *utils.Claims
		h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = ClaimsFrom(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return seen, rr
	}

	t.Run("demoted admin loses admin", func(t *testing.T) {
		stale := sessionCookie(t, s, &utils.Claims{ID: demoted.ID.Hex(), Admin: true, Membership: "vip"})
		seen, _ := serve(stale)
		require.NotNil(t, seen)
		assert.False(t, seen.Admin)
		assert.Equal(t, "standard", seen.Membership)
	})

	t.Run("deleted user is signed out", func(t *testing.T) {
		gone := sessionCookie(t, s, &utils.Claims{ID: primitive.NewObjectID().Hex(), Admin: true})
		seen, rr := serve(gone)
		assert.Nil(t, seen)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestAuthAndAdminAnswerNotFound(t *testing.T) {
	s := NewSessions("session", false, nil)
	user := sessionCookie(t, s, &utils.Claims{ID: "u1"})
	admin := sessionCookie(t, s, &utils.Claims{ID: "u2", Admin: true})

	tests := []struct {
		name   string
		chain  func(http.Handler) http.Handler
		cookie *http.Cookie
		status int
	}{
		{"auth without session", AuthMiddleware, nil, http.StatusNotFound},
		{"auth with session", AuthMiddleware, user, http.StatusOK},
		{"admin without session", AdminMiddleware, nil, http.StatusNotFound},
		{"admin as user", AdminMiddleware, user, http.StatusNotFound},
		{"admin as admin", AdminMiddleware, admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := s.Middleware(tt.chain(http.HandlerFunc(okHandler)))
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

type refundedErr struct{}

func (refundedErr) Error() string { return "refunded" }
func (refundedErr) AppError() *utils.AppError {
	return &utils.AppError{Status: http.StatusBadRequest, Message: "out of stock. Your payment has been refunded."}
}

func TestHandleTranslatesErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"app error", utils.BadRequest("your cart is empty"), http.StatusBadRequest, "your cart is empty"},
		{"validation", utils.Validation(map[string]string{"email": "required"}), http.StatusBadRequest, "validation failed"},
		{"duplicate key", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "dup"}}}, http.StatusConflict, "already exists"},
		{"not found sentinel", fmt.Errorf("load: %w", utils.ErrNotFound), http.StatusNotFound, "not found"},
		{"no documents", mongo.ErrNoDocuments, http.StatusNotFound, "not found"},
		{"custom", refundedErr{}, http.StatusBadRequest, "out of stock. Your payment has been refunded."},
		{"unknown", errors.New("dial tcp: refused"), http.StatusInternalServerError, "something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Handle(func(w http.ResponseWriter, r *http.Request) error { return tt.err })
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/x", nil))

			assert.Equal(t, tt.status, rr.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["error"])
			assert.NotContains(t, rr.Body.String(), "dial tcp")
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	h := rl.Handler(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	other := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	other.RemoteAddr = "198.51.100.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLoggingMiddlewareRecovers(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}
