package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"teashop/models"
	"teashop/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// SessionUsers reloads the account behind a session.
type SessionUsers interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Sessions issues and reads the session cookie. When Users is set, every
// refresh re-reads the account so role changes and deletions apply at once.
type Sessions struct {
	CookieName string
	Secure     bool
	Users      SessionUsers
}

func NewSessions(cookieName string, secure bool, users SessionUsers) *Sessions {
	return &Sessions{CookieName: cookieName, Secure: secure, Users: users}
}

// SetCookie signs claims into a fresh session cookie.
func (s *Sessions) SetCookie(w http.ResponseWriter, claims *utils.Claims) error {
	token, expiresAt, err := utils.GenerateJWT(claims)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware reads the session cookie on every request. A valid session is
// attached to the context and re-issued with a fresh expiry; an invalid one
// is cleared and the request continues anonymously.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := utils.ParseJWT(cookie.Value)
		if err == nil {
			claims, err = s.reload(r.Context(), claims)
		}
		if err != nil {
			s.ClearCookie(w)
			next.ServeHTTP(w, r)
			return
		}
		if err := s.SetCookie(w, claims); err != nil {
			utils.Log.WithError(err).Warn("refresh session cookie")
		}
		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reload replaces the cookie's claims with the account's current state. A
// lookup failure other than a missing account keeps the existing claims.
func (s *Sessions) reload(ctx context.Context, claims *utils.Claims) (*utils.Claims, error) {
	if s.Users == nil {
		return claims, nil
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.FindByID(ctx, id)
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return nil, err
	case err != nil:
		utils.Log.WithError(err).WithField("user_id", claims.ID).Warn("reload session user")
		return claims, nil
	}
	return utils.ClaimsFor(user), nil
}

// ClaimsFrom returns the session attached by Sessions.Middleware.
func ClaimsFrom(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	return claims, ok && claims != nil
}

// AuthMiddleware requires a session. Missing sessions get a plain 404 so
// protected routes are indistinguishable from missing ones.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFrom(r.Context()); !ok {
			notFound(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminMiddleware ensures that the user has admin privileges
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok || !claims.Admin {
			notFound(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func notFound(w http.ResponseWriter) {
	WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}
