package utils

import (
	"errors"
	"time"

	"teashop/models"

	"github.com/dgrijalva/jwt-go"
)

// JwtKey signs session cookies. Loaded from SESSION_SECRET in main.
var JwtKey []byte

// SessionTTL is how long a session cookie stays valid after the last request.
var SessionTTL = 7 * 24 * time.Hour

// Claims is the payload of the session cookie
type Claims struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Admin      bool   `json:"admin"`
	Membership string `json:"membership"`
	jwt.StandardClaims
}

// ClaimsFor builds session claims for a user.
func ClaimsFor(user *models.User) *Claims {
	return &Claims{
		ID:         user.ID.Hex(),
		Email:      user.Email,
		Name:       user.Name,
		Admin:      user.IsAdmin,
		Membership: user.Membership,
	}
}

// GenerateJWT signs claims with a fresh expiry of SessionTTL.
func GenerateJWT(claims *Claims) (string, time.Time, error) {
	expiresAt := time.Now().Add(SessionTTL)
	c := *claims
	c.StandardClaims = jwt.StandardClaims{
		ExpiresAt: expiresAt.Unix(),
		IssuedAt:  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &c)
	signed, err := token.SignedString(JwtKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseJWT validates a session token and returns its claims.
func ParseJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid session")
	}
	return claims, nil
}
