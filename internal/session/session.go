package session

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Session is the explicit session value threaded through the view-state
// engine. Components branch on it directly instead of reaching into
// ambient token storage, so they stay testable without a simulated
// browser environment.
type Session struct {
	UserID   string `json:"user_id,omitempty"`
	LoggedIn bool   `json:"logged_in"`
}

// Anonymous is the session of a shopper without a valid token. Browsing,
// filtering and variant selection all work anonymously.
var Anonymous = Session{}

// CanFavourite reports whether the favourite toggle is available.
func (s Session) CanFavourite() bool {
	return s.LoggedIn
}

// Claims are the JWT claims issued by the external auth service.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates access tokens issued by the auth service. This
// service never mints tokens; authentication is an external collaborator.
type Verifier struct {
	secretKey []byte
}

func NewVerifier(secretKey string) *Verifier {
	return &Verifier{secretKey: []byte(secretKey)}
}

// Verify parses and validates a token, returning the logged-in session it
// represents.
func (v *Verifier) Verify(tokenString string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Anonymous, ErrExpiredToken
		}
		return Anonymous, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Anonymous, ErrInvalidToken
	}

	return Session{UserID: claims.UserID, LoggedIn: true}, nil
}
