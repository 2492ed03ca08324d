package utils

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/medibook/medibook-server/cmd/models"
	"gorm.io/gorm"
)

// TokenValidity is the lifetime of an issued access token.
const TokenValidity = 30 * time.Minute

// ErrInvalidCredentials is returned for every authentication failure.
// Handlers surface it with a single generic message so a caller cannot
// tell which check failed.
var ErrInvalidCredentials = errors.New("could not validate credentials")

func secretKey() []byte {
	return []byte(os.Getenv("SECRET_KEY"))
}

// GenerateAccessToken issues a signed bearer token bound to a username.
func GenerateAccessToken(username string) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenValidity)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ResolveUsername extracts and validates the bearer token from the
// Authorization header and returns the username it was issued for.
func ResolveUsername(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrInvalidCredentials
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secretKey(), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}

	return claims.Subject, nil
}

// AuthorizedUser resolves the caller from the bearer token and checks the
// required role. An empty role accepts any authenticated user. Ownership
// of individual rows stays with the caller's query predicate; this only
// answers "who is calling and may they use this endpoint at all".
func AuthorizedUser(db *gorm.DB, r *http.Request, role string) (*models.User, error) {
	username, err := ResolveUsername(r)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if role != "" && user.Role != role {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}
