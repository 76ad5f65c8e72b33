package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

var (
	errNoToken     = errors.New("missing bearer token")
	errNoSubject   = errors.New("token has no subject")
	errAuthMissing = errors.New("authentication is not configured")
)

// Authenticator verifies the HS256 access tokens issued by the hosted auth
// provider. The user id is the token subject.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// UserID validates a raw token and returns its subject.
func (a *Authenticator) UserID(raw string) (string, error) {
	if len(a.secret) == 0 {
		return "", errAuthMissing
	}
	tok, err := a.parser.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sub) == "" {
		return "", errNoSubject
	}
	return sub, nil
}

func bearer(c *gin.Context) (string, error) {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", errNoToken
	}
	tok := strings.TrimSpace(h[7:])
	if tok == "" {
		return "", errNoToken
	}
	return tok, nil
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"message":    msg,
		"request_id": GetRequestID(c),
	})
}

// RequireUser rejects requests without a valid token.
func (a *Authenticator) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearer(c)
		if err != nil {
			unauthorized(c, "authentication required")
			return
		}
		uid, err := a.UserID(raw)
		if err != nil {
			_ = c.Error(err)
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			unauthorized(c, msg)
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// OptionalUser sets the user when a valid token is present and otherwise
// lets the request through anonymously. A present but invalid token is still a 401.
func (a *Authenticator) OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearer(c)
		if err != nil {
			c.Next()
			return
		}
		uid, err := a.UserID(raw)
		if err != nil {
			_ = c.Error(err)
			unauthorized(c, "invalid token")
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// GetUserID returns the authenticated user id, or "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}
