package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"aroti/utils"

	"github.com/MicahParks/keyfunc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrInvalidIssuer  = errors.New("unexpected token issuer")
	ErrInvalidAud     = errors.New("token audience mismatch")
	ErrMissingSubject = errors.New("token has no subject")
)

// NewJWKS fetches the issuer's signing keys and keeps refreshing them in the background.
// Call EndBackground on the result at shutdown.
func NewJWKS(jwksURL string, logger *zap.Logger) (*keyfunc.JWKS, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("JWKS refresh failed", zap.String("url", jwksURL), zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	return jwks, nil
}

// TokenVerifier checks RS256 bearer tokens issued by one realm for one audience.
type TokenVerifier struct {
	keyfunc  jwt.Keyfunc
	issuer   string
	audience string
}

func NewTokenVerifier(keys jwt.Keyfunc, issuer, audience string) *TokenVerifier {
	return &TokenVerifier{keyfunc: keys, issuer: issuer, audience: audience}
}

// Verify validates the signature, expiry, issuer and audience, and returns the subject.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}
	if !claims.VerifyIssuer(v.issuer, true) {
		return "", ErrInvalidIssuer
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return "", ErrInvalidAud
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

// JWTAuthMiddleware rejects requests without a valid bearer token and stores the subject as the user id.
func JWTAuthMiddleware(verifier *TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrMissingToken.Error()})
			return
		}

		userID, err := verifier.Verify(tokenString)
		if err != nil {
			logger.Debug("Bearer token rejected", zap.Error(err), zap.String("requestId", c.GetString(utils.RequestIDKey)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(utils.UserIDKey, userID)
		c.Next()
	}
}
