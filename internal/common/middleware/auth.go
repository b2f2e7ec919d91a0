package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"

	"sharematch-backend/internal/common/logger"
)

// ComplianceAdminRole grants access to other users' compliance records.
const ComplianceAdminRole = "compliance-admin"

// AuthMiddleware verifies OIDC bearer tokens from the auth identity provider.
type AuthMiddleware struct {
	verifier *oidc.IDTokenVerifier
	clientID string
}

// NewAuthMiddleware discovers the OIDC issuer and builds a token verifier.
func NewAuthMiddleware(ctx context.Context, issuerURL, clientID string) (*AuthMiddleware, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	// Audience is checked manually below so both string and []string
	// claim shapes are accepted.
	verifier := provider.Verifier(&oidc.Config{SkipClientIDCheck: true})

	return &AuthMiddleware{
		verifier: verifier,
		clientID: clientID,
	}, nil
}

// UserAuth validates end-user tokens and stores the subject and roles in
// the gin context.
func (m *AuthMiddleware) UserAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		idToken, err := m.verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			logger.Warn().Err(err).Msg("Token verification failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			logger.Error().Err(err).Msg("Failed to extract claims from token")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to extract claims from token"})
			return
		}

		if !m.isAudienceValid(claims) {
			logger.Warn().Interface("aud", claims["aud"]).Msg("Token audience validation failed")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token not valid for this service"})
			return
		}

		c.Set("user_id", idToken.Subject)
		c.Set("user_claims", claims)
		c.Next()
	}
}

// isAudienceValid checks the 'aud' claim, which providers encode either
// as a string or a list of strings.
func (m *AuthMiddleware) isAudienceValid(claims map[string]interface{}) bool {
	aud, ok := claims["aud"]
	if !ok {
		return false
	}

	switch v := aud.(type) {
	case string:
		return v == m.clientID
	case []interface{}:
		for _, a := range v {
			if s, ok := a.(string); ok && s == m.clientID {
				return true
			}
		}
	}
	return false
}

// HasRole reports whether the verified token carries the given role.
func HasRole(c *gin.Context, role string) bool {
	claims, exists := c.Get("user_claims")
	if !exists {
		return false
	}
	m, ok := claims.(map[string]interface{})
	if !ok {
		return false
	}
	roles, ok := m["roles"].([]interface{})
	if !ok {
		return false
	}
	for _, r := range roles {
		if s, ok := r.(string); ok && s == role {
			return true
		}
	}
	return false
}

// ServiceAuth guards internal endpoints with a static service token.
func ServiceAuth(serviceToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader("X-Service-Token")
		if supplied == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Service token required"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(serviceToken)) != 1 {
			logger.Warn().Str("client_ip", c.ClientIP()).Msg("Service token mismatch")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid service token"})
			return
		}
		c.Next()
	}
}
