package httpkit

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"treeleads/platform/config"
	"treeleads/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Gin context keys populated by AuthRequired.
const (
	ContextUserIDKey    = "userID"
	ContextRolesKey     = "roles"
	ContextCompanyIDKey = "companyID"
)

const (
	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
)

var errBadClaims = errors.New(errInvalidToken)

// accessClaims is the payload of tokens minted by auth/token.SignAccess.
type accessClaims struct {
	Type      string   `json:"type"`
	Roles     []string `json:"roles"`
	CompanyID string   `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthRequired verifies an HS256 access token and stores the caller's id,
// roles and optional company on the gin context.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, errMissingToken)
			return
		}

		claims, err := parseAccessToken(raw, cfg.GetJWTAccessSecret())
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRolesKey, append([]string{}, claims.Roles...))
		if strings.TrimSpace(claims.CompanyID) != "" {
			companyID, err := uuid.Parse(claims.CompanyID)
			if err != nil {
				abortUnauthorized(c, errInvalidToken)
				return
			}
			c.Set(ContextCompanyIDKey, companyID)
		}

		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.ActorIDKey, userID.String()))
		c.Next()
	}
}

// RequireRole aborts with 403 unless AuthRequired recorded the role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, _ := c.Get(ContextRolesKey)
		list, _ := roles.([]string)
		for _, r := range list {
			if r == role {
				c.Next()
				return
			}
		}
		abortForbidden(c)
	}
}

func bearerToken(header string) (string, bool) {
	raw, found := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)
	return raw, found && raw != ""
}

func parseAccessToken(raw, secret string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Type != "access" {
		return nil, errBadClaims
	}
	return claims, nil
}

func abortUnauthorized(c *gin.Context, message string) { Abort(c, http.StatusUnauthorized, message) }

func abortForbidden(c *gin.Context) { Abort(c, http.StatusForbidden, "forbidden") }
