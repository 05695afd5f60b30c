// Package token mints access tokens accepted by the API's auth middleware.
// Sign-in itself is handled outside this service.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

// AccessParams describes the subject of an access token.
type AccessParams struct {
	UserID    uuid.UUID
	Roles     []string
	CompanyID *uuid.UUID
	TTL       time.Duration
}

// SignAccess returns an HS256 access token for params signed with secret.
func SignAccess(secret string, params AccessParams, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is required")
	}
	if params.UserID == uuid.Nil {
		return "", errors.New("user id is required")
	}
	if params.TTL <= 0 {
		return "", errors.New("ttl must be positive")
	}

	claims := jwt.MapClaims{
		"sub":   params.UserID.String(),
		"type":  accessTokenType,
		"roles": params.Roles,
		"exp":   now.Add(params.TTL).Unix(),
		"iat":   now.Unix(),
	}
	if params.CompanyID != nil {
		claims["company_id"] = params.CompanyID.String()
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(secret))
}
