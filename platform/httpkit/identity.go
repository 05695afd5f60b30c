package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Roles carried in the access token.
const (
	RoleAdmin   = "admin"
	RoleCompany = "company"
)

// Identity is the authenticated caller as recorded by AuthRequired.
type Identity struct {
	userID    uuid.UUID
	roles     []string
	companyID *uuid.UUID
}

func (i *Identity) UserID() uuid.UUID        { return i.userID }
func (i *Identity) Roles() []string          { return i.roles }
func (i *Identity) HasRole(role string) bool { return slices.Contains(i.roles, role) }

// CompanyID is the tree service company the caller acts for, if any.
func (i *Identity) CompanyID() *uuid.UUID { return i.companyID }

// GetIdentity returns nil when the request was not authenticated.
func GetIdentity(c *gin.Context) *Identity {
	uid, ok := c.Value(ContextUserIDKey).(uuid.UUID)
	if !ok {
		return nil
	}
	id := &Identity{userID: uid}
	id.roles, _ = c.Value(ContextRolesKey).([]string)
	if companyID, ok := c.Value(ContextCompanyIDKey).(uuid.UUID); ok {
		id.companyID = &companyID
	}
	return id
}

// MustGetIdentity aborts with 401 and returns nil for anonymous requests.
func MustGetIdentity(c *gin.Context) *Identity {
	id := GetIdentity(c)
	if id == nil {
		Abort(c, http.StatusUnauthorized, "unauthorized")
	}
	return id
}

// MustGetCompanyID returns the company bound to the caller or aborts with 403.
func MustGetCompanyID(c *gin.Context) (uuid.UUID, bool) {
	id := MustGetIdentity(c)
	if id == nil {
		return uuid.Nil, false
	}
	if id.companyID == nil {
		Abort(c, http.StatusForbidden, "company account required")
		return uuid.Nil, false
	}
	return *id.companyID, true
}
