package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/unitledger/inventory-backend/internal/auth/domain"
)

const (
	CtxPrincipal = "principal"
	CtxUserID    = "user_id"
	CtxRole      = "role"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID int64
	Email  string
	Role   domain.Role
}

// HasRole reports whether the principal holds one of roles.
func (p Principal) HasRole(roles ...domain.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// SetPrincipal stores p on the gin context. This is set by the JWT middleware.
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(CtxPrincipal, p)
	c.Set(CtxUserID, p.UserID)
	c.Set(CtxRole, string(p.Role))
}

// PrincipalFrom extracts the authenticated caller from the gin context.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// UserID returns the caller's id, or 0 when unauthenticated.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}
