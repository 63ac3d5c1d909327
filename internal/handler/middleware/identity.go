package middleware

import (
	"net/http"

	"shareit/internal/handler/httperr"
	"shareit/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderUserID carries the caller's identity, set by the trusted gateway in
// front of this service. There is no token auth here; the header is the
// whole contract.
const HeaderUserID = "X-Sharer-User-Id"

const ctxUserIDKey = "user_id"

var (
	errMissingUserHeader = errs.New("missing " + HeaderUserID + " header")
	errInvalidUserHeader = errs.New("invalid " + HeaderUserID + " header")
)

type IdentityMiddleware struct{}

func NewIdentityMiddleware() *IdentityMiddleware {
	return &IdentityMiddleware{}
}

func (m *IdentityMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderUserID)
		if raw == "" {
			httperr.AbortWithError(c, http.StatusBadRequest, errMissingUserHeader, "Missing user header", nil)
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, errInvalidUserHeader, "Invalid user header", nil)
			return
		}

		c.Set(ctxUserIDKey, userID)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ctxUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
