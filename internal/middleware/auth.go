package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SeifHesham2/SwiftRide/internal/auth"
)

const claimsKey = "auth.claims"

type errorBody struct {
	Error string `json:"error"`
}

// Authenticate requires a valid bearer token issued for role.
func Authenticate(authService *auth.Service, role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: err.Error()})
			return
		}

		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "token not valid for this resource"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireSubject rejects requests whose token subject differs from the path
// parameter param. It must run after Authenticate.
func RequireSubject(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
			return
		}

		if c.Param(param) != strconv.FormatInt(claims.Subject, 10) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "token not valid for this resource"})
			return
		}

		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}
