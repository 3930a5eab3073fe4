package middleware

import (
	"strings"

	"excel_interviewer_backend/internal/config"
	"excel_interviewer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware guards the admin API surface with a bearer JWT.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if claims.Role != "admin" {
			util.Forbidden(c)
			c.Abort()
			return
		}

		c.Set("admin", claims)
		c.Next()
	}
}
