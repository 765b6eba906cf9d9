package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/sat-session-service/internal/config"
	"github.com/SAP-F-2025/sat-session-service/internal/utils"
)

const (
	devUserHeader = "X-User-ID"
	anonymousUser = "anonymous"
)

// TokenParser verifies a bearer token. *casdoorsdk.Client satisfies it.
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

func NewCasdoorParser(cfg config.AuthConfig) TokenParser {
	return casdoorsdk.NewClient(cfg.Endpoint, cfg.ClientID, cfg.ClientSecret,
		cfg.Certificate, cfg.Organization, cfg.Application)
}

// AuthMiddleware puts the caller's user id on the context. With a nil parser
// the id comes from the X-User-ID header, for local development.
func AuthMiddleware(parser TokenParser, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if parser == nil {
			userID := strings.TrimSpace(c.GetHeader(devUserHeader))
			if userID == "" {
				userID = anonymousUser
			}
			c.Set(userIDKey, userID)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		claims, err := parser.ParseJwtToken(strings.TrimSpace(token))
		if err != nil {
			logger.Warn("Rejected token", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
			})
			return
		}

		userID := claims.Subject
		if userID == "" {
			userID = claims.Id
		}
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Token has no subject",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}
