package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/healing-guide-backend/internal/http/response"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

const AdminRole = "admin"

// AdminClaims is the token body accepted on admin routes.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AdminAuth struct {
	log    *logger.Logger
	secret []byte
}

// NewAdminAuth guards routes with HS256 bearer tokens. An empty secret disables the routes
// it guards (503).
func NewAdminAuth(log *logger.Logger, secret string) *AdminAuth {
	return &AdminAuth{
		log:    log.With("middleware", "AdminAuth"),
		secret: []byte(strings.TrimSpace(secret)),
	}
}

var (
	errAdminDisabled = apierr.Unavailable("admin_disabled", "admin access not configured")
	errMissingToken  = apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
	errNotAdmin      = apierr.Forbidden("forbidden", "admin role required")
)

func (a *AdminAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(a.secret) == 0 {
			response.Abort(c, errAdminDisabled)
			return
		}
		raw := bearerToken(c)
		if raw == "" {
			response.Abort(c, errMissingToken)
			return
		}
		claims := &AdminClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			a.log.Debug("admin token rejected", "error", err)
			response.Abort(c, errMissingToken)
			return
		}
		if claims.Role != AdminRole {
			response.Abort(c, errNotAdmin)
			return
		}
		c.Set("admin_subject", claims.Subject)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// IssueAdminToken signs an admin token for subject valid for ttl.
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", errors.New("admin secret is empty")
	}
	now := time.Now()
	claims := AdminClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
