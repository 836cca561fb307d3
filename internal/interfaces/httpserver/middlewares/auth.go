package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/workhive/workhive-server/internal/domain"
	"github.com/workhive/workhive-server/internal/infrastructure/metrics"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/dto"
)

const principalContextKey = "principal"

type accountClaims struct {
	DisplayName  string `json:"display_name"`
	ProfileImage string `json:"profile_image"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates HMAC-signed bearer tokens and stores the caller
// identity in the gin context.
func AuthMiddleware(secret []byte, issuer string, maxAge time.Duration, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := principalFromBearer(c, secret, issuer, maxAge)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Msg("unauthenticated request")
			metrics.AuthRequestsTotal.WithLabelValues("rejected").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Response{
				Success: false,
				Error:   &dto.ErrorInfo{Code: "unauthorized", Message: "authentication required"},
			})
			return
		}

		metrics.AuthRequestsTotal.WithLabelValues("accepted").Inc()
		setPrincipal(c, principal)
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (domain.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := val.(domain.Principal)
	return principal, ok
}

func setPrincipal(c *gin.Context, principal domain.Principal) {
	c.Set(principalContextKey, principal)
	c.Set("user_id", principal.ID)
}

func principalFromBearer(c *gin.Context, secret []byte, issuer string, maxAge time.Duration) (domain.Principal, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return domain.Principal{}, errors.New("missing authorization header")
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return domain.Principal{}, errors.New("malformed authorization header")
	}

	claims := &accountClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Principal{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return domain.Principal{}, errors.New("invalid token")
	}
	if maxAge > 0 && claims.IssuedAt != nil && time.Since(claims.IssuedAt.Time) > maxAge {
		return domain.Principal{}, errors.New("token too old")
	}

	return domain.Principal{
		ID:           claims.Subject,
		DisplayName:  claims.DisplayName,
		ProfileImage: claims.ProfileImage,
	}, nil
}
