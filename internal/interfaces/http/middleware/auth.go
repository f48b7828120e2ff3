package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/application/fulfillment"
	"github.com/openmarket/backend/internal/infrastructure/auth"
	"github.com/openmarket/backend/internal/interfaces/http/dto"
)

// Context keys set by the auth middleware
const (
	ClaimsKey = "auth_claims"
	ActorKey  = "auth_actor"

	authHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
)

// Token roles as carried in JWT claims
const (
	TokenRoleCustomer   = "CUSTOMER"
	TokenRoleRetailer   = "RETAILER"
	TokenRoleWholesaler = "WHOLESALER"
)

// Auth validates the bearer token and stores the claims and the resolved
// actor in the request context. Requests without a valid token are rejected.
func Auth(jwtService *auth.JWTService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authHeaderKey)
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)
		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			logger.Debug("token validation failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid token")
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// RequireRoles rejects requests whose actor holds none of the given roles.
// Must run after Auth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		requestID := GetRequestID(c)
		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.NewErrorResponse("FORBIDDEN", "Insufficient role for this operation", requestID))
	}
}

// GetActor returns the actor resolved by the Auth middleware
func GetActor(c *gin.Context) (fulfillment.Actor, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return fulfillment.Actor{}, false
	}
	actor, ok := v.(fulfillment.Actor)
	return actor, ok
}

// GetClaims returns the JWT claims stored by the Auth middleware
func GetClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(ClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func actorFromClaims(claims *auth.Claims) (fulfillment.Actor, error) {
	userID, err := claims.GetUserUUID()
	if err != nil {
		return fulfillment.Actor{}, err
	}
	storeID, err := claims.GetStoreUUID()
	if err != nil {
		return fulfillment.Actor{}, err
	}

	var role string
	switch claims.Role {
	case TokenRoleCustomer:
		role = fulfillment.RoleCustomer
	case TokenRoleRetailer:
		role = fulfillment.RoleRetailer
	case TokenRoleWholesaler:
		role = fulfillment.RoleWholesaler
	default:
		return fulfillment.Actor{}, errors.New("unknown role in claims")
	}

	return fulfillment.Actor{
		UserID:  userID,
		StoreID: storeID,
		Role:    role,
	}, nil
}

func abortUnauthorized(c *gin.Context, code, message string) {
	requestID := GetRequestID(c)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, requestID))
}
