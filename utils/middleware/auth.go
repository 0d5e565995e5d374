package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/utils/auth"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
	"gorm.io/gorm"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	db         *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		db:         db,
	}
}

var (
	errMissingToken     = errors.New("missing authorization token")
	errBadFormat        = errors.New("invalid authorization format")
	errTokenInvalidated = errors.New("token has been invalidated")
)

// authenticate validates the bearer token and loads the mirrored user,
// creating the mirror row on first sight.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*auth.Claims, *model.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil, errMissingToken
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, errBadFormat
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		return nil, nil, err
	}
	if claims.TokenType != "access" {
		return nil, nil, auth.ErrInvalidToken
	}

	user := model.User{ID: claims.UserID}
	err = m.db.WithContext(c.UserContext()).
		Attrs(model.User{
			Username: claims.Username,
			Email:    claims.Email,
			Role:     claims.Role,
		}).
		FirstOrCreate(&user, model.User{ID: claims.UserID}).Error
	if err != nil {
		return nil, nil, err
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, errTokenInvalidated
	}
	return claims, &user, nil
}

func setLocals(c *fiber.Ctx, claims *auth.Claims, user *model.User) {
	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	c.Locals("user_role", user.Role)
	c.Locals("claims", claims)
	c.Locals("user", user)
}

func unauthorized(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errMissingToken):
		return response.Unauthorized(c, "Missing authorization token")
	case errors.Is(err, errBadFormat):
		return response.Unauthorized(c, "Invalid authorization format")
	case errors.Is(err, auth.ErrExpiredToken):
		return response.Unauthorized(c, "Token has expired")
	case errors.Is(err, errTokenInvalidated):
		return response.Unauthorized(c, "Token has been invalidated")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		return response.Unauthorized(c, "Invalid token")
	}
	return response.InternalServerError(c, "Failed to load user")
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, err := m.authenticate(c)
		if err != nil {
			return unauthorized(c, err)
		}
		setLocals(c, claims, user)
		return c.Next()
	}
}

// Optional is middleware that allows requests with or without a token
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}
		claims, user, err := m.authenticate(c)
		if err == nil {
			setLocals(c, claims, user)
		}
		return c.Next()
	}
}

// RequireAdmin is middleware that requires an authenticated admin
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, err := m.authenticate(c)
		if err != nil {
			return unauthorized(c, err)
		}
		if !user.IsAdmin() {
			return response.Forbidden(c, "Admin access required")
		}
		setLocals(c, claims, user)
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims := c.Locals("claims")
	if claims == nil {
		return nil, false
	}
	claimsData, ok := claims.(*auth.Claims)
	return claimsData, ok
}
