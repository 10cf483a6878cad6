// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"strings"

	"amanai-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID     = "user_id"
	HeaderUserID    = "X-User-Id"
	HeaderSessionID = "X-Session-Id"
)

var errIdentityRequired = apperror.Validation("User identity required (X-User-Id header)")

// ParseToken validates an HMAC-signed token and returns its user_id claim.
func ParseToken(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Token missing user_id")
	}
	return userID, nil
}

func bearer(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

// IdentityMiddleware resolves the caller from a bearer token when secret is set
// and a token is present, then from the X-User-Id header, then from ?user_id.
func IdentityMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if tokenStr := bearer(ctx); tokenStr != "" && secret != "" {
			userID, err := ParseToken(tokenStr, secret)
			if err != nil {
				return err
			}
			ctx.Locals(LocalUserID, userID)
			return ctx.Next()
		}

		userID := strings.TrimSpace(ctx.Get(HeaderUserID))
		if userID == "" {
			userID = strings.TrimSpace(ctx.Query("user_id"))
		}
		if userID == "" {
			return errIdentityRequired
		}

		ctx.Locals(LocalUserID, userID)
		return ctx.Next()
	}
}

// UserID reads what IdentityMiddleware stored.
func UserID(ctx *fiber.Ctx) string {
	userID, _ := ctx.Locals(LocalUserID).(string)
	return userID
}

// SessionKey is X-Session-Id when present, otherwise the user id.
func SessionKey(ctx *fiber.Ctx) string {
	if id := strings.TrimSpace(ctx.Get(HeaderSessionID)); id != "" {
		return id
	}
	return UserID(ctx)
}
