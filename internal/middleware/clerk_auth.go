package middleware

import (
	"context"
	"strings"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/cashlens-recon/internal/utils"
)

const userIDKey = "user_id"

// TokenVerifier checks a session token and returns the user id it was issued to
type TokenVerifier func(ctx context.Context, token string) (string, error)

// ClerkVerifier verifies Clerk session JWTs signed for secretKey's instance
func ClerkVerifier(secretKey string) TokenVerifier {
	clerk.SetKey(secretKey)

	return func(ctx context.Context, token string) (string, error) {
		claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}
}

// ClerkAuth rejects requests without a valid bearer token and stores the
// token's subject as the request's user id.
func ClerkAuth(verify TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return utils.NewUnauthorizedError("Missing authorization token")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || token == "" {
			return utils.NewUnauthorizedError("Invalid authorization header format")
		}

		userID, err := verify(c.Context(), token)
		if err != nil || userID == "" {
			return utils.NewUnauthorizedError("Invalid or expired token")
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside ClerkAuth.
func UserID(c fiber.Ctx) string {
	userID, _ := c.Locals(userIDKey).(string)
	return userID
}
