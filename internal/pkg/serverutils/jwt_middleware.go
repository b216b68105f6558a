package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Identity claims carried by the connect token. A registration-pending
// token has no user_id; it only authorizes the registration conversation.
const (
	ClaimUserID              = "user_id"
	ClaimUsername            = "username"
	ClaimRegistrationPending = "registration_pending"
	ClaimEmailHint           = "email_hint"
)

func JwtMiddleware(ctx *fiber.Ctx) error {
	tokenStr := bearerToken(ctx)
	if tokenStr == "" {
		// Websocket upgrades cannot set headers; allow token via query.
		tokenStr = ctx.Query("token")
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid claims"})
	}

	ctx.Locals(ClaimUserID, claims[ClaimUserID])
	ctx.Locals(ClaimUsername, claims[ClaimUsername])
	ctx.Locals(ClaimRegistrationPending, claims[ClaimRegistrationPending])
	ctx.Locals(ClaimEmailHint, claims[ClaimEmailHint])
	return ctx.Next()
}

func bearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}
	return authHeader[7:]
}
