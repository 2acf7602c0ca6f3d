package serverutils

import (
	"errors"
	"fmt"
	"os"

	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const principalKey = "principal"

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
)

func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
	}

	principal, err := ParsePrincipal(authHeader[7:])
	if errors.Is(err, ErrInvalidClaims) {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid claims"))
	}
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
	}

	ctx.Locals("user_id", principal.UserId.String())
	ctx.Locals(principalKey, principal)
	return ctx.Next()
}

// ParsePrincipal verifies an HS256 token signed with JWT_SECRET and returns
// the principal it names. Role and group fall back to user and default.
func ParsePrincipal(tokenStr string) (entity.Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return entity.Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Principal{}, ErrInvalidClaims
	}

	userIdStr, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return entity.Principal{}, ErrInvalidClaims
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = constant.PrincipalRoleUser
	}
	group, _ := claims["group"].(string)
	if group == "" {
		group = constant.DefaultGroupScope
	}

	return entity.NewUserPrincipal(userId, role, group), nil
}

// AdminOnly must run after JwtMiddleware.
func AdminOnly(ctx *fiber.Ctx) error {
	p, ok := PrincipalFrom(ctx)
	if !ok || !p.IsAdmin() {
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Admin access required"))
	}
	return ctx.Next()
}

func PrincipalFrom(ctx *fiber.Ctx) (entity.Principal, bool) {
	p, ok := ctx.Locals(principalKey).(entity.Principal)
	return p, ok
}
