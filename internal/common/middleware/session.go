package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Session Middleware
// ============================================================

const (
	// SessionCookie хранит токен сессии.
	SessionCookie = "sid"

	userIDKey = "userID"
	tokenKey  = "sessionToken"
)

// SessionResolver превращает токен сессии в userID.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, bool, error)
}

// RequireSession пропускает запрос дальше только с действующей сессией.
// Токен берётся из cookie sid или заголовка Authorization: Bearer.
func RequireSession(sessions SessionResolver) fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, token, ok := Authorize(c, sessions)
		if !ok {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		c.Locals(userIDKey, userID)
		c.Locals(tokenKey, token)
		return c.Next()
	}
}

// Authorize проверяет сессию без прерывания цепочки обработчиков.
func Authorize(c fiber.Ctx, sessions SessionResolver) (userID, token string, ok bool) {
	token = SessionToken(c)
	if token == "" {
		return "", "", false
	}
	userID, ok, err := sessions.Resolve(c.Context(), token)
	if err != nil || !ok {
		return "", "", false
	}
	return userID, token, true
}

// SessionToken достаёт токен из запроса; заголовок имеет приоритет над cookie.
func SessionToken(c fiber.Ctx) string {
	if auth := c.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Cookies(SessionCookie)
}

// UserID возвращает userID, сохранённый RequireSession.
func UserID(c fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

// ============================================================
// Error Handler
// ============================================================

// ErrorHandler отвечает на ошибки в том же формате {"error": ...}, что и обработчики.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	msg := "internal error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
