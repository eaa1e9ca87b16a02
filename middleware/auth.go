package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"TaskLedger/Models"
	"TaskLedger/Policy"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	CookieName = "jwt"
	actorKey   = "actor"
)

// UserLookup resolves the user a session token points at.
type UserLookup interface {
	Get(ctx context.Context, id uint) (*Models.User, error)
}

type Tokens struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (t Tokens) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

// Sign issues a session token for user, returning it with its expiry.
func (t Tokens) Sign(user Models.User) (string, time.Time, error) {
	issued := t.now()
	expires := issued.Add(t.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString(t.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates raw and returns the user id it was issued for.
func (t Tokens) Parse(raw string) (uint, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.Secret, nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token claims")
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject: %w", err)
	}
	return uint(id), nil
}

func tokenFrom(c *fiber.Ctx) string {
	if cookie := c.Cookies(CookieName); cookie != "" {
		return cookie
	}
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// Verify requires a valid session and stores the caller's *Policy.Actor.
func Verify(tokens Tokens, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := tokenFrom(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not Logged In.",
			})
		}

		id, err := tokens.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		user, err := users.Get(c.UserContext(), id)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		c.Locals(actorKey, Policy.ActorFor(*user))
		return c.Next()
	}
}

// RequireManager must run after Verify.
func RequireManager() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !ActorFrom(c).IsManager() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions to access this resource",
			})
		}
		return c.Next()
	}
}

// ActorFrom returns the authenticated caller, or nil.
func ActorFrom(c *fiber.Ctx) *Policy.Actor {
	actor, _ := c.Locals(actorKey).(*Policy.Actor)
	return actor
}
