package Controllers

import (
	"time"

	"TaskLedger/Models"
	"TaskLedger/Policy"
	"TaskLedger/middleware"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	CurrentPassword string `json:"current_password"`
	NewUsername     string `json:"new_username"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.Ledger.Users.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return h.startSession(c, user)
}

func (h *Handler) startSession(c *fiber.Ctx, user *Models.User) error {
	token, expires, err := h.Tokens.Sign(*user)
	if err != nil {
		return respondError(c, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expires,
		"user":       Policy.ActorFor(*user),
	})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.ActorFrom(c))
}

// UpdateCredentials changes the caller's username and/or password and
// reissues the session.
func (h *Handler) UpdateCredentials(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	user, err := h.Ledger.Users.UpdateCredentials(c.UserContext(), middleware.ActorFrom(c),
		req.CurrentPassword, req.NewUsername, req.NewPassword)
	if err != nil {
		return respondError(c, err)
	}
	return h.startSession(c, user)
}
