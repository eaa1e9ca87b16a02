package Controllers

import (
	"TaskLedger/Services"
	"TaskLedger/middleware"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListEmployees(c *fiber.Ctx) error {
	users, err := h.Ledger.Users.ListEmployees(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// CreateEmployee returns the generated password once; it is not stored in
// plaintext anywhere.
func (h *Handler) CreateEmployee(c *fiber.Ctx) error {
	var in Services.NewEmployeeInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err.Error())
	}
	user, password, err := h.Ledger.Users.CreateEmployee(c.UserContext(), middleware.ActorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":     user,
		"password": password,
	})
}

func (h *Handler) DeleteEmployee(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Ledger.Users.DeleteEmployee(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Employee deleted successfully"})
}
