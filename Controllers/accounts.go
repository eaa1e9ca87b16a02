package Controllers

import (
	"context"

	"TaskLedger/Models"
	"TaskLedger/Policy"
	"TaskLedger/Services"
	"TaskLedger/middleware"

	"github.com/gofiber/fiber/v2"
)

type assigneeRequest struct {
	EmployeeID *uint `json:"employee_id"`
}

func (h *Handler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.Ledger.Accounts.ListAccounts(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(accounts)
}

func (h *Handler) CreateAccount(c *fiber.Ctx) error {
	var in Services.NewAccountInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err.Error())
	}
	account, err := h.Ledger.Accounts.CreateAccount(c.UserContext(), middleware.ActorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *Handler) AccountNotifications(c *fiber.Ctx) error {
	notes, err := h.Ledger.Accounts.Notifications(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(notes)
}

func (h *Handler) UnassignAllAccounts(c *fiber.Ctx) error {
	n, err := h.Ledger.Accounts.UnassignAll(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unassigned": n})
}

func (h *Handler) ReassignAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req assigneeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	account, err := h.Ledger.Accounts.ReassignAccount(c.UserContext(), middleware.ActorFrom(c), id, req.EmployeeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(account)
}

func (h *Handler) DeleteAccount(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Ledger.Accounts.DeleteAccount(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}

func (h *Handler) AccountActivity(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	entries, err := h.Ledger.Accounts.AccountActivity(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

func (h *Handler) MyAccounts(c *fiber.Ctx) error {
	accounts, err := h.Ledger.Accounts.MyAccounts(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(accounts)
}

type accountAction func(context.Context, *Policy.Actor, uint) (*Models.WorkAccount, error)

// accountTransition adapts accept, pause, leave and dismiss to a handler.
func accountTransition(action accountAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		account, err := action(c.UserContext(), middleware.ActorFrom(c), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(account)
	}
}

func (h *Handler) AcceptAccount() fiber.Handler {
	return accountTransition(h.Ledger.Accounts.AcceptAccount)
}

func (h *Handler) PauseAccount() fiber.Handler {
	return accountTransition(h.Ledger.Accounts.PauseAccount)
}

func (h *Handler) LeaveAccount() fiber.Handler {
	return accountTransition(h.Ledger.Accounts.LeaveAccount)
}

func (h *Handler) DismissUnpause() fiber.Handler {
	return accountTransition(h.Ledger.Accounts.DismissUnpauseNotification)
}
