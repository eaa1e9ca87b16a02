package Controllers

import (
	"bytes"
	"fmt"
	"time"

	"TaskLedger/middleware"

	"github.com/gofiber/fiber/v2"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type markPaidRequest struct {
	EmployeeID uint `json:"employee_id"`
}

func (h *Handler) PayrollSummary(c *fiber.Ctx) error {
	rows, err := h.Ledger.Payroll.UnpaidSummary(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"rate_per_hour": h.Ledger.Payroll.RatePerHour,
		"rows":          rows,
	})
}

func (h *Handler) MarkPaid(c *fiber.Ctx) error {
	var req markPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.EmployeeID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "employee_id is required", "field": "employee_id"})
	}
	n, err := h.Ledger.Claims.MarkPaid(c.UserContext(), middleware.ActorFrom(c), req.EmployeeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

func (h *Handler) ExportPayroll(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.Ledger.Payroll.ExportUnpaid(c.UserContext(), middleware.ActorFrom(c), &buf); err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxMIME)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="payroll-%s.xlsx"`, time.Now().Format("2006-01-02")))
	return c.Send(buf.Bytes())
}

func (h *Handler) EmployeeHistory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	history, err := h.Ledger.Payroll.DailyHistory(c.UserContext(), middleware.ActorFrom(c), id, c.Query("date"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(history)
}
