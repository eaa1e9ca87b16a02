package Controllers

import (
	"errors"
	"log"
	"strings"

	"TaskLedger/Models"
	"TaskLedger/Services"
	"TaskLedger/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
)

type rejectRequest struct {
	Reason string `json:"reason"`
}

// SubmitClaim accepts multipart/form-data (with an optional "screenshot"
// file) or a JSON body without a proof.
func (h *Handler) SubmitClaim(c *fiber.Ctx) error {
	var in Services.SubmitClaimInput
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		hours, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("time_spent_hours")))
		if err != nil {
			return respondError(c, &Services.ValidationError{Field: "time_spent_hours", Message: "time_spent_hours must be a number"})
		}
		in = Services.SubmitClaimInput{
			Platform:       Models.Platform(c.FormValue("platform")),
			AccountName:    c.FormValue("account_name"),
			TaskExternalID: c.FormValue("task_external_id"),
			TimeSpentHours: hours,
		}

		file, err := c.FormFile("screenshot")
		switch {
		case err == nil:
			ref, err := h.Proofs.SaveFile(file)
			if err != nil {
				return respondError(c, err)
			}
			in.ScreenshotRef = ref
		case !errors.Is(err, fasthttp.ErrMissingFile):
			return badRequest(c, err.Error())
		}
	} else if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err.Error())
	}

	claim, err := h.Ledger.Claims.SubmitClaim(c.UserContext(), middleware.ActorFrom(c), in)
	if err != nil {
		if in.ScreenshotRef != "" {
			if rmErr := h.Proofs.Remove(in.ScreenshotRef); rmErr != nil {
				log.Printf("Error removing orphaned proof %s: %v", in.ScreenshotRef, rmErr)
			}
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(claim)
}

func (h *Handler) MyClaims(c *fiber.Ctx) error {
	claims, err := h.Ledger.Claims.MyClaims(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(claims)
}

func (h *Handler) GetClaim(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	claim, err := h.Ledger.Claims.GetClaim(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(claim)
}

// ClaimScreenshot streams the stored proof to the owner or a manager.
func (h *Handler) ClaimScreenshot(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	claim, err := h.Ledger.Claims.GetClaim(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if claim.ScreenshotRef == Models.NoScreenshot {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "claim has no screenshot"})
	}
	path, err := h.Proofs.Path(claim.ScreenshotRef)
	if err != nil {
		return respondError(c, err)
	}
	return c.SendFile(path)
}

func (h *Handler) PendingClaims(c *fiber.Ctx) error {
	groups, err := h.Ledger.Claims.ListPending(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(groups)
}

func (h *Handler) ApproveClaim(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	claim, err := h.Ledger.Claims.ApproveClaim(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(claim)
}

func (h *Handler) RejectClaim(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req rejectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err.Error())
	}
	claim, err := h.Ledger.Claims.RejectClaim(c.UserContext(), middleware.ActorFrom(c), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(claim)
}

func (h *Handler) ClaimActivity(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	entries, err := h.Ledger.Claims.ClaimActivity(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}
