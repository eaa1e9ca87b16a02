// Package Controllers maps HTTP requests onto ledger operations.
package Controllers

import (
	"errors"
	"log"
	"strconv"

	"TaskLedger/Policy"
	"TaskLedger/Services"
	"TaskLedger/Storage"
	"TaskLedger/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handler carries the collaborators every endpoint needs.
type Handler struct {
	Ledger *Services.Ledger
	Proofs *Storage.ProofStore
	Tokens middleware.Tokens
	LogDir string
}

func respondError(c *fiber.Ctx, err error) error {
	var (
		validation *Services.ValidationError
		duplicate  *Services.DuplicateClaimError
		notFound   *Services.NotFoundError
		forbidden  *Policy.ForbiddenError
	)
	switch {
	case errors.As(err, &validation):
		body := fiber.Map{"error": validation.Message}
		if validation.Field != "" {
			body["field"] = validation.Field
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.As(err, &duplicate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": duplicate.Error()})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
	case errors.As(err, &forbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": forbidden.Error()})
	case errors.Is(err, Policy.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Storage.ErrNotImage), errors.Is(err, Storage.ErrProofTooBig):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "field": "screenshot"})
	}
	log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &Services.ValidationError{Field: name, Message: "invalid " + name}
	}
	return uint(id), nil
}
