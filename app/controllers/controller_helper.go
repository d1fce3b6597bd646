package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/docfoxhq/DocFox/internal/pkg/entitlements"
)

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// entitlementStatus maps a denial reason to its HTTP status. Size denials use
// 413 so clients can distinguish "shrink the file" from "upgrade the plan".
func entitlementStatus(reason string) int {
	if reason == entitlements.ReasonFileTooLarge {
		return fiber.StatusRequestEntityTooLarge
	}
	return fiber.StatusForbidden
}

// handleEntitlementDenied renders a denial error, or returns false when the
// error is not an entitlement denial
func handleEntitlementDenied(c *fiber.Ctx, err error) (bool, error) {
	var denied *entitlements.DeniedError
	if !errors.As(err, &denied) {
		return false, nil
	}
	d := denied.Decision
	resp := fiber.Map{
		"error":   d.Reason,
		"message": d.Message,
	}
	if d.Limit != 0 {
		resp["limit"] = d.Limit
	}
	return true, c.Status(entitlementStatus(d.Reason)).JSON(resp)
}
