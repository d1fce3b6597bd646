package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/docfoxhq/DocFox/internal/pkg/conversion"
	"github.com/docfoxhq/DocFox/internal/pkg/security"
)

// CallbackController receives job results from the processing engine. The
// endpoint is authenticated by the per-job HMAC token minted at dispatch, not
// by a user session.
type CallbackController struct {
	manager        *conversion.Manager
	callbackSecret string
}

func NewCallbackController(manager *conversion.Manager, callbackSecret string) *CallbackController {
	return &CallbackController{manager: manager, callbackSecret: callbackSecret}
}

// HandleCallback finalizes a job from an engine result. Redelivered
// callbacks return 200 without re-running any side effects.
func (cb *CallbackController) HandleCallback(c *fiber.Ctx) error {
	jobUUID := c.Params("uuid")
	if jobUUID == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "job uuid missing")
	}

	token := c.Query("token")
	claims, err := security.VerifyCallbackToken(token, cb.callbackSecret)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "invalid callback token")
	}
	if claims.JobUUID != jobUUID {
		// Token is valid but minted for a different job
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "invalid callback token")
	}

	var result conversion.Result
	if err := c.BodyParser(&result); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "invalid JSON body")
	}

	if result.Success {
		if result.ResultURL == "" {
			return jsonError(c, fiber.StatusBadRequest, "invalid_request", "result_url is required on success")
		}
		err = cb.manager.FinalizeSuccess(c.Context(), jobUUID, result.ResultURL)
	} else {
		msg := result.Error
		if msg == "" {
			msg = "processing failed"
		}
		err = cb.manager.FinalizeFailure(c.Context(), jobUUID, msg)
	}
	if err != nil {
		log.Errorf("[Callback] Failed to finalize job %s: %v", jobUUID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to finalize job")
	}

	return c.JSON(fiber.Map{"ok": true})
}
