package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/docfoxhq/DocFox/app/models"
	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/conversion"
	"github.com/docfoxhq/DocFox/internal/pkg/security"
	"github.com/docfoxhq/DocFox/internal/pkg/usercontext"
)

// ConversionController handles job creation and polling
type ConversionController struct {
	manager        *conversion.Manager
	users          repository.UserRepository
	callbackSecret string
	callbackTTL    time.Duration
}

func NewConversionController(manager *conversion.Manager, users repository.UserRepository, callbackSecret string) *ConversionController {
	return &ConversionController{
		manager:        manager,
		users:          users,
		callbackSecret: callbackSecret,
		callbackTTL:    2 * time.Hour,
	}
}

type createConversionRequest struct {
	Type          string          `json:"type"`
	OutputFormat  string          `json:"output_format"`
	DocumentUUIDs []string        `json:"document_uuids"`
	Options       json.RawMessage `json:"options"`
}

// HandleCreate validates and creates a conversion job, then dispatches it in
// the background. The response carries the pending job; clients poll for the
// terminal state.
func (cc *ConversionController) HandleCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	var req createConversionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "invalid JSON body")
	}

	user, err := cc.users.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load user")
	}

	job, err := cc.manager.Create(user, conversion.CreateRequest{
		Type:          req.Type,
		OutputFormat:  req.OutputFormat,
		DocumentUUIDs: req.DocumentUUIDs,
		Options:       req.Options,
	})
	if err != nil {
		if handled, resp := handleEntitlementDenied(c, err); handled {
			return resp
		}
		if errors.Is(err, conversion.ErrInvalidRequest) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_request", err.Error())
		}
		if errors.Is(err, conversion.ErrJobNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "one or more documents were not found")
		}
		log.Errorf("[Conversion] Failed to create job for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to create conversion job")
	}

	token, err := security.GenerateCallbackToken(job.UUID, cc.callbackTTL, cc.callbackSecret)
	if err != nil {
		log.Errorf("[Conversion] Failed to mint callback token for job %s: %v", job.UUID, err)
		_ = cc.manager.FinalizeFailure(c.Context(), job.UUID, "internal error during dispatch")
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to dispatch conversion job")
	}

	// Dispatch outside the request; the client gets the pending job back
	// immediately and polls
	go func(j models.ConversionJob, tok string) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		if err := cc.manager.Dispatch(ctx, &j, tok); err != nil {
			log.Errorf("[Conversion] Dispatch error for job %s: %v", j.UUID, err)
		}
	}(*job, token)

	return c.JSON(jobResponse(job))
}

// HandleGet returns one job for polling. Jobs belonging to other users are
// indistinguishable from missing ones.
func (cc *ConversionController) HandleGet(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	jobUUID := c.Params("uuid")
	if jobUUID == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "job uuid missing")
	}

	job, err := cc.manager.Get(userCtx.UserID, jobUUID)
	if err != nil {
		if errors.Is(err, conversion.ErrJobNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "conversion job not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load job")
	}

	return c.JSON(jobResponse(job))
}

// HandleGetStatus serves the polling hot path with just the status string,
// answered from the Redis mirror when possible.
func (cc *ConversionController) HandleGetStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	jobUUID := c.Params("uuid")
	if jobUUID == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "job uuid missing")
	}

	status, err := cc.manager.StatusFor(c.Context(), userCtx.UserID, jobUUID)
	if err != nil {
		if errors.Is(err, conversion.ErrJobNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "conversion job not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load job status")
	}

	return c.JSON(fiber.Map{"uuid": jobUUID, "status": status})
}

// HandleList returns a page of the user's jobs
func (cc *ConversionController) HandleList(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	jobs, err := cc.manager.List(userCtx.UserID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to list jobs")
	}

	out := make([]fiber.Map, 0, len(jobs))
	for i := range jobs {
		out = append(out, jobResponse(&jobs[i]))
	}
	return c.JSON(fiber.Map{"jobs": out, "offset": offset, "limit": limit})
}

func jobResponse(job *models.ConversionJob) fiber.Map {
	resp := fiber.Map{
		"uuid":       job.UUID,
		"type":       job.Type,
		"status":     job.Status,
		"progress":   job.Progress,
		"created_at": job.CreatedAt,
	}
	if job.OutputFormat != "" {
		resp["output_format"] = job.OutputFormat
	}
	if job.Status == models.JobStatusCompleted {
		resp["result_url"] = job.ResultURL
	}
	if job.Status == models.JobStatusFailed {
		resp["error_message"] = job.ErrorMessage
	}
	if job.CompletedAt != nil {
		resp["completed_at"] = job.CompletedAt
	}
	return resp
}
