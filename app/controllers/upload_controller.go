package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/docfoxhq/DocFox/app/models"
	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/intake"
	"github.com/docfoxhq/DocFox/internal/pkg/usercontext"
)

// UploadController handles document uploads
type UploadController struct {
	intake *intake.Service
	users  repository.UserRepository
	docs   repository.DocumentRepository
}

func NewUploadController(intakeSvc *intake.Service, users repository.UserRepository, docs repository.DocumentRepository) *UploadController {
	return &UploadController{intake: intakeSvc, users: users, docs: docs}
}

// HandleUpload accepts a multipart document upload
// @Summary      Upload a document
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Document file"
// @Success      201 {object} models.Document
// @Router       /api/v1/uploads [post]
func (uc *UploadController) HandleUpload(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "failed to read file")
	}
	defer file.Close()

	// Sniff the first bytes, then rewind for the storage write
	head := make([]byte, 512)
	n, _ := file.Read(head)
	head = head[:n]
	if _, err := file.Seek(0, 0); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to read file")
	}

	user, err := uc.users.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load user")
	}

	doc, err := uc.intake.Admit(c.Context(), user, intake.Upload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Head:     head,
		Body:     file,
	})
	if err != nil {
		if handled, resp := handleEntitlementDenied(c, err); handled {
			return resp
		}
		if errors.Is(err, intake.ErrEmptyFile) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_request", "uploaded file is empty")
		}
		if errors.Is(err, intake.ErrUnsupportedType) {
			return jsonError(c, fiber.StatusBadRequest, "unsupported_type", err.Error())
		}
		log.Errorf("[Upload] Failed to store document for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to store document")
	}

	return c.Status(fiber.StatusCreated).JSON(documentResponse(doc))
}

// HandleListDocuments returns the user's documents, newest first
func (uc *UploadController) HandleListDocuments(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	docs, err := uc.docs.ListByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to list documents")
	}

	out := make([]fiber.Map, 0, len(docs))
	for i := range docs {
		out = append(out, documentResponse(&docs[i]))
	}
	return c.JSON(fiber.Map{"documents": out, "offset": offset, "limit": limit})
}

func documentResponse(doc *models.Document) fiber.Map {
	return fiber.Map{
		"uuid":              doc.UUID,
		"original_filename": doc.OriginalFilename,
		"original_format":   doc.OriginalFormat,
		"file_size_bytes":   doc.FileSizeBytes,
		"status":            doc.Status,
		"created_at":        doc.CreatedAt,
	}
}
