package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-api/internal/api/dto"
	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/service"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util"
)

// ReferenceHandler exposes the status and priority lookup tables.
type ReferenceHandler struct {
	refs *service.ReferenceService
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(refs *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{refs: refs}
}

// ListStatuses GET /statuses.
func (h *ReferenceHandler) ListStatuses(c *fiber.Ctx) error {
	items, err := h.refs.ListStatuses(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(referenceResponses(items))
}

// CreateStatus POST /statuses (admin only).
func (h *ReferenceHandler) CreateStatus(c *fiber.Ctx) error {
	name, err := parseReferenceName(c)
	if err != nil {
		return err
	}
	ref, err := h.refs.CreateStatus(c.Context(), name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.ReferenceResponse{ID: ref.ID, Name: ref.Name})
}

// ListPriorities GET /priorities.
func (h *ReferenceHandler) ListPriorities(c *fiber.Ctx) error {
	items, err := h.refs.ListPriorities(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(referenceResponses(items))
}

// CreatePriority POST /priorities (admin only).
func (h *ReferenceHandler) CreatePriority(c *fiber.Ctx) error {
	name, err := parseReferenceName(c)
	if err != nil {
		return err
	}
	ref, err := h.refs.CreatePriority(c.Context(), name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.ReferenceResponse{ID: ref.ID, Name: ref.Name})
}

func parseReferenceName(c *fiber.Ctx) (string, error) {
	var req dto.CreateReferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return "", apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return "", apperrors.NewValidationError("name is required", nil)
	}
	return req.Name, nil
}

func referenceResponses(items []domain.Reference) []dto.ReferenceResponse {
	resp := make([]dto.ReferenceResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.ReferenceResponse{ID: item.ID, Name: item.Name})
	}
	return resp
}
