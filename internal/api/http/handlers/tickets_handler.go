package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-api/internal/api/dto"
	"github.com/spec-kit/helpdesk-api/internal/auth"
	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/service"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	comments *service.CommentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, comments *service.CommentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, comments: comments}
}

// List GET /tickets. The service returns everything; the caller's role
// narrows the result here using the access predicate.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	tickets, err := h.tickets.List(c.Context())
	if err != nil {
		return err
	}
	tickets = auth.FilterTickets(caller, tickets)

	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(items)
}

// GetOne GET /tickets/:id. Not-found is checked before the access policy so
// a missing id never reads as a permission problem.
func (h *TicketsHandler) GetOne(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ticket, err := h.tickets.Get(c.Context(), id)
	if err != nil {
		return err
	}
	if !auth.CanAccessTicket(caller, ticket) {
		return apperrors.NewForbidden("Forbidden")
	}

	comments, err := h.comments.ListForTicket(c.Context(), caller, id)
	if err != nil {
		return err
	}
	detail := dto.TicketDetailResponse{
		TicketResponse: dto.NewTicketResponse(ticket),
		Comments:       make([]dto.CommentResponse, 0, len(comments)),
	}
	for i := range comments {
		detail.Comments = append(detail.Comments, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(detail)
}

// Create POST /tickets. Route-gated to customers; the caller is always the
// creator.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Subject == "" || req.Description == "" {
		return apperrors.NewValidationError("subject and description required", nil)
	}

	ticket, err := h.tickets.Create(c.Context(), service.TicketCreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		PriorityID:  req.PriorityID,
		CreatedBy:   caller.ID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

// Update PATCH /tickets/:id. Route-gated to agent|admin; reassignment is
// admin-only regardless of the rest of the patch.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssignedTo.Present && caller.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("Only admin can assign tickets")
	}

	input := service.TicketUpdateInput{
		Subject:     req.Subject,
		Description: req.Description,
		StatusID:    req.StatusID,
		PriorityID:  req.PriorityID,
	}
	if req.AssignedTo.Present {
		input.AssignedTo = &req.AssignedTo.Value
	}

	ticket, err := h.tickets.Update(c.Context(), caller, id, input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// Delete DELETE /tickets/:id. Route-gated to admin.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	caller, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	deleted, err := h.tickets.Delete(c.Context(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.DeleteTicketResponse{Deleted: deleted})
}

func parseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", nil)
	}
	return id, nil
}
