package donations

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"minta-backend/internal/middleware"
	"minta-backend/internal/movements"
	"minta-backend/internal/pkg/response"
)

type Handlers struct {
	Service *Service
}

// CreateCause POST /api/v1/donations/create-cause
func (h *Handlers) CreateCause(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return response.Error(c, "Cause name is required", 400, nil)
	}
	cause, err := h.Service.CreateCause(c.Context(), sa.OrgID, movements.Actor{UserID: sa.UserID, Role: sa.Role}, body.Name, body.Description)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Cause created", cause, nil)
}

// ScheduleDonation POST /api/v1/donations/schedule-donation
func (h *Handlers) ScheduleDonation(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		CauseID       string `json:"cause_id"`
		FromAccountID string `json:"from_account_id"`
		AmountCents   int64  `json:"amount_cents"`
		Currency      string `json:"currency"`
	}
	if err := c.BodyParser(&body); err != nil || body.CauseID == "" || body.FromAccountID == "" || body.AmountCents == 0 {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	causeID, err := uuid.Parse(body.CauseID)
	if err != nil {
		return response.Error(c, "Invalid cause_id", 400, nil)
	}
	fromID, err := uuid.Parse(body.FromAccountID)
	if err != nil {
		return response.Error(c, "Invalid from_account_id", 400, nil)
	}

	result, err := h.Service.Schedule(c.Context(), sa.OrgID, causeID,
		movements.Actor{UserID: sa.UserID, Role: sa.Role}, fromID, body.AmountCents, body.Currency)
	if err != nil {
		var ee *movements.ExecutionError
		switch {
		case errors.As(err, &ee):
			return response.Error(c, ee.Error(), 422, fiber.Map{"result": result})
		case errors.Is(err, ErrCauseNotFound), errors.Is(err, ErrAccountNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ErrInvalidAmount):
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Donation scheduled", result, nil)
}

// ViewCauses GET /api/v1/donations/view-causes
func (h *Handlers) ViewCauses(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	out, err := h.Service.ViewCauses(c.Context(), sa.OrgID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Causes retrieved", out, nil)
}
