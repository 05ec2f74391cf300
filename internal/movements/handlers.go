package movements

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"minta-backend/internal/middleware"
	"minta-backend/internal/pkg/response"
)

type Handlers struct {
	Service *Service
}

func sessionActor(c *fiber.Ctx) (*middleware.SessionActor, Actor, error) {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return nil, Actor{}, response.Error(c, "User not associated with organization", 403, nil)
	}
	return sa, Actor{UserID: sa.UserID, Role: sa.Role}, nil
}

// ViewRequests GET /api/v1/movements/view-requests?status=pending_approval
func (h *Handlers) ViewRequests(c *fiber.Ctx) error {
	sa, _, err := sessionActor(c)
	if sa == nil {
		return err
	}
	out, listErr := h.Service.List(c.Context(), sa.OrgID, c.Query("status"))
	if listErr != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Requests retrieved", out, nil)
}

// ApproveRequest POST /api/v1/movements/approve-request
func (h *Handlers) ApproveRequest(c *fiber.Ctx) error {
	sa, actor, authErr := sessionActor(c)
	if sa == nil {
		return authErr
	}
	var body struct {
		RequestID string `json:"request_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.RequestID == "" {
		return response.Error(c, "request_id is required", 400, nil)
	}
	requestID, err := uuid.Parse(body.RequestID)
	if err != nil {
		return response.Error(c, "Invalid request_id", 400, nil)
	}

	req, err := h.Service.Approve(c.Context(), sa.OrgID, requestID, actor)
	if err != nil {
		var ee *ExecutionError
		if errors.As(err, &ee) {
			// Approval held but execution failed; surface the recorded failure.
			return response.Error(c, ee.Error(), 422, fiber.Map{"request": req})
		}
		return movementError(c, err)
	}
	return response.Success(c, "Request approved", req, nil)
}

// DeclineRequest POST /api/v1/movements/decline-request
func (h *Handlers) DeclineRequest(c *fiber.Ctx) error {
	return h.terminate(c, "declined")
}

// CancelRequest POST /api/v1/movements/cancel-request
func (h *Handlers) CancelRequest(c *fiber.Ctx) error {
	return h.terminate(c, "canceled")
}

func (h *Handlers) terminate(c *fiber.Ctx, action string) error {
	sa, actor, authErr := sessionActor(c)
	if sa == nil {
		return authErr
	}
	var body struct {
		RequestID string `json:"request_id"`
		Reason    string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil || body.RequestID == "" {
		return response.Error(c, "request_id is required", 400, nil)
	}
	if body.Reason == "" {
		return response.Error(c, "reason is required", 400, nil)
	}
	requestID, err := uuid.Parse(body.RequestID)
	if err != nil {
		return response.Error(c, "Invalid request_id", 400, nil)
	}

	var req interface{}
	if action == "declined" {
		req, err = h.Service.Decline(c.Context(), sa.OrgID, requestID, actor, body.Reason)
	} else {
		req, err = h.Service.Cancel(c.Context(), sa.OrgID, requestID, actor, body.Reason)
	}
	if err != nil {
		return movementError(c, err)
	}
	return response.Success(c, "Request "+action, req, nil)
}

func movementError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrRequestNotFound):
		return response.Error(c, err.Error(), 404, nil)
	case errors.Is(err, ErrNotPending):
		return response.Error(c, err.Error(), 409, nil)
	case errors.Is(err, ErrForbiddenApprover), errors.Is(err, ErrForbiddenCancel):
		return response.Error(c, err.Error(), 403, nil)
	}
	return response.Error(c, "Internal Server Error", 500, nil)
}
