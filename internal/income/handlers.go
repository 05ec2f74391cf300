package income

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"minta-backend/internal/middleware"
	"minta-backend/internal/movements"
	"minta-backend/internal/pkg/response"
)

type Handlers struct {
	Service *Service
}

// CreateStream POST /api/v1/income/create-stream
func (h *Handlers) CreateStream(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		Name        string `json:"name"`
		ToAccountID string `json:"to_account_id"`
		AmountCents int64  `json:"amount_cents"`
		Currency    string `json:"currency"`
		Cadence     string `json:"cadence"`
		FirstPayout string `json:"first_payout"` // RFC3339; defaults to now
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" || body.ToAccountID == "" || body.AmountCents == 0 {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	toID, err := uuid.Parse(body.ToAccountID)
	if err != nil {
		return response.Error(c, "Invalid to_account_id", 400, nil)
	}
	firstPayout := time.Now().UTC()
	if body.FirstPayout != "" {
		t, err := time.Parse(time.RFC3339, body.FirstPayout)
		if err != nil {
			return response.Error(c, "Invalid first_payout timestamp", 400, nil)
		}
		firstPayout = t
	}

	stream, err := h.Service.CreateStream(c.Context(), sa.OrgID, movements.Actor{UserID: sa.UserID, Role: sa.Role}, CreateStreamInput{
		Name:        body.Name,
		ToAccountID: toID,
		AmountCents: body.AmountCents,
		Currency:    body.Currency,
		Cadence:     body.Cadence,
		FirstPayout: firstPayout,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidCadence):
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Income stream created", stream, nil)
}

// RequestPayout POST /api/v1/income/request-payout
func (h *Handlers) RequestPayout(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		StreamID string `json:"stream_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.StreamID == "" {
		return response.Error(c, "stream_id is required", 400, nil)
	}
	streamID, err := uuid.Parse(body.StreamID)
	if err != nil {
		return response.Error(c, "Invalid stream_id", 400, nil)
	}

	actor := movements.Actor{UserID: sa.UserID, Role: sa.Role}
	result, err := h.Service.RequestPayout(c.Context(), sa.OrgID, streamID, &actor)
	if err != nil {
		var ee *movements.ExecutionError
		switch {
		case errors.As(err, &ee):
			return response.Error(c, ee.Error(), 422, fiber.Map{"result": result})
		case errors.Is(err, ErrStreamNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ErrStreamInactive):
			return response.Error(c, err.Error(), 409, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Payout requested", result, nil)
}

// ViewStreams GET /api/v1/income/view-streams
func (h *Handlers) ViewStreams(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	out, err := h.Service.ViewStreams(c.Context(), sa.OrgID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Income streams retrieved", out, nil)
}
