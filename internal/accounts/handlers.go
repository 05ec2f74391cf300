package accounts

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

// SyncAccount POST /api/v1/accounts/sync-account
func (h *Handlers) SyncAccount(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		Provider     string  `json:"provider"`
		ProviderRef  string  `json:"provider_ref"`
		Name         string  `json:"name"`
		Kind         string  `json:"kind"`
		BalanceCents int64   `json:"balance_cents"`
		Currency     string  `json:"currency"`
		NodeID       *string `json:"node_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.Provider == "" || body.ProviderRef == "" || body.Name == "" {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	var nodeID *uuid.UUID
	if body.NodeID != nil {
		id, err := uuid.Parse(*body.NodeID)
		if err != nil {
			return response.Error(c, "Invalid node_id", 400, nil)
		}
		nodeID = &id
	}

	account, err := h.Service.RecordSynced(c.Context(), sa.OrgID, sa.UserID, SyncInput{
		Provider:     body.Provider,
		ProviderRef:  body.ProviderRef,
		Name:         body.Name,
		Kind:         body.Kind,
		BalanceCents: body.BalanceCents,
		Currency:     body.Currency,
		NodeID:       nodeID,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidKind) {
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Account synced", account, nil)
}

// ViewAccounts GET /api/v1/accounts/view-accounts
func (h *Handlers) ViewAccounts(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	out, err := h.Service.ViewAccounts(c.Context(), sa.OrgID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Accounts retrieved", out, nil)
}
