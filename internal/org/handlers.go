package org

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"minta-backend/internal/constants"
	"minta-backend/internal/middleware"
	"minta-backend/internal/pkg/response"
)

// Handlers bundles org handlers with dependencies.
type Handlers struct {
	Service *Service
	Config  middleware.SessionConfig
}

// CreateOrg POST /api/v1/orgs/create-org
func (h *Handlers) CreateOrg(c *fiber.Ctx) error {
	var body struct {
		OrgName  string `json:"org_name"`
		Currency string `json:"currency"`
	}
	if err := c.BodyParser(&body); err != nil || body.OrgName == "" {
		return response.Error(c, "org_name is required", 400, nil)
	}

	actor := middleware.GetUser(c)
	m, ok := actor.(map[string]interface{})
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	actorIDStr, _ := m["user_id"].(string)
	actorID, err := uuid.Parse(actorIDStr)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	org, err := h.Service.CreateOrg(c.Context(), actorID, CreateOrgInput{
		OrgName:  body.OrgName,
		Currency: body.Currency,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyInOrg), errors.Is(err, ErrOrgNameTaken):
			return response.Error(c, err.Error(), 409, nil)
		case errors.Is(err, ErrInvalidCurrency):
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}

	// Regenerate session because role privilege changed (creator becomes owner).
	sessionID := middleware.RegenerateSessionID(c)
	orgIDStr := org.OrgID.String()
	fullname, _ := m["fullname"].(string)
	email, _ := m["email"].(string)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   actorIDStr,
		Fullname: fullname,
		Email:    email,
		Role:     constants.Owner,
		OrgID:    &orgIDStr,
	})

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	return response.SuccessCreated(c, "Organization created successfully", org, nil)
}

// JoinOrg POST /api/v1/orgs/join-org
func (h *Handlers) JoinOrg(c *fiber.Ctx) error {
	var body struct {
		OrgCode string `json:"org_code"`
	}
	if err := c.BodyParser(&body); err != nil || body.OrgCode == "" {
		return response.Error(c, "org_code is required", 400, nil)
	}

	actor := middleware.GetUser(c)
	m, ok := actor.(map[string]interface{})
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	actorIDStr, _ := m["user_id"].(string)
	actorID, err := uuid.Parse(actorIDStr)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	org, err := h.Service.JoinOrg(c.Context(), actorID, body.OrgCode)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrgNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ErrAlreadyInOrg):
			return response.Error(c, err.Error(), 409, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}

	// Refresh session with the new org membership.
	sessionID := middleware.RegenerateSessionID(c)
	orgIDStr := org.OrgID.String()
	fullname, _ := m["fullname"].(string)
	email, _ := m["email"].(string)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   actorIDStr,
		Fullname: fullname,
		Email:    email,
		Role:     constants.Member,
		OrgID:    &orgIDStr,
	})

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	return response.Success(c, "Joined organization", org, nil)
}

// ViewOrg GET /api/v1/orgs/view-org
func (h *Handlers) ViewOrg(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	org, err := h.Service.ViewOrg(c.Context(), sa.OrgID)
	if err != nil {
		if errors.Is(err, ErrOrgNotFound) {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Organization retrieved", org, nil)
}

// UpdateOrg PATCH /api/v1/orgs/update-org/:id
func (h *Handlers) UpdateOrg(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	orgID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid org id", 400, nil)
	}
	if orgID != sa.OrgID {
		return response.Error(c, "Cannot update another organization", 403, nil)
	}
	var body struct {
		OrgName  *string `json:"org_name"`
		Currency *string `json:"currency"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	org, err := h.Service.UpdateOrg(c.Context(), orgID, UpdateOrgInput{
		OrgName:  body.OrgName,
		Currency: body.Currency,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOrgNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ErrInvalidCurrency):
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Organization updated", org, nil)
}
