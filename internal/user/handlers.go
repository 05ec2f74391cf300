package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"minta-backend/internal/middleware"
	"minta-backend/internal/pkg/response"
	"minta-backend/internal/user/policies"
)

type Handlers struct {
	Service *Service
	Config  middleware.SessionConfig
}

// ViewUser GET /api/v1/users/view-user/:id
func (h *Handlers) ViewUser(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid user id", 400, nil)
	}
	u, err := h.Service.ViewUser(c.Context(), sa.OrgID, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "User retrieved", u, nil)
}

// ViewMembers GET /api/v1/users/view-members
func (h *Handlers) ViewMembers(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	out, err := h.Service.ViewMembers(c.Context(), sa.OrgID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Members retrieved", out, nil)
}

// UpdateRole PATCH /api/v1/users/update-role
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil || body.UserID == "" || body.Role == "" {
		return response.Error(c, "user_id and role are required", 400, nil)
	}
	targetID, err := uuid.Parse(body.UserID)
	if err != nil {
		return response.Error(c, "Invalid user_id", 400, nil)
	}

	u, err := h.Service.UpdateRole(c.Context(), UpdateRoleInput{
		ActorUserID:  sa.UserID,
		ActorRole:    sa.Role,
		TargetUserID: targetID,
		TargetRole:   body.Role,
		OrgID:        sa.OrgID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			return response.Error(c, err.Error(), 400, nil)
		case errors.Is(err, ErrUserNotFound), errors.Is(err, policies.ErrTargetUserNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, policies.ErrOnlyOwnersCanAssignElevatedRoles),
			errors.Is(err, policies.ErrCannotModifyUsersOutsideYourOrg),
			errors.Is(err, policies.ErrUsersCannotModifyTheirOwnRole),
			errors.Is(err, policies.ErrOrgMustHaveAtLeastOneOwner):
			return response.Error(c, err.Error(), 403, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Role updated", u, nil)
}

// RemoveUser DELETE /api/v1/users/remove-user
func (h *Handlers) RemoveUser(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.UserID == "" {
		return response.Error(c, "user_id is required", 400, nil)
	}
	targetID, err := uuid.Parse(body.UserID)
	if err != nil {
		return response.Error(c, "Invalid user_id", 400, nil)
	}

	if err := h.Service.RemoveUser(c.Context(), RemoveUserInput{
		ActorUserID:  sa.UserID,
		ActorRole:    sa.Role,
		TargetUserID: targetID,
		OrgID:        sa.OrgID,
	}); err != nil {
		switch {
		case errors.Is(err, policies.ErrUserNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, policies.ErrYouCannotRemoveYourselfFromOrg),
			errors.Is(err, policies.ErrUserDoesNotBelongToYourOrg),
			errors.Is(err, policies.ErrAdminsCannotRemoveAdminsOrOwners),
			errors.Is(err, policies.ErrOrgMustHaveAtLeastOneOwner):
			return response.Error(c, err.Error(), 403, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "User removed from organization", nil, nil)
}
