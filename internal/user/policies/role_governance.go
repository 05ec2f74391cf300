package policies

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/constants"
	"minta-backend/internal/domain"
)

func sameOrg(orgIDStr *string, orgIDUUID *uuid.UUID) bool {
	if orgIDStr == nil && orgIDUUID == nil {
		return true
	}
	if orgIDStr == nil || orgIDUUID == nil {
		return false
	}
	return *orgIDStr == orgIDUUID.String()
}

type ValidateRoleAssignmentParams struct {
	ActorRole    string
	TargetRole   string
	ActorUserID  string
	TargetUserID string
	OrgID        *string
}

// ValidateRoleAssignment guards role changes: only owners hand out elevated
// roles, nobody edits their own role, and the last owner can never be
// downgraded.
func ValidateRoleAssignment(db *gorm.DB, params ValidateRoleAssignmentParams) error {
	if (params.TargetRole == constants.Admin || params.TargetRole == constants.Owner) &&
		params.ActorRole != constants.Owner {
		return ErrOnlyOwnersCanAssignElevatedRoles
	}
	if params.TargetUserID == "" {
		return nil // invitations stop here
	}
	var target domain.User
	if err := db.Where("user_id = ?", params.TargetUserID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTargetUserNotFound
		}
		return err
	}
	if !sameOrg(params.OrgID, target.OrgID) {
		return ErrCannotModifyUsersOutsideYourOrg
	}
	if params.ActorUserID == params.TargetUserID && params.ActorRole != constants.Owner {
		return ErrUsersCannotModifyTheirOwnRole
	}
	if target.Role == constants.Owner && params.TargetRole != constants.Owner {
		var count int64
		if params.OrgID == nil {
			db.Model(&domain.User{}).Where("org_id IS NULL AND role = ?", constants.Owner).Count(&count)
		} else {
			db.Model(&domain.User{}).Where("org_id = ? AND role = ?", params.OrgID, constants.Owner).Count(&count)
		}
		if count <= 1 {
			return ErrOrgMustHaveAtLeastOneOwner
		}
	}
	return nil
}
