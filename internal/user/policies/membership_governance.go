package policies

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/constants"
	"minta-backend/internal/domain"
)

func sameOrgMembership(orgIDStr *string, orgIDUUID *uuid.UUID) bool {
	if orgIDStr == nil && orgIDUUID == nil {
		return true
	}
	if orgIDStr == nil || orgIDUUID == nil {
		return false
	}
	return *orgIDStr == orgIDUUID.String()
}

type ValidateOrgMembershipChangeParams struct {
	ActorUserID  string
	ActorRole    string
	TargetUserID string
	OrgID        *string
}

// ValidateOrgMembershipChange guards removals: no self-removal, admins cannot
// remove their peers or owners, and the last owner stays.
func ValidateOrgMembershipChange(db *gorm.DB, params ValidateOrgMembershipChangeParams) (*domain.User, error) {
	if params.ActorUserID == params.TargetUserID {
		return nil, ErrYouCannotRemoveYourselfFromOrg
	}
	var target domain.User
	if err := db.Where("user_id = ?", params.TargetUserID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !sameOrgMembership(params.OrgID, target.OrgID) {
		return nil, ErrUserDoesNotBelongToYourOrg
	}
	if params.ActorRole == constants.Admin &&
		(target.Role == constants.Admin || target.Role == constants.Owner) {
		return nil, ErrAdminsCannotRemoveAdminsOrOwners
	}
	if target.Role == constants.Owner {
		var count int64
		if target.OrgID == nil {
			db.Model(&domain.User{}).Where("org_id IS NULL AND role = ?", constants.Owner).Count(&count)
		} else {
			db.Model(&domain.User{}).Where("org_id = ? AND role = ?", target.OrgID, constants.Owner).Count(&count)
		}
		if count <= 1 {
			return nil, ErrOrgMustHaveAtLeastOneOwner
		}
	}
	return &target, nil
}
