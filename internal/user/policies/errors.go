package policies

import "errors"

var (
	ErrOnlyOwnersCanAssignElevatedRoles = errors.New("Only owners can assign admin or owner roles")
	ErrTargetUserNotFound               = errors.New("Target user not found")
	ErrCannotModifyUsersOutsideYourOrg  = errors.New("Cannot modify users outside your organization")
	ErrUsersCannotModifyTheirOwnRole    = errors.New("Users cannot modify their own role")
	ErrOrgMustHaveAtLeastOneOwner       = errors.New("Organization must have at least one owner")

	ErrYouCannotRemoveYourselfFromOrg = errors.New("You cannot remove yourself from the organization")
	ErrUserNotFound                   = errors.New("User not found")
	ErrUserDoesNotBelongToYourOrg     = errors.New("User does not belong to your organization")
	ErrAdminsCannotRemoveAdminsOrOwners = errors.New("Admins cannot remove admins or owners")
)
