package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"minta-backend/internal/constants"
	"minta-backend/internal/domain"
	"minta-backend/internal/journal"
	"minta-backend/internal/user/policies"
)

var (
	ErrUserNotFound = errors.New("User not found")
	ErrInvalidRole  = errors.New("Invalid role")
)

type Service struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Journal *journal.Service
}

// ViewUser returns one user in the caller's org.
func (s *Service) ViewUser(ctx context.Context, orgID, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ? AND org_id = ?", userID, orgID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ViewMembers lists the org's members.
func (s *Service) ViewMembers(ctx context.Context, orgID uuid.UUID) ([]domain.User, error) {
	var out []domain.User
	err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("created_at ASC").Find(&out).Error
	return out, err
}

type UpdateRoleInput struct {
	ActorUserID  uuid.UUID
	ActorRole    string
	TargetUserID uuid.UUID
	TargetRole   string
	OrgID        uuid.UUID
}

// UpdateRole changes a member's role after governance checks, then kills the
// target's sessions so stale role claims cannot linger in Redis.
func (s *Service) UpdateRole(ctx context.Context, in UpdateRoleInput) (*domain.User, error) {
	if !constants.IsValidRole(in.TargetRole) {
		return nil, ErrInvalidRole
	}
	orgIDStr := in.OrgID.String()
	if err := policies.ValidateRoleAssignment(s.DB.WithContext(ctx), policies.ValidateRoleAssignmentParams{
		ActorRole:    in.ActorRole,
		TargetRole:   in.TargetRole,
		ActorUserID:  in.ActorUserID.String(),
		TargetUserID: in.TargetUserID.String(),
		OrgID:        &orgIDStr,
	}); err != nil {
		return nil, err
	}

	var target domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND org_id = ?", in.TargetUserID, in.OrgID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		previous := target.Role
		target.Role = in.TargetRole
		if err := tx.Save(&target).Error; err != nil {
			return err
		}
		return s.Journal.Emit(tx, journal.Entry{
			OrgID:      in.OrgID,
			EventKind:  "role_updated",
			ActorID:    &in.ActorUserID,
			EntityType: "user",
			EntityID:   target.UserID,
			Payload:    map[string]interface{}{"previous_role": previous, "new_role": in.TargetRole},
		})
	})
	if err != nil {
		return nil, err
	}
	if s.Rdb != nil {
		policies.DestroyUserSessions(ctx, s.Rdb, target.UserID.String())
	}
	return &target, nil
}

type RemoveUserInput struct {
	ActorUserID  uuid.UUID
	ActorRole    string
	TargetUserID uuid.UUID
	OrgID        uuid.UUID
}

// RemoveUser detaches a member from the org and invalidates their sessions.
func (s *Service) RemoveUser(ctx context.Context, in RemoveUserInput) error {
	orgIDStr := in.OrgID.String()
	target, err := policies.ValidateOrgMembershipChange(s.DB.WithContext(ctx), policies.ValidateOrgMembershipChangeParams{
		ActorUserID:  in.ActorUserID.String(),
		ActorRole:    in.ActorRole,
		TargetUserID: in.TargetUserID.String(),
		OrgID:        &orgIDStr,
	})
	if err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target.OrgID = nil
		target.Role = constants.Member
		if err := tx.Save(target).Error; err != nil {
			return err
		}
		return s.Journal.Emit(tx, journal.Entry{
			OrgID:      in.OrgID,
			EventKind:  "user_removed",
			ActorID:    &in.ActorUserID,
			EntityType: "user",
			EntityID:   target.UserID,
			Payload:    map[string]interface{}{"email": target.Email},
		})
	})
	if err != nil {
		return err
	}
	if s.Rdb != nil {
		policies.DestroyUserSessions(ctx, s.Rdb, target.UserID.String())
	}
	return nil
}
