package org

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/constants"
	"minta-backend/internal/domain"
	"minta-backend/internal/guardrails"
	"minta-backend/internal/journal"
	"minta-backend/internal/pkg/validation"
)

var (
	ErrOrgNotFound     = errors.New("Organization not found")
	ErrOrgNameTaken    = errors.New("Organization name already in use")
	ErrAlreadyInOrg    = errors.New("User already belongs to an organization")
	ErrInvalidCurrency = errors.New("Invalid currency code")
)

type Service struct {
	DB      *gorm.DB
	Journal *journal.Service
}

type CreateOrgInput struct {
	OrgName  string
	Currency string
}

// CreateOrg creates a household, promotes the creator to owner and installs
// the baseline guardrails so requests have a policy to resolve against from
// day one.
func (s *Service) CreateOrg(ctx context.Context, userID uuid.UUID, in CreateOrgInput) (*domain.Org, error) {
	name := strings.TrimSpace(in.OrgName)
	if name == "" {
		return nil, errors.New("Organization name is required")
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	if !validation.IsValidCurrency(currency) {
		return nil, ErrInvalidCurrency
	}

	var created *domain.Org
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.Where("user_id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		if user.OrgID != nil {
			return ErrAlreadyInOrg
		}
		var count int64
		if err := tx.Model(&domain.Org{}).Where("org_name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrOrgNameTaken
		}

		o := domain.Org{
			OrgName:  name,
			OrgCode:  generateOrgCode(),
			Currency: currency,
		}
		if err := tx.Create(&o).Error; err != nil {
			return err
		}

		user.OrgID = &o.OrgID
		user.Role = constants.Owner
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		if err := guardrails.EnsureOrgDefaults(tx, o.OrgID, userID); err != nil {
			return err
		}

		if err := s.Journal.Emit(tx, journal.Entry{
			OrgID:      o.OrgID,
			EventKind:  "org_created",
			ActorID:    &userID,
			EntityType: "org",
			EntityID:   o.OrgID,
			Payload:    map[string]interface{}{"org_name": o.OrgName, "currency": o.Currency},
		}); err != nil {
			return err
		}
		created = &o
		return nil
	})
	return created, err
}

// JoinOrg attaches a free-floating user to the org matching the shared code.
// Joiners come in as members; guardians and admins are promoted explicitly.
func (s *Service) JoinOrg(ctx context.Context, userID uuid.UUID, orgCode string) (*domain.Org, error) {
	code := strings.ToUpper(strings.TrimSpace(orgCode))
	if code == "" {
		return nil, errors.New("Organization code is required")
	}
	var joined *domain.Org
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o domain.Org
		if err := tx.Where("org_code = ?", code).First(&o).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrgNotFound
			}
			return err
		}
		var user domain.User
		if err := tx.Where("user_id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		if user.OrgID != nil {
			return ErrAlreadyInOrg
		}
		user.OrgID = &o.OrgID
		user.Role = constants.Member
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		if err := s.Journal.Emit(tx, journal.Entry{
			OrgID:      o.OrgID,
			EventKind:  "user_joined",
			ActorID:    &userID,
			EntityType: "user",
			EntityID:   user.UserID,
			Payload:    map[string]interface{}{"email": user.Email},
		}); err != nil {
			return err
		}
		joined = &o
		return nil
	})
	return joined, err
}

// ViewOrg returns the caller's org.
func (s *Service) ViewOrg(ctx context.Context, orgID uuid.UUID) (*domain.Org, error) {
	var o domain.Org
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}
	return &o, nil
}

type UpdateOrgInput struct {
	OrgName  *string
	Currency *string
}

// UpdateOrg renames the org or changes its display currency.
func (s *Service) UpdateOrg(ctx context.Context, orgID uuid.UUID, in UpdateOrgInput) (*domain.Org, error) {
	var o domain.Org
	if err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}
	if in.OrgName != nil {
		name := strings.TrimSpace(*in.OrgName)
		if name == "" {
			return nil, errors.New("Organization name is required")
		}
		o.OrgName = name
	}
	if in.Currency != nil {
		if !validation.IsValidCurrency(*in.Currency) {
			return nil, ErrInvalidCurrency
		}
		o.Currency = *in.Currency
	}
	if err := s.DB.WithContext(ctx).Save(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// generateOrgCode returns a short human-shareable code for invitations.
func generateOrgCode() string {
	const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	id := uuid.New()
	code := make([]byte, 8)
	for i := range code {
		code[i] = alphabet[int(id[i])%len(alphabet)]
	}
	return string(code)
}
