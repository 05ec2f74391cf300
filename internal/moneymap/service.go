package moneymap

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
)

var ErrParentNotFound = errors.New("Parent node not found")

type Service struct {
	DB *gorm.DB
}

// CreateNode adds a category node to the org's money map.
func (s *Service) CreateNode(ctx context.Context, orgID uuid.UUID, name string, parentID *uuid.UUID) (*domain.MoneyMapNode, error) {
	if name == "" {
		return nil, errors.New("Node name is required")
	}
	var node *domain.MoneyMapNode
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			var parent domain.MoneyMapNode
			if err := tx.Where("node_id = ? AND org_id = ?", parentID, orgID).First(&parent).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrParentNotFound
				}
				return err
			}
		}
		n := domain.MoneyMapNode{
			OrgID:    orgID,
			ParentID: parentID,
			Name:     name,
			Kind:     domain.NodeKindCategory,
		}
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		node = &n
		return nil
	})
	return node, err
}

// ViewNodes lists the org's money map in stored order.
func (s *Service) ViewNodes(ctx context.Context, orgID uuid.UUID) ([]domain.MoneyMapNode, error) {
	var out []domain.MoneyMapNode
	err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("created_at ASC").Find(&out).Error
	return out, err
}
