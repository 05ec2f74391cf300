package moneymap

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
)

func setupMoneyMap(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.MoneyMapNode{}))
	return &Service{DB: db}
}

func TestCreateNode_RootAndChild(t *testing.T) {
	svc := setupMoneyMap(t)
	orgID := uuid.New()

	root, err := svc.CreateNode(context.Background(), orgID, "Spending", nil)
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, domain.NodeKindCategory, root.Kind)

	child, err := svc.CreateNode(context.Background(), orgID, "Eating out", &root.NodeID)
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.NodeID, *child.ParentID)
}

func TestCreateNode_ParentMustBelongToOrg(t *testing.T) {
	svc := setupMoneyMap(t)
	orgID := uuid.New()

	root, err := svc.CreateNode(context.Background(), orgID, "Spending", nil)
	require.NoError(t, err)

	// Same node id, wrong org.
	_, err = svc.CreateNode(context.Background(), uuid.New(), "Sneaky", &root.NodeID)
	assert.ErrorIs(t, err, ErrParentNotFound)

	missing := uuid.New()
	_, err = svc.CreateNode(context.Background(), orgID, "Orphan", &missing)
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestViewNodes_ScopedToOrg(t *testing.T) {
	svc := setupMoneyMap(t)
	orgID := uuid.New()

	_, err := svc.CreateNode(context.Background(), orgID, "Spending", nil)
	require.NoError(t, err)
	_, err = svc.CreateNode(context.Background(), orgID, "Saving", nil)
	require.NoError(t, err)

	nodes, err := svc.ViewNodes(context.Background(), orgID)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	other, err := svc.ViewNodes(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}
