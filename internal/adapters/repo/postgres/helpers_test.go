package postgres

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/skinstore/internal/domain"
)

// openTestDB gives each test its own database file. A single connection keeps
// concurrent transactions queued behind each other the way row locks would.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, p *domain.Product) *domain.Product {
	t.Helper()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Slug == "" {
		p.Slug = p.ID.String()
	}
	if p.Status == "" {
		p.Status = domain.ProductActive
	}
	require.NoError(t, NewProductRepo(db).Save(context.Background(), p))
	return p
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) *domain.Product {
	t.Helper()
	p, err := NewProductRepo(db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func intp(v int) *int { return &v }

func orderFor(items ...domain.CartItem) *domain.Order {
	return &domain.Order{
		UserID:        "user-1",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentPending,
		PaymentMethod: domain.PaymentMethodOnDelivery,
		Items:         items,
	}
}
