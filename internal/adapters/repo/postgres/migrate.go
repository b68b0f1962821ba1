package postgres

import (
	"gorm.io/gorm"

	"github.com/phenrril/skinstore/internal/domain"
)

// Models lists every table the store owns, in migration order.
func Models() []any {
	return []any{
		&domain.Product{}, &domain.Order{}, &domain.Coupon{}, &domain.UserProfile{},
		&domain.AuthIdentity{}, &domain.Review{}, &domain.FAQ{}, &domain.Notification{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
