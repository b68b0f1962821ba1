package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/skinstore/internal/domain"
)

type CouponRepo struct{ db *gorm.DB }

func NewCouponRepo(db *gorm.DB) *CouponRepo { return &CouponRepo{db: db} }

func (r *CouponRepo) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := r.db.WithContext(ctx).First(&c, "code = ?", domain.NormalizeCouponCode(code)).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// couponEditable are the columns an admin edit may overwrite. used_count only
// moves through IncrementUsage and the placement transaction.
var couponEditable = []string{
	"type", "value", "min_order_amount", "usage_limit", "status",
	"expiration_date", "is_global", "description", "updated_at",
}

// Save inserts the coupon or updates its editable columns, then reloads c with
// the stored row.
func (r *CouponRepo) Save(ctx context.Context, c *domain.Coupon) error {
	c.Code = domain.NormalizeCouponCode(c.Code)
	c.CreatedAt, c.UpdatedAt = time.Time{}, time.Time{}
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns(couponEditable),
	}).Create(c).Error
	if err != nil {
		return translate(err)
	}
	return translate(db.First(c, "code = ?", c.Code).Error)
}

func (r *CouponRepo) List(ctx context.Context) ([]domain.Coupon, error) {
	var list []domain.Coupon
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// IncrementUsage bumps used_count in a single statement. It does not check the
// usage limit.
func (r *CouponRepo) IncrementUsage(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).Model(&domain.Coupon{}).
		Where("code = ?", domain.NormalizeCouponCode(code)).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CouponRepo) Delete(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Coupon{}, "code = ?", domain.NormalizeCouponCode(code))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
