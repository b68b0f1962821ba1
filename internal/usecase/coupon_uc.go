package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/phenrril/skinstore/internal/domain"
)

type CouponUC struct {
	Coupons domain.CouponRepo
	Events  domain.Publisher
	Now     func() time.Time
}

// Validate looks the code up and checks it against the bag. It never changes
// the coupon's usage count.
func (uc *CouponUC) Validate(ctx context.Context, code string, items []domain.CartItem) (*domain.CouponResult, error) {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return nil, &domain.CouponError{Reason: domain.ReasonInvalidCoupon}
	}
	c, err := uc.Coupons.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.CouponError{Reason: domain.ReasonInvalidCoupon}
	}
	if err != nil {
		return nil, err
	}
	return c.Validate(items, nowFrom(uc.Now))
}

func (uc *CouponUC) List(ctx context.Context, caller *domain.UserProfile) ([]domain.Coupon, error) {
	if err := authorize(caller, domain.ActionManageCoupons); err != nil {
		return nil, err
	}
	return uc.Coupons.List(ctx)
}

func (uc *CouponUC) Save(ctx context.Context, caller *domain.UserProfile, c *domain.Coupon) error {
	if err := authorize(caller, domain.ActionManageCoupons); err != nil {
		return err
	}
	c.Code = domain.NormalizeCouponCode(c.Code)
	c.Description = strings.TrimSpace(c.Description)
	switch {
	case c.Code == "":
		return invalid("coupon code is required")
	case c.Type != domain.CouponPercentage && c.Type != domain.CouponFixed:
		return invalid("coupon type must be percentage or fixed")
	case c.Value <= 0:
		return invalid("coupon value must be positive")
	case c.Type == domain.CouponPercentage && c.Value > 100:
		return invalid("a percentage coupon cannot exceed 100")
	case c.UsedCount < 0:
		return invalid("used count cannot be negative")
	}
	if c.Status == "" {
		c.Status = domain.CouponActive
	}
	if c.Status != domain.CouponActive && c.Status != domain.CouponDisabled {
		return invalid("coupon status must be active or disabled")
	}
	existing, err := uc.Coupons.FindByCode(ctx, c.Code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if c.UsedCount != 0 {
			return invalid("a new coupon starts with no uses")
		}
	case err != nil:
		return err
	case c.UsedCount > existing.UsedCount:
		return invalid("used count is only raised by orders")
	}
	if err := uc.Coupons.Save(ctx, c); err != nil {
		return err
	}
	publish(uc.Events, domain.CollectionCoupons, c.Code, "upsert", "", c)
	return nil
}

func (uc *CouponUC) Delete(ctx context.Context, caller *domain.UserProfile, code string) error {
	if err := authorize(caller, domain.ActionManageCoupons); err != nil {
		return err
	}
	code = domain.NormalizeCouponCode(code)
	if err := uc.Coupons.Delete(ctx, code); err != nil {
		return err
	}
	publish(uc.Events, domain.CollectionCoupons, code, "delete", "", nil)
	return nil
}
