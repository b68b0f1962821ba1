package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/skinstore/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) PlaceWithStock(ctx context.Context, o *domain.Order, opts domain.PlaceOptions) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products, err := lockProducts(tx, o.Items)
		if err != nil {
			return err
		}
		changed, err := domain.ApplyStock(products, o.Items, domain.StockDecrement, opts.Policy)
		if err != nil {
			return err
		}
		if err := writeStock(tx, products, changed); err != nil {
			return err
		}
		if opts.RedeemCouponInTx && o.CouponCode != nil && *o.CouponCode != "" {
			res := tx.Model(&domain.Coupon{}).
				Where("code = ? AND (usage_limit IS NULL OR usage_limit <= 0 OR used_count < usage_limit)", domain.NormalizeCouponCode(*o.CouponCode)).
				UpdateColumn("used_count", gorm.Expr("used_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrCouponExhausted
			}
		}
		return tx.Create(o).Error
	})
	return translate(err)
}

func (r *OrderRepo) Update(ctx context.Context, id uuid.UUID, change func(o *domain.Order) (bool, error)) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, "id = ?", id).Error; err != nil {
			return err
		}
		restock, err := change(&o)
		if err != nil {
			return err
		}
		if restock {
			products, err := lockProducts(tx, o.Items)
			if err != nil {
				return err
			}
			changed, err := domain.ApplyStock(products, o.Items, domain.StockIncrement, domain.StockClamp)
			if err != nil {
				return err
			}
			if err := writeStock(tx, products, changed); err != nil {
				return err
			}
		}
		return tx.Save(&o).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// lockProducts reads every referenced product under a row lock before any
// write happens. Ids are locked in a fixed order so two orders on the same
// products queue up instead of deadlocking.
func lockProducts(tx *gorm.DB, items []domain.CartItem) (map[uuid.UUID]*domain.Product, error) {
	ids := domain.ProductIDs(items)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		var p domain.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = &p
	}
	return out, nil
}

func writeStock(tx *gorm.DB, products map[uuid.UUID]*domain.Product, changed []uuid.UUID) error {
	for _, id := range changed {
		p := products[id]
		if err := tx.Model(p).Select("stock", "variants", "updated_at").Updates(p).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *OrderRepo) FindByPaymentReference(ctx context.Context, ref string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).First(&o, "payment_reference = ?", ref).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	var list []domain.Order
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	offset := (f.Page - 1) * f.PageSize
	if err := q.Order("created_at desc").Offset(offset).Limit(f.PageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *OrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Order{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
