package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/skinstore/internal/domain"
)

type ReviewRepo struct{ db *gorm.DB }

func NewReviewRepo(db *gorm.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) Save(ctx context.Context, rv *domain.Review) error {
	if rv.ID == uuid.Nil {
		rv.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(rv).Error
}

func (r *ReviewRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.WithContext(ctx).First(&rv, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rv, nil
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID, onlyApproved bool) ([]domain.Review, error) {
	var list []domain.Review
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if onlyApproved {
		q = q.Where("status = ?", domain.ReviewApproved)
	}
	if err := q.Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ReviewRepo) ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]domain.Review, error) {
	var list []domain.Review
	if err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &domain.Review{}, id)
}

type FAQRepo struct{ db *gorm.DB }

func NewFAQRepo(db *gorm.DB) *FAQRepo { return &FAQRepo{db: db} }

func (r *FAQRepo) Save(ctx context.Context, f *domain.FAQ) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *FAQRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.FAQ, error) {
	var f domain.FAQ
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *FAQRepo) List(ctx context.Context) ([]domain.FAQ, error) {
	var list []domain.FAQ
	if err := r.db.WithContext(ctx).Order("position asc, created_at asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *FAQRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &domain.FAQ{}, id)
}

type NotificationRepo struct{ db *gorm.DB }

func NewNotificationRepo(db *gorm.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	var list []domain.Notification
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Limit(100).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, userID string) error {
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		UpdateColumn("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func deleteByID(db *gorm.DB, model any, id uuid.UUID) error {
	res := db.Delete(model, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
