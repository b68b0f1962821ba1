package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/skinstore/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, errors.New("empty email")
	}
	if err := r.db.WithContext(ctx).First(&u, "LOWER(email) = ?", e).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) FindIdentityByEmail(ctx context.Context, email string) (*domain.AuthIdentity, error) {
	var a domain.AuthIdentity
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return nil, errors.New("empty email")
	}
	if err := r.db.WithContext(ctx).First(&a, "LOWER(email) = ?", e).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *UserRepo) CreateWithIdentity(ctx context.Context, ident *domain.AuthIdentity, p *domain.UserProfile) error {
	ident.Email = strings.ToLower(ident.Email)
	p.Email = strings.ToLower(p.Email)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ident).Error; err != nil {
			return err
		}
		return tx.Create(p).Error
	})
	return translate(err)
}

func (r *UserRepo) Update(ctx context.Context, id string, change func(p *domain.UserProfile) error, columns ...string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, "id = ?", id).Error; err != nil {
			return err
		}
		if err := change(&u); err != nil {
			return err
		}
		cols := append(append([]string{}, columns...), "updated_at")
		return tx.Model(&u).Select(cols).Updates(&u).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.UserProfile, error) {
	var list []domain.UserProfile
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// AddPoints applies delta atomically and refreshes the tier from the new balance.
func (r *UserRepo) AddPoints(ctx context.Context, id string, delta int) (*domain.UserProfile, error) {
	var u domain.UserProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.UserProfile{}).Where("id = ?", id).
			UpdateColumn("points", gorm.Expr("points + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return err
		}
		u.PointsTier = domain.TierFor(u.Points)
		return tx.Model(&u).UpdateColumn("points_tier", u.PointsTier).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepo) RedeemPoints(ctx context.Context, id string, points int, reward *domain.Coupon) (*domain.UserProfile, error) {
	var u domain.UserProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.UserProfile{}).Where("id = ? AND points >= ?", id, points).
			UpdateColumn("points", gorm.Expr("points - ?", points))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidInput
		}
		if err := tx.Create(reward).Error; err != nil {
			return err
		}
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return err
		}
		u.PointsTier = domain.TierFor(u.Points)
		return tx.Model(&u).UpdateColumn("points_tier", u.PointsTier).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
