package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/skinstore/internal/domain"
)

type ProductUC struct {
	Products domain.ProductRepo
	Events   domain.Publisher
}

// List returns the public catalog: only Active and Out of Stock products are shown.
func (uc *ProductUC) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	if f.Status != domain.ProductOutOfStock {
		f.Status = domain.ProductActive
	}
	return uc.Products.List(ctx, f)
}

// ListAll is the inventory view for staff, any status.
func (uc *ProductUC) ListAll(ctx context.Context, caller *domain.UserProfile, f domain.ProductFilter) ([]domain.Product, int64, error) {
	if err := authorize(caller, domain.ActionManageInventory); err != nil {
		return nil, 0, err
	}
	return uc.Products.List(ctx, f)
}

// Get resolves a product by id or slug for the storefront. Drafts and
// archived products are hidden.
func (uc *ProductUC) Get(ctx context.Context, idOrSlug string) (*domain.Product, error) {
	p, err := uc.Lookup(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if p.Status == domain.ProductDraft || p.Status == domain.ProductArchived {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// Lookup resolves a product regardless of status.
func (uc *ProductUC) Lookup(ctx context.Context, idOrSlug string) (*domain.Product, error) {
	key := strings.TrimSpace(idOrSlug)
	if key == "" {
		return nil, invalid("product id is required")
	}
	if id, err := uuid.Parse(key); err == nil {
		return uc.Products.FindByID(ctx, id)
	}
	return uc.Products.FindBySlug(ctx, strings.ToLower(key))
}

func (uc *ProductUC) Save(ctx context.Context, caller *domain.UserProfile, p *domain.Product) error {
	if err := authorize(caller, domain.ActionManageInventory); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return invalid("product name is required")
	}
	if p.Price < 0 {
		return invalid("price cannot be negative")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return invalid("stock cannot be negative")
	}
	seen := map[string]bool{}
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.ID == "" {
			v.ID = uuid.NewString()[:8]
		}
		if seen[v.ID] {
			return invalid("variant ids must be unique")
		}
		seen[v.ID] = true
		if v.Stock < 0 || v.Price < 0 {
			return invalid("variant stock and price cannot be negative")
		}
	}
	p.SyncStockFromVariants()
	codes := make([]string, 0, len(p.CouponCodes))
	for _, c := range p.CouponCodes {
		if c = domain.NormalizeCouponCode(c); c != "" {
			codes = append(codes, c)
		}
	}
	p.CouponCodes = codes
	if p.Status == "" {
		p.Status = domain.ProductActive
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := uc.Products.Save(ctx, p)
	if errors.Is(err, domain.ErrConflict) {
		p.Slug = p.Slug + "-" + p.ID.String()[:6]
		err = uc.Products.Save(ctx, p)
	}
	if err != nil {
		return err
	}
	publish(uc.Events, domain.CollectionProducts, p.ID.String(), "upsert", "", p)
	return nil
}

func (uc *ProductUC) Delete(ctx context.Context, caller *domain.UserProfile, id uuid.UUID) error {
	if err := authorize(caller, domain.ActionManageInventory); err != nil {
		return err
	}
	if err := uc.Products.Delete(ctx, id); err != nil {
		return err
	}
	publish(uc.Events, domain.CollectionProducts, id.String(), "delete", "", nil)
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return uuid.NewString()[:8]
	}
	return slug
}
