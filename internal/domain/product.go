package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProductStatus string

const (
	ProductActive     ProductStatus = "Active"
	ProductDraft      ProductStatus = "Draft"
	ProductArchived   ProductStatus = "Archived"
	ProductOutOfStock ProductStatus = "Out of Stock"
)

// Product keeps its variants inline: the whole array is read and written as one
// value, there are no per-variant rows.
type Product struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string        `gorm:"uniqueIndex;size:140" json:"slug"`
	Name        string        `gorm:"size:180" json:"name"`
	Brand       string        `gorm:"size:100" json:"brand,omitempty"`
	Category    string        `gorm:"size:100;index" json:"category,omitempty"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	Price       float64       `gorm:"type:decimal(12,2)" json:"price"`
	Stock       *int          `gorm:"type:int" json:"stock"`
	Variants    []Variant     `gorm:"type:jsonb;serializer:json" json:"variants"`
	CouponCodes []string      `gorm:"type:jsonb;serializer:json" json:"couponCodes"`
	Status      ProductStatus `gorm:"type:varchar(20);index" json:"status"`
	ImageURL    string        `gorm:"size:255" json:"imageUrl,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type Variant struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type ProductFilter struct {
	Status   ProductStatus
	Category string
	Query    string
	Sort     string
	Page     int
	PageSize int
}

func (p *Product) HasVariants() bool { return len(p.Variants) > 0 }

// VariantIndex returns the position of the variant with the given id, or -1.
func (p *Product) VariantIndex(id string) int {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return i
		}
	}
	return -1
}

// SyncStockFromVariants makes Stock the sum of the variant stocks. Products
// without variants are left untouched.
func (p *Product) SyncStockFromVariants() {
	if !p.HasVariants() {
		return
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	p.Stock = &total
}

// AvailableStock is the sellable quantity, 0 when stock is unknown.
func (p *Product) AvailableStock() int {
	if p.HasVariants() {
		total := 0
		for _, v := range p.Variants {
			total += v.Stock
		}
		return total
	}
	if p.Stock == nil {
		return 0
	}
	return *p.Stock
}

func (p *Product) AcceptsCoupon(code string) bool {
	return containsFold(p.CouponCodes, code)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

// CartItem is the frozen product snapshot stored on an order line.
type CartItem struct {
	ProductID       uuid.UUID `json:"productId"`
	Name            string    `json:"name"`
	Price           float64   `json:"price"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	CouponCodes     []string  `json:"couponCodes,omitempty"`
	Quantity        int       `json:"quantity"`
	SelectedVariant *Variant  `json:"selectedVariant,omitempty"`
}

// UnitPrice prefers the selected variant's price when it carries one.
func (it CartItem) UnitPrice() float64 {
	if it.SelectedVariant != nil && it.SelectedVariant.Price > 0 {
		return it.SelectedVariant.Price
	}
	return it.Price
}

func (it CartItem) LineTotal() float64 {
	return it.UnitPrice() * float64(it.Quantity)
}

func Subtotal(items []CartItem) float64 {
	total := 0.0
	for _, it := range items {
		total += it.LineTotal()
	}
	return Round2(total)
}
