package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

type CouponStatus string

const (
	CouponActive   CouponStatus = "active"
	CouponDisabled CouponStatus = "disabled"
)

// Coupon is keyed by its upper-cased code.
type Coupon struct {
	Code           string       `gorm:"primaryKey;size:60" json:"code"`
	Type           CouponType   `gorm:"type:varchar(20)" json:"type"`
	Value          float64      `gorm:"type:decimal(12,2)" json:"value"`
	MinOrderAmount *float64     `gorm:"type:decimal(12,2)" json:"minOrderAmount"`
	UsageLimit     *int         `gorm:"type:int" json:"usageLimit"`
	UsedCount      int          `gorm:"not null;default:0" json:"usedCount"`
	Status         CouponStatus `gorm:"type:varchar(20);index" json:"status"`
	ExpirationDate *time.Time   `json:"expirationDate"`
	IsGlobal       bool         `gorm:"not null;default:false" json:"isGlobal"`
	Description    string       `gorm:"size:255" json:"description,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

type CouponResult struct {
	Coupon           *Coupon    `json:"coupon"`
	EligibleItems    []CartItem `json:"eligibleItems"`
	EligibleSubtotal float64    `json:"eligibleSubtotal"`
	DiscountAmount   float64    `json:"discountAmount"`
}

const ReasonInvalidCoupon = "Invalid coupon code"

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Coupon) HasUsageLimit() bool { return c.UsageLimit != nil && *c.UsageLimit > 0 }

func (c *Coupon) Exhausted() bool {
	return c.HasUsageLimit() && c.UsedCount >= *c.UsageLimit
}

// Eligible reports whether the coupon may discount this line.
func (c *Coupon) Eligible(it CartItem) bool {
	return c.IsGlobal || containsFold(it.CouponCodes, c.Code)
}

// Validate runs the coupon checks in order and computes the discount over the
// eligible lines only. It does not touch UsedCount.
func (c *Coupon) Validate(items []CartItem, now time.Time) (*CouponResult, error) {
	if c.Status != CouponActive {
		return nil, couponErr("This coupon is no longer active")
	}
	if c.ExpirationDate != nil && c.ExpirationDate.Before(now) {
		return nil, couponErr("This coupon has expired")
	}
	if c.Exhausted() {
		return nil, couponErr("This coupon has reached its usage limit")
	}
	if c.MinOrderAmount != nil && *c.MinOrderAmount > 0 && Subtotal(items) < *c.MinOrderAmount {
		return nil, couponErr(fmt.Sprintf("A minimum order of %.2f is required for this coupon", *c.MinOrderAmount))
	}
	eligible := []CartItem{}
	for _, it := range items {
		if c.Eligible(it) {
			eligible = append(eligible, it)
		}
	}
	if len(eligible) == 0 {
		return nil, couponErr("This coupon is not valid for any items in your bag")
	}
	sub := Subtotal(eligible)
	return &CouponResult{
		Coupon:           c,
		EligibleItems:    eligible,
		EligibleSubtotal: sub,
		DiscountAmount:   c.DiscountFor(sub),
	}, nil
}

// DiscountFor never returns more than the eligible subtotal.
func (c *Coupon) DiscountFor(eligibleSubtotal float64) float64 {
	var d float64
	switch c.Type {
	case CouponPercentage:
		d = eligibleSubtotal * c.Value / 100
	case CouponFixed:
		d = c.Value
	}
	d = math.Max(0, math.Min(d, eligibleSubtotal))
	return Round2(d)
}
