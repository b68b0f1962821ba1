package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/skinstore/internal/domain"
)

// OrderDraft is the order as the storefront submits it at checkout.
type OrderDraft struct {
	Items           []domain.CartItem `json:"items"`
	ShippingAddress domain.Address    `json:"shippingAddress"`
	CustomerName    string            `json:"customerName"`
	CustomerEmail   string            `json:"customerEmail"`
	Subtotal        float64           `json:"subtotal"`
	Shipping        float64           `json:"shipping"`
	Tax             float64           `json:"tax"`
	Total           float64           `json:"total"`
	CouponCode      *string           `json:"couponCode"`
	Discount        *float64          `json:"discount"`
}

const centsTolerance = 0.01

// OrderPlacer turns drafts into stored orders. Both checkout paths go
// through it so stock, coupon and event handling stay identical.
type OrderPlacer struct {
	Orders   domain.OrderRepo
	Products domain.ProductRepo
	Coupons  domain.CouponRepo
	Events   domain.Publisher
	Policy   Policy
	Now      func() time.Time
}

// Prepare checks the draft against the server's own arithmetic and builds
// the Pending order owned by the caller.
func (p *OrderPlacer) Prepare(ctx context.Context, caller *domain.UserProfile, d OrderDraft) (*domain.Order, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if len(d.Items) == 0 {
		return nil, invalid("your bag is empty")
	}
	for _, it := range d.Items {
		if it.ProductID == uuid.Nil || it.Quantity <= 0 {
			return nil, invalid("every item needs a product and a positive quantity")
		}
		if it.UnitPrice() < 0 || !finite(it.UnitPrice()) {
			return nil, invalid("item prices must be positive")
		}
	}
	for _, v := range []float64{d.Shipping, d.Tax, d.Total} {
		if v < 0 || !finite(v) {
			return nil, invalid("order amounts must be positive numbers")
		}
	}

	items, err := p.fromCatalog(ctx, d.Items)
	if err != nil {
		return nil, err
	}
	subtotal := domain.Subtotal(items)
	if d.Subtotal != 0 && math.Abs(d.Subtotal-subtotal) > centsTolerance {
		return nil, invalid("subtotal does not match the items in your bag")
	}

	now := nowFrom(p.Now)
	var code *string
	var discount *float64
	if d.CouponCode != nil && strings.TrimSpace(*d.CouponCode) != "" {
		validator := CouponUC{Coupons: p.Coupons, Now: p.Now}
		res, err := validator.Validate(ctx, *d.CouponCode, items)
		if err != nil {
			return nil, err
		}
		if d.Discount != nil && math.Abs(*d.Discount-res.DiscountAmount) > centsTolerance {
			return nil, invalid("discount does not match the coupon")
		}
		c := res.Coupon.Code
		amt := res.DiscountAmount
		code, discount = &c, &amt
	} else if d.Discount != nil && *d.Discount > 0 {
		return nil, invalid("a discount needs a coupon")
	}

	o := &domain.Order{
		ID:              uuid.New(),
		UserID:          caller.ID,
		CustomerName:    firstNonBlank(d.CustomerName, caller.FullName),
		CustomerEmail:   firstNonBlank(d.CustomerEmail, caller.Email),
		Date:            now.Format("2006-01-02"),
		Time:            now.Format("15:04:05"),
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentPending,
		Items:           items,
		ShippingAddress: d.ShippingAddress,
		Subtotal:        subtotal,
		Shipping:        domain.Round2(d.Shipping),
		Tax:             domain.Round2(d.Tax),
		CouponCode:      code,
		Discount:        discount,
	}
	o.Total = o.ExpectedTotal()
	if math.Abs(d.Total-o.Total) > centsTolerance {
		return nil, invalid("order total does not add up")
	}
	o.AppendJourney(string(domain.OrderStatusPending), "Order placed", now)
	return o, nil
}

// fromCatalog rebuilds each line's price and coupon scope from the stored
// product. A line priced differently from the catalog is refused. Lines for
// products that no longer exist keep their snapshot but lose any coupon scope.
func (p *OrderPlacer) fromCatalog(ctx context.Context, lines []domain.CartItem) ([]domain.CartItem, error) {
	out := make([]domain.CartItem, 0, len(lines))
	for _, it := range lines {
		it.CouponCodes = nil
		prod, err := p.Products.FindByID(ctx, it.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			out = append(out, it)
			continue
		}
		if err != nil {
			return nil, err
		}
		want := prod.Price
		var variant *domain.Variant
		if it.SelectedVariant != nil {
			if idx := prod.VariantIndex(it.SelectedVariant.ID); idx >= 0 {
				v := prod.Variants[idx]
				variant = &v
				if v.Price > 0 {
					want = v.Price
				}
			}
		}
		if math.Abs(it.UnitPrice()-want) > centsTolerance {
			return nil, invalid(fmt.Sprintf("the price of %s has changed, refresh your bag", prod.Name))
		}
		it.Price = prod.Price
		it.CouponCodes = append([]string(nil), prod.CouponCodes...)
		if variant != nil {
			variant.Stock = 0
			it.SelectedVariant = variant
		}
		out = append(out, it)
	}
	return out, nil
}

// Place runs the stock transaction and, once committed, counts the coupon use
// and announces the change.
func (p *OrderPlacer) Place(ctx context.Context, o *domain.Order) error {
	opts := domain.PlaceOptions{Policy: p.Policy.StockPolicy, RedeemCouponInTx: p.Policy.RedeemCouponInTx}
	if opts.Policy == "" {
		opts.Policy = domain.StockClamp
	}
	if err := p.Orders.PlaceWithStock(ctx, o, opts); err != nil {
		return err
	}
	if o.CouponCode != nil && !opts.RedeemCouponInTx {
		if err := p.Coupons.IncrementUsage(ctx, *o.CouponCode); err != nil {
			zlog.Error().Err(err).Str("order_id", o.ID.String()).Str("coupon", *o.CouponCode).Msg("coupon usage not counted")
		}
	}
	zlog.Info().Str("order_id", o.ID.String()).Str("user_id", o.UserID).
		Str("method", o.PaymentMethod).Float64("total", o.Total).Msg("order placed")
	publish(p.Events, domain.CollectionOrders, o.ID.String(), "create", o.UserID, o)
	for _, id := range domain.ProductIDs(o.Items) {
		publish(p.Events, domain.CollectionProducts, id.String(), "stock", "", nil)
	}
	if o.CouponCode != nil {
		publish(p.Events, domain.CollectionCoupons, *o.CouponCode, "usage", "", nil)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

var errNoPlacer = errors.New("order placement not configured")
