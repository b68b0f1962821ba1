package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/skinstore/internal/domain"
)

func draftFor(p *domain.Product, qty int, shipping float64) OrderDraft {
	items := []domain.CartItem{{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty, CouponCodes: p.CouponCodes}}
	sub := domain.Subtotal(items)
	return OrderDraft{Items: items, Subtotal: sub, Shipping: shipping, Total: domain.ComputeTotal(sub, shipping, 0, 0)}
}

func TestVerifyAndPlaceCreatesPaidOrder(t *testing.T) {
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Serum", Price: 45, Stock: intPtr(4)})
	e.gateway.result = &domain.PaymentVerification{Status: "success", Amount: 10000, Currency: "GHS", Channel: "mobile_money", GatewayResponse: "Approved"}

	id, err := e.payment.VerifyAndPlace(context.Background(), customer("u1"), "ref-1", draftFor(p, 2, 10))
	require.NoError(t, err)

	o := e.store.orders[id]
	require.NotNil(t, o)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, domain.PaymentMethodPaystack, o.PaymentMethod)
	assert.Equal(t, "ref-1", *o.PaymentReference)
	assert.Equal(t, "mobile_money", o.PaymentChannel)
	assert.Equal(t, "GHS", o.PaymentCurrency)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "2026-05-04", o.Date)
	require.Len(t, o.Journey, 1)
	assert.Equal(t, 2, e.stock(p.ID))
	assert.Equal(t, 1, e.events.count(domain.CollectionOrders))
}

func TestVerifyAndPlaceAmountMismatch(t *testing.T) {
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Cream", Price: 100, Stock: intPtr(3)})
	e.gateway.result = &domain.PaymentVerification{Status: "success", Amount: 9999}

	d := draftFor(p, 1, 0)
	require.Equal(t, 100.0, d.Total)
	_, err := e.payment.VerifyAndPlace(context.Background(), customer("u1"), "ref-x", d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAmountMismatch))
	assert.Equal(t, "Amount mismatch", err.Error())
	assert.Empty(t, e.store.orders)
	assert.Equal(t, 3, e.stock(p.ID))
}

func TestVerifyAndPlaceNonFiniteAmounts(t *testing.T) {
	for name, tc := range map[string]struct{ total, paid float64 }{
		"nan total":    {math.NaN(), 100},
		"inf paid":     {1, math.Inf(1)},
		"nan paid":     {1, math.NaN()},
		"negative inf": {math.Inf(-1), 0},
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(Policy{})
			p := e.addProduct(&domain.Product{Name: "Mist", Price: 1, Stock: intPtr(1)})
			e.gateway.result = &domain.PaymentVerification{Status: "success", Amount: tc.paid}
			d := draftFor(p, 1, 0)
			d.Total = tc.total
			_, err := e.payment.VerifyAndPlace(context.Background(), customer("u1"), "r", d)
			assert.True(t, errors.Is(err, domain.ErrAmountMismatch))
			assert.Empty(t, e.store.orders)
		})
	}
}

func TestVerifyAndPlaceGateFailures(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Balm", Price: 10, Stock: intPtr(5)})
	d := draftFor(p, 1, 0)

	_, err := e.payment.VerifyAndPlace(ctx, nil, "r", d)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
	assert.Zero(t, e.gateway.calls)

	e.gateway.err = errors.New("connection reset")
	_, err = e.payment.VerifyAndPlace(ctx, customer("u1"), "r", d)
	assert.True(t, errors.Is(err, domain.ErrVerification))

	e.gateway.err = nil
	e.gateway.result = &domain.PaymentVerification{Status: "abandoned", Amount: 1000}
	_, err = e.payment.VerifyAndPlace(ctx, customer("u1"), "r", d)
	assert.True(t, errors.Is(err, domain.ErrPaymentNotSuccess))

	assert.Empty(t, e.store.orders)
	assert.Equal(t, 5, e.stock(p.ID))
}

func TestVerifyAndPlaceIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Oil", Price: 20, Stock: intPtr(5)})
	e.gateway.result = &domain.PaymentVerification{Status: "success", Amount: 2000}
	d := draftFor(p, 1, 0)

	first, err := e.payment.VerifyAndPlace(ctx, customer("u1"), "ref-dup", d)
	require.NoError(t, err)
	second, err := e.payment.VerifyAndPlace(ctx, customer("u1"), "ref-dup", d)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, e.store.orders, 1)
	assert.Equal(t, 4, e.stock(p.ID))
	assert.Equal(t, 1, e.gateway.calls)

	_, err = e.payment.VerifyAndPlace(ctx, customer("u2"), "ref-dup", d)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestVerifyAndPlaceWithCoupon(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Toner", Price: 50, Stock: intPtr(5)})
	e.store.coupons["TEN"] = &domain.Coupon{Code: "TEN", Type: domain.CouponPercentage, Value: 10, Status: domain.CouponActive, IsGlobal: true}
	e.gateway.result = &domain.PaymentVerification{Status: "success", Amount: 4500}

	d := draftFor(p, 1, 0)
	d.CouponCode = strPtr("ten")
	d.Discount = func() *float64 { v := 5.0; return &v }()
	d.Total = 45

	id, err := e.payment.VerifyAndPlace(ctx, customer("u1"), "ref-c", d)
	require.NoError(t, err)
	o := e.store.orders[id]
	assert.Equal(t, "TEN", *o.CouponCode)
	assert.Equal(t, 5.0, *o.Discount)
	assert.Equal(t, 1, e.store.coupons["TEN"].UsedCount)
}

func TestPlaceRejectsTamperedDiscount(t *testing.T) {
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Toner", Price: 50, Stock: intPtr(5)})
	e.store.coupons["TEN"] = &domain.Coupon{Code: "TEN", Type: domain.CouponPercentage, Value: 10, Status: domain.CouponActive, IsGlobal: true}

	d := draftFor(p, 1, 0)
	d.CouponCode = strPtr("TEN")
	d.Discount = func() *float64 { v := 40.0; return &v }()
	d.Total = 10
	_, err := e.cod.PlaceCashOnDelivery(context.Background(), customer("u1"), d)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Empty(t, e.store.orders)
}

func TestCashOnDeliveryPlacesUnpaidOrder(t *testing.T) {
	e := newEnv(Policy{StockPolicy: domain.StockClamp})
	p := e.addProduct(&domain.Product{Name: "Mask", Price: 15, Stock: intPtr(1)})

	id, err := e.cod.PlaceCashOnDelivery(context.Background(), customer("u1"), draftFor(p, 3, 5))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
	o := e.store.orders[id]
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.Equal(t, domain.PaymentMethodOnDelivery, o.PaymentMethod)
	assert.Nil(t, o.PaymentReference)
	assert.Equal(t, 50.0, o.Total)
	assert.Equal(t, 0, e.stock(p.ID))
	assert.Zero(t, e.gateway.calls)
}

func TestCashOnDeliveryRejectPolicy(t *testing.T) {
	e := newEnv(Policy{StockPolicy: domain.StockReject})
	p := e.addProduct(&domain.Product{Name: "Mask", Price: 15, Stock: intPtr(1)})

	_, err := e.cod.PlaceCashOnDelivery(context.Background(), customer("u1"), draftFor(p, 3, 0))
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Equal(t, 1, e.stock(p.ID))
}

func TestCouponRedeemedInTransactionStopsLastUseRace(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{RedeemCouponInTx: true})
	p := e.addProduct(&domain.Product{Name: "Gel", Price: 20, Stock: intPtr(10)})
	e.store.coupons["ONE"] = &domain.Coupon{Code: "ONE", Type: domain.CouponFixed, Value: 5, Status: domain.CouponActive, IsGlobal: true, UsageLimit: intPtr(1)}

	d := draftFor(p, 1, 0)
	d.CouponCode = strPtr("ONE")
	d.Total = 15

	a, err := e.placer.Prepare(ctx, customer("u1"), d)
	require.NoError(t, err)
	b, err := e.placer.Prepare(ctx, customer("u2"), d)
	require.NoError(t, err)

	require.NoError(t, e.placer.Place(ctx, a))
	assert.True(t, errors.Is(e.placer.Place(ctx, b), domain.ErrCouponExhausted))
	assert.Equal(t, 1, e.store.coupons["ONE"].UsedCount)
	assert.Equal(t, 9, e.stock(p.ID))
}

func TestPrepareValidatesDraft(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Gel", Price: 20})

	_, err := e.placer.Prepare(ctx, customer("u1"), OrderDraft{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	d := draftFor(p, 1, 0)
	d.Total = 19
	_, err = e.placer.Prepare(ctx, customer("u1"), d)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	d = draftFor(p, 1, 0)
	d.CouponCode = strPtr("NOPE")
	_, err = e.placer.Prepare(ctx, customer("u1"), d)
	var ce *domain.CouponError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, domain.ReasonInvalidCoupon, ce.Reason)
}

func TestAmountMatches(t *testing.T) {
	assert.True(t, amountMatches(100, 10000))
	assert.True(t, amountMatches(19.99, 1999))
	assert.True(t, amountMatches(0.1+0.2, 30))
	assert.False(t, amountMatches(100, 9999))
}

func TestPrepareTakesCouponScopeFromCatalog(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	a := e.addProduct(&domain.Product{Name: "Serum", Price: 50, Stock: intPtr(5), CouponCodes: []string{"ONLYA"}})
	b := e.addProduct(&domain.Product{Name: "Cream", Price: 50, Stock: intPtr(5)})
	e.store.coupons["ONLYA"] = &domain.Coupon{Code: "ONLYA", Type: domain.CouponPercentage, Value: 50, Status: domain.CouponActive}

	d := draftFor(b, 1, 0)
	d.Items[0].CouponCodes = []string{"ONLYA"}
	d.CouponCode = strPtr("ONLYA")
	d.Discount = func() *float64 { v := 25.0; return &v }()
	d.Total = 25
	_, err := e.placer.Prepare(ctx, customer("u1"), d)
	var ce *domain.CouponError
	require.True(t, errors.As(err, &ce), "got %v", err)

	d = draftFor(a, 1, 0)
	d.Items[0].CouponCodes = nil
	d.CouponCode = strPtr("ONLYA")
	d.Total = 25
	o, err := e.placer.Prepare(ctx, customer("u1"), d)
	require.NoError(t, err)
	assert.Equal(t, 25.0, *o.Discount)
	assert.Equal(t, []string{"ONLYA"}, o.Items[0].CouponCodes)
}

func TestPrepareRefusesPriceNotInCatalog(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Cream", Price: 30, Variants: []domain.Variant{{ID: "big", Name: "100ml", Price: 45, Stock: 4}}})

	d := draftFor(p, 1, 0)
	d.Items[0].Price = 1
	d.Subtotal, d.Total = 1, 1
	_, err := e.placer.Prepare(ctx, customer("u1"), d)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	d = draftFor(p, 2, 0)
	d.Items[0].SelectedVariant = &domain.Variant{ID: "big", Name: "100ml", Price: 45}
	d.Subtotal, d.Total = 90, 90
	o, err := e.placer.Prepare(ctx, customer("u1"), d)
	require.NoError(t, err)
	assert.Equal(t, 90.0, o.Subtotal)
	assert.Equal(t, 45.0, o.Items[0].UnitPrice())
}

func TestVerifyAndPlaceRefusesOtherCurrency(t *testing.T) {
	e := newEnv(Policy{Currency: "GHS"})
	p := e.addProduct(&domain.Product{Name: "Serum", Price: 45, Stock: intPtr(4)})

	e.gateway.result = &domain.PaymentVerification{Status: "success", Amount: 4500, Currency: "NGN"}
	_, err := e.payment.VerifyAndPlace(context.Background(), customer("u1"), "ref-ngn", draftFor(p, 1, 0))
	assert.True(t, errors.Is(err, domain.ErrAmountMismatch))
	assert.Empty(t, e.store.orders)
	assert.Equal(t, 4, e.stock(p.ID))

	e.gateway.result = &domain.PaymentVerification{Status: "success", Amount: 4500, Currency: "ghs"}
	_, err = e.payment.VerifyAndPlace(context.Background(), customer("u1"), "ref-ghs", draftFor(p, 1, 0))
	require.NoError(t, err)
}
