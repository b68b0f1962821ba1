package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/skinstore/internal/domain"
)

func placeCOD(t *testing.T, e *env, owner string, items ...domain.CartItem) *domain.Order {
	t.Helper()
	sub := domain.Subtotal(items)
	id, err := e.cod.PlaceCashOnDelivery(context.Background(), customer(owner), OrderDraft{Items: items, Total: sub})
	require.NoError(t, err)
	return e.store.orders[id]
}

func advance(t *testing.T, e *env, id uuid.UUID, to ...domain.OrderStatus) *domain.Order {
	t.Helper()
	var o *domain.Order
	var err error
	for _, s := range to {
		o, err = e.orders.Advance(context.Background(), staff(domain.RoleManager), id, s, AdvanceOpts{})
		require.NoError(t, err)
	}
	return o
}

func TestAdvanceForwardFlow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{PointsPerUnit: 1})
	e.store.users["u1"] = customer("u1")
	p := e.addProduct(&domain.Product{Name: "Serum", Price: 120.75, Stock: intPtr(3)})
	o := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 120.75, Quantity: 1})

	advance(t, e, o.ID, domain.OrderStatusProcessing)
	shipped, err := e.orders.Advance(ctx, staff(domain.RoleManager), o.ID, domain.OrderStatusShipped, AdvanceOpts{TrackingNumber: " TRK-1 "})
	require.NoError(t, err)
	assert.Equal(t, "TRK-1", shipped.TrackingNumber)
	assert.Equal(t, domain.PaymentPending, shipped.PaymentStatus)

	delivered := advance(t, e, o.ID, domain.OrderStatusDelivered)
	assert.Equal(t, domain.PaymentPaid, delivered.PaymentStatus)
	assert.Len(t, delivered.Journey, 4)

	require.Len(t, e.mailer.sent, 2)
	assert.Equal(t, domain.EmailShippingNotice, e.mailer.sent[0].kind)
	assert.Equal(t, domain.EmailDeliveryConfirmation, e.mailer.sent[1].kind)
	notes, err := fakeNotifications{e.store}.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.Contains(t, notes[0].Message, "TRK-1")

	assert.Equal(t, 120, e.store.users["u1"].Points)
	assert.Equal(t, domain.TierBronze, e.store.users["u1"].PointsTier)
}

func TestAdvanceSideEffectsAreBestEffort(t *testing.T) {
	e := newEnv(Policy{})
	e.mailer.err = errors.New("smtp down")
	p := e.addProduct(&domain.Product{Name: "Serum", Price: 10, Stock: intPtr(3)})
	o := placeCOD(t, e, "ghost", domain.CartItem{ProductID: p.ID, Price: 10, Quantity: 1})

	got := advance(t, e, o.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	assert.Equal(t, domain.OrderStatusDelivered, got.Status)
}

func TestAdvanceTerminalGuard(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Serum", Price: 10, Stock: intPtr(3)})

	cancelled := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 10, Quantity: 1})
	advance(t, e, cancelled.ID, domain.OrderStatusCancelled)
	for _, to := range []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusCancelled, domain.OrderStatusDelivered} {
		_, err := e.orders.Advance(ctx, staff(domain.RoleAdmin), cancelled.ID, to, AdvanceOpts{})
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition), to)
	}

	delivered := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 10, Quantity: 1})
	advance(t, e, delivered.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	_, err := e.orders.Advance(ctx, staff(domain.RoleAdmin), delivered.ID, domain.OrderStatusCancelled, AdvanceOpts{})
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	_, err = e.orders.RequestReturn(ctx, customer("u1"), delivered.ID, "wrong shade")
	assert.NoError(t, err)
}

func TestAdvanceRequiresOrderManager(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Serum", Price: 10})
	o := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 10, Quantity: 1})

	_, err := e.orders.Advance(ctx, staff(domain.RoleEditor), o.ID, domain.OrderStatusProcessing, AdvanceOpts{})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = e.orders.Advance(ctx, customer("u1"), o.ID, domain.OrderStatusProcessing, AdvanceOpts{})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = e.orders.Advance(ctx, nil, o.ID, domain.OrderStatusProcessing, AdvanceOpts{})
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestCancelDoesNotRestockByDefault(t *testing.T) {
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Serum", Price: 10, Stock: intPtr(5)})
	o := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 10, Quantity: 2})

	advance(t, e, o.ID, domain.OrderStatusCancelled)
	assert.Equal(t, 3, e.stock(p.ID))
}

func TestCancelRestocksWhenConfigured(t *testing.T) {
	e := newEnv(Policy{RestockOnCancel: true})
	p := e.addProduct(&domain.Product{Name: "Serum", Price: 10, Stock: intPtr(5)})
	o := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 10, Quantity: 2})

	advance(t, e, o.ID, domain.OrderStatusProcessing, domain.OrderStatusCancelled)
	assert.Equal(t, 5, e.stock(p.ID))
}

func TestApprovedReturnRestocksVariant(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Cream", Price: 30, Variants: []domain.Variant{{ID: "x", Name: "50ml", Stock: 5}, {ID: "y", Name: "100ml", Stock: 1}}})
	o := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 30, Quantity: 2, SelectedVariant: &domain.Variant{ID: "x", Name: "50ml"}})
	assert.Equal(t, 3, e.store.products[p.ID].Variants[0].Stock)

	advance(t, e, o.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	_, err := e.orders.RequestReturn(ctx, customer("u1"), o.ID, "irritation")
	require.NoError(t, err)

	got, err := e.orders.ResolveReturn(ctx, staff(domain.RoleManager), o.ID, true, "RET-7")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, got.Status)
	assert.Equal(t, domain.PaymentRefunded, got.PaymentStatus)
	assert.Equal(t, domain.ReturnApproved, *got.ReturnStatus)
	assert.Equal(t, "RET-7", *got.ReturnTrackingNumber)
	assert.Equal(t, 5, e.store.products[p.ID].Variants[0].Stock)
	assert.Equal(t, 1, e.store.products[p.ID].Variants[1].Stock)

	_, err = e.orders.ResolveReturn(ctx, staff(domain.RoleManager), o.ID, true, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestRejectedReturnKeepsStock(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Cream", Price: 30, Stock: intPtr(4)})
	o := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 30, Quantity: 1})
	advance(t, e, o.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	_, err := e.orders.RequestReturn(ctx, customer("u1"), o.ID, "changed my mind")
	require.NoError(t, err)

	got, err := e.orders.ResolveReturn(ctx, staff(domain.RoleManager), o.ID, false, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, got.Status)
	assert.Equal(t, domain.ReturnRejected, *got.ReturnStatus)
	assert.Equal(t, 3, e.stock(p.ID))
}

func TestReturnOnlyByOwner(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Cream", Price: 30, Stock: intPtr(4)})
	o := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 30, Quantity: 1})
	advance(t, e, o.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)

	_, err := e.orders.RequestReturn(ctx, customer("u2"), o.ID, "mine now")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = e.orders.RequestReturn(ctx, customer("u1"), o.ID, "  ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestGetAndListVisibility(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Cream", Price: 30})
	mine := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 30, Quantity: 1})
	placeCOD(t, e, "u2", domain.CartItem{ProductID: p.ID, Price: 30, Quantity: 1})

	_, err := e.orders.Get(ctx, customer("u2"), mine.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = e.orders.Get(ctx, staff(domain.RoleManager), mine.ID)
	assert.NoError(t, err)

	list, total, err := e.orders.ListMine(ctx, customer("u1"), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, mine.ID, list[0].ID)

	all, err := e.orders.All(ctx, staff(domain.RoleAdmin), domain.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	_, _, err = e.orders.List(ctx, staff(domain.RoleEditor), domain.OrderFilter{})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestDeleteNeedsDeletePermission(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Cream", Price: 30})
	o := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 30, Quantity: 1})

	assert.True(t, errors.Is(e.orders.Delete(ctx, staff(domain.RoleManager), o.ID), domain.ErrForbidden))
	require.NoError(t, e.orders.Delete(ctx, staff(domain.RoleAdmin), o.ID))
	assert.Empty(t, e.store.orders)
}

func TestSendEmail(t *testing.T) {
	ctx := context.Background()
	e := newEnv(Policy{})
	p := e.addProduct(&domain.Product{Name: "Cream", Price: 30})
	o := placeCOD(t, e, "u1", domain.CartItem{ProductID: p.ID, Price: 30, Quantity: 1})

	require.NoError(t, e.orders.SendEmail(ctx, customer("u1"), domain.EmailOrderConfirmation, o.ID))
	assert.Equal(t, domain.EmailOrderConfirmation, e.mailer.sent[0].kind)

	assert.True(t, errors.Is(e.orders.SendEmail(ctx, customer("u1"), "promo", o.ID), domain.ErrInvalidInput))
	assert.True(t, errors.Is(e.orders.SendEmail(ctx, customer("u9"), domain.EmailOrderConfirmation, o.ID), domain.ErrNotFound))
}
