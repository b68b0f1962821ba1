package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/phenrril/skinstore/internal/domain"
)

// CheckoutUC places pay-on-delivery orders. There is nothing to verify, the
// order is created unpaid and becomes paid on delivery.
type CheckoutUC struct {
	Placer *OrderPlacer
}

func (uc *CheckoutUC) PlaceCashOnDelivery(ctx context.Context, caller *domain.UserProfile, d OrderDraft) (uuid.UUID, error) {
	if uc.Placer == nil {
		return uuid.Nil, errNoPlacer
	}
	o, err := uc.Placer.Prepare(ctx, caller, d)
	if err != nil {
		return uuid.Nil, err
	}
	o.PaymentMethod = domain.PaymentMethodOnDelivery
	o.PaymentStatus = domain.PaymentPending
	if err := uc.Placer.Place(ctx, o); err != nil {
		return uuid.Nil, err
	}
	return o.ID, nil
}
