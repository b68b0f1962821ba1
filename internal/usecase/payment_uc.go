package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/skinstore/internal/domain"
)

const statusSuccess = "success"

type PaymentUC struct {
	Gateway domain.PaymentGateway
	Placer  *OrderPlacer
}

// VerifyAndPlace is the only path that creates a paid order. Nothing is
// written unless the processor confirms a successful charge for exactly the
// draft's total. A reference that already produced an order returns that order.
func (uc *PaymentUC) VerifyAndPlace(ctx context.Context, caller *domain.UserProfile, reference string, d OrderDraft) (uuid.UUID, error) {
	if err := requireCaller(caller); err != nil {
		return uuid.Nil, err
	}
	if uc.Placer == nil {
		return uuid.Nil, errNoPlacer
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return uuid.Nil, invalid("payment reference is required")
	}
	if id, ok, err := uc.existing(ctx, caller, reference); err != nil || ok {
		return id, err
	}

	v, err := uc.Gateway.Verify(ctx, reference)
	if err != nil {
		zlog.Warn().Err(err).Str("reference", reference).Msg("payment verification failed")
		return uuid.Nil, domain.ErrVerification
	}
	if v.Status != statusSuccess {
		return uuid.Nil, fmt.Errorf("%w: %s", domain.ErrPaymentNotSuccess, v.Status)
	}
	if !amountMatches(d.Total, v.Amount) {
		zlog.Warn().Str("reference", reference).Float64("draft_total", d.Total).
			Float64("paid", v.Amount).Msg("payment amount mismatch")
		return uuid.Nil, domain.ErrAmountMismatch
	}
	if want := uc.Placer.Policy.Currency; want != "" && !strings.EqualFold(strings.TrimSpace(v.Currency), want) {
		zlog.Warn().Str("reference", reference).Str("currency", v.Currency).
			Str("store_currency", want).Msg("payment currency mismatch")
		return uuid.Nil, fmt.Errorf("%w: charged in %q", domain.ErrAmountMismatch, v.Currency)
	}

	o, err := uc.Placer.Prepare(ctx, caller, d)
	if err != nil {
		return uuid.Nil, err
	}
	o.PaymentMethod = domain.PaymentMethodPaystack
	o.PaymentStatus = domain.PaymentPaid
	o.PaymentReference = &reference
	o.PaymentChannel = v.Channel
	o.PaymentCurrency = v.Currency
	o.GatewayResponse = v.GatewayResponse

	err = uc.Placer.Place(ctx, o)
	if errors.Is(err, domain.ErrConflict) {
		if id, ok, lookupErr := uc.existing(ctx, caller, reference); lookupErr == nil && ok {
			return id, nil
		}
	}
	if err != nil {
		return uuid.Nil, err
	}
	return o.ID, nil
}

func (uc *PaymentUC) existing(ctx context.Context, caller *domain.UserProfile, reference string) (uuid.UUID, bool, error) {
	o, err := uc.Placer.Orders.FindByPaymentReference(ctx, reference)
	if errors.Is(err, domain.ErrNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	if o.UserID != caller.ID {
		return uuid.Nil, false, fmt.Errorf("%w: payment reference already used", domain.ErrConflict)
	}
	return o.ID, true, nil
}

// amountMatches compares the draft total, in major units, with the amount the
// processor charged, in minor units.
func amountMatches(total, paid float64) bool {
	if !finite(total) || !finite(paid) {
		return false
	}
	return math.Round(total*100) == paid
}
